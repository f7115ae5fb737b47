package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Tags copied from operation fields onto metrics. Everything else stays in
// the log record only.
var metricTagFields = []string{"family", "endpoint"}

// observeOperation is deferred by every public operation. It emits
// accountsync.<op>.total and accountsync.<op>.duration_ms and one log line.
// Caller mistakes (4xx) log at warn, everything else at error.
func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	elapsed := time.Since(startedAt)

	status := "success"
	if err != nil {
		status = "failure"
	}

	record := cloneFields(fields)
	record["event_type"] = operation
	record["status"] = status
	record["duration_ms"] = elapsed.Milliseconds()

	tags := map[string]string{"operation": operation, "status": status}
	for _, key := range metricTagFields {
		if value, ok := record[key]; ok && value != nil {
			if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
				tags[key] = text
			}
		}
	}

	s.recordCounter(ctx, "accountsync."+operation+".total", 1, tags)
	s.recordHistogram(ctx, "accountsync."+operation+".duration_ms", float64(elapsed.Milliseconds()), tags)

	if err == nil {
		s.log(ctx, "info", operation+" succeeded", record)
		return
	}

	record["error"] = err.Error()
	if cause := errors.Unwrap(err); cause != nil {
		record["cause"] = cause.Error()
	}
	level := "error"
	var rich *goerrors.Error
	if errors.As(err, &rich) {
		record["text_code"] = rich.TextCode
		record["category"] = string(rich.Category)
		if rich.Code > 0 && rich.Code < http.StatusInternalServerError {
			level = "warn"
		}
	}
	s.log(ctx, level, operation+" failed", record)
}

func (s *Service) log(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch level {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.IncCounter(ctx, name, value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.ObserveHistogram(ctx, name, value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields)+6)
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

// flattenFields turns fields into sorted key/value args.
func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

// normalizeOperation turns "Finish Tracker" or "finish-tracker" into
// "finish_tracker".
func normalizeOperation(operation string) string {
	operation = strings.ToLower(strings.TrimSpace(operation))
	operation = strings.NewReplacer(" ", "_", "-", "_").Replace(operation)
	if operation == "" {
		return "unknown"
	}
	return operation
}
