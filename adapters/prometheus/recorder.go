// Package prometheus exports service operation metrics through
// client_golang collectors.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-accountsync/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "accountsync"

// Labels carried by every series. Tags outside this set are dropped and
// missing ones are recorded as empty.
var labelNames = []string{"operation", "status", "family", "endpoint"}

// DefaultDurationBuckets covers fast store calls up to slow upstream
// exchanges, in milliseconds.
var DefaultDurationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace = strings.TrimSpace(namespace); namespace != "" {
			o.namespace = namespace
		}
	}
}

func WithDurationBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = append([]float64(nil), buckets...)
		}
	}
}

// Recorder implements core.MetricsRecorder. Counters land in
// <namespace>_operations_total and histograms in
// <namespace>_operation_duration_ms.
type Recorder struct {
	operations *prom.CounterVec
	durations  *prom.HistogramVec
}

func NewRecorder(registerer prom.Registerer, opts ...Option) (*Recorder, error) {
	if registerer == nil {
		return nil, fmt.Errorf("prometheus: registerer is required")
	}
	cfg := options{namespace: DefaultNamespace, buckets: DefaultDurationBuckets}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	operations := prom.NewCounterVec(prom.CounterOpts{
		Namespace: cfg.namespace,
		Name:      "operations_total",
		Help:      "Service operations by outcome.",
	}, labelNames)
	durations := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: cfg.namespace,
		Name:      "operation_duration_ms",
		Help:      "Service operation latency in milliseconds.",
		Buckets:   cfg.buckets,
	}, labelNames)

	registeredOps, err := register(registerer, operations)
	if err != nil {
		return nil, err
	}
	registeredDurations, err := register(registerer, durations)
	if err != nil {
		return nil, err
	}
	return &Recorder{operations: registeredOps, durations: registeredDurations}, nil
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	r.operations.WithLabelValues(labelValues(name, ".total", tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	r.durations.WithLabelValues(labelValues(name, ".duration_ms", tags)...).Observe(value)
}

// register reuses a collector already registered under the same
// descriptor so several services can share one registry.
func register[T prom.Collector](registerer prom.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var already prom.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("prometheus: register collector: %w", err)
	}
	return collector, nil
}

func labelValues(name, suffix string, tags map[string]string) []string {
	values := make([]string, len(labelNames))
	for i, label := range labelNames {
		values[i] = strings.TrimSpace(tags[label])
	}
	if values[0] == "" {
		values[0] = operationFromName(name, suffix)
	}
	return values
}

// operationFromName turns "accountsync.request_sync.total" into
// "request_sync".
func operationFromName(name, suffix string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, suffix)
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

var _ core.MetricsRecorder = (*Recorder)(nil)
