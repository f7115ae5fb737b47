package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-accountsync/core"
	glog "github.com/goliatone/go-logger/glog"
)

// TrackerEngine is the part of the service a sync worker drives.
type TrackerEngine interface {
	StartTracker(ctx context.Context, req core.TrackerRequest) (core.Tracker, error)
	FinishTracker(ctx context.Context, req core.FinishTrackerRequest) (core.Tracker, error)
}

// EndpointSyncer performs the upstream work a tracker stands for and
// reports the status to record. A non-nil error finishes the tracker with
// ERROR and the error text as detail.
type EndpointSyncer func(ctx context.Context, tracker core.Tracker) (core.TrackerStatus, string, error)

type SyncWorkerOption func(*SyncWorker)

func WithWorkerHook(hook core.JobWorkerHook) SyncWorkerOption {
	return func(w *SyncWorker) {
		w.hook = hook
	}
}

func WithWorkerLogger(logger glog.Logger) SyncWorkerOption {
	return func(w *SyncWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRetryPolicy bounds requeues when the tracker engine itself is
// unavailable. Failed upstream syncs are recorded on the tracker and never
// retried here. The default policy requeues without limit.
func WithRetryPolicy(policy RetryPolicy) SyncWorkerOption {
	return func(w *SyncWorker) {
		w.policy = policy
	}
}

// SyncWorker consumes sync deliveries and runs them against the tracker
// engine as the system caller: start, sync, finish, ack.
type SyncWorker struct {
	dequeuer core.JobDequeuer
	engine   TrackerEngine
	syncer   EndpointSyncer
	hook     core.JobWorkerHook
	logger   glog.Logger
	policy   RetryPolicy
	now      func() time.Time

	mu       sync.Mutex
	attempts map[string]int
}

func NewSyncWorker(dequeuer core.JobDequeuer, engine TrackerEngine, syncer EndpointSyncer, opts ...SyncWorkerOption) (*SyncWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("gojob: tracker engine is required")
	}
	if syncer == nil {
		return nil, fmt.Errorf("gojob: endpoint syncer is required")
	}
	w := &SyncWorker{
		dequeuer: dequeuer,
		engine:   engine,
		syncer:   syncer,
		now:      func() time.Time { return time.Now().UTC() },
		attempts: map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.logger = glog.Ensure(w.logger)
	return w, nil
}

// Run processes deliveries until ctx is done or the dequeuer fails.
func (w *SyncWorker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// ProcessNext dequeues and handles a single delivery.
func (w *SyncWorker) ProcessNext(ctx context.Context) error {
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}
	return w.Handle(ctx, delivery)
}

// Handle runs one delivery to completion. The returned error only reports
// ack/nack failures.
func (w *SyncWorker) Handle(ctx context.Context, delivery core.JobDelivery) error {
	msg := delivery.Message()
	event := core.JobWorkerEvent{Message: msg, Attempt: 1, StartedAt: w.now()}

	syncJob, err := ParseSyncJob(msg)
	if err != nil {
		w.onStart(ctx, event)
		w.logger.Error("sync delivery rejected", "error", err)
		event.Err = err
		w.onFailure(ctx, w.finishEvent(event))
		return delivery.Nack(ctx, Rejected(err))
	}
	trackerID := syncJob.TrackerID
	event.Attempt = w.attempt(trackerID)
	w.onStart(ctx, event)

	tracker, err := w.engine.StartTracker(ctx, core.TrackerRequest{Caller: core.SystemCaller, TrackerID: trackerID})
	if err != nil {
		if errors.Is(err, core.ErrTrackerNotFound) {
			w.logger.Info("sync delivery dropped", "tracker_id", trackerID, "reason", "tracker not found")
			return w.ack(ctx, delivery, trackerID, event)
		}
		return w.engineFailure(ctx, delivery, trackerID, event, err)
	}
	if tracker.Finished() {
		return w.ack(ctx, delivery, trackerID, event)
	}

	status, detail, syncErr := w.syncer(ctx, tracker)
	if syncErr != nil {
		status = core.TrackerStatusError
		detail = syncErr.Error()
	}
	if status == "" {
		status = core.TrackerStatusOK
	}
	_, err = w.engine.FinishTracker(ctx, core.FinishTrackerRequest{
		Caller:    core.SystemCaller,
		TrackerID: tracker.ID,
		Status:    status,
		Detail:    strings.TrimSpace(detail),
	})
	if err != nil && !errors.Is(err, core.ErrTrackerAlreadyFinished) {
		return w.engineFailure(ctx, delivery, trackerID, event, err)
	}

	w.logger.Info("sync delivery processed",
		"tracker_id", tracker.ID,
		"endpoint", tracker.Endpoint,
		"status", string(status),
	)
	if syncErr != nil {
		w.forget(trackerID)
		event.Err = syncErr
		w.onFailure(ctx, w.finishEvent(event))
		return delivery.Ack(ctx)
	}
	return w.ack(ctx, delivery, trackerID, event)
}

func (w *SyncWorker) ack(ctx context.Context, delivery core.JobDelivery, trackerID string, event core.JobWorkerEvent) error {
	w.forget(trackerID)
	w.onSuccess(ctx, w.finishEvent(event))
	return delivery.Ack(ctx)
}

// engineFailure counts the attempt against the tracker and lets the retry
// policy pick between requeue and dead letter.
func (w *SyncWorker) engineFailure(
	ctx context.Context,
	delivery core.JobDelivery,
	trackerID string,
	event core.JobWorkerEvent,
	cause error,
) error {
	opts := w.policy.EngineFailure(event.Attempt, cause)
	w.mu.Lock()
	if opts.DeadLetter {
		delete(w.attempts, trackerID)
	} else {
		w.attempts[trackerID] = event.Attempt
	}
	w.mu.Unlock()

	event.Err = cause
	event.Delay = opts.Delay
	if opts.DeadLetter {
		w.logger.Error("sync delivery dead-lettered", "tracker_id", trackerID, "attempt", event.Attempt, "error", cause)
		w.onFailure(ctx, w.finishEvent(event))
	} else {
		w.logger.Warn("sync delivery requeued", "tracker_id", trackerID, "attempt", event.Attempt, "error", cause)
		w.onRetry(ctx, w.finishEvent(event))
	}
	return delivery.Nack(ctx, opts)
}

// attempt returns the 1-based attempt number of the next run for trackerID.
func (w *SyncWorker) attempt(trackerID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts[trackerID] + 1
}

func (w *SyncWorker) forget(trackerID string) {
	w.mu.Lock()
	delete(w.attempts, trackerID)
	w.mu.Unlock()
}

func (w *SyncWorker) finishEvent(event core.JobWorkerEvent) core.JobWorkerEvent {
	event.Duration = w.now().Sub(event.StartedAt)
	return event
}

func (w *SyncWorker) onStart(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnStart(ctx, event)
	}
}

func (w *SyncWorker) onSuccess(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnSuccess(ctx, event)
	}
}

func (w *SyncWorker) onFailure(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnFailure(ctx, event)
	}
}

func (w *SyncWorker) onRetry(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnRetry(ctx, event)
	}
}
