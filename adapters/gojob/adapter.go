package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

// JobIDSync identifies tracker synchronization jobs published by RequestSync.
const JobIDSync = core.SyncJobID

// Sync job parameters.
const (
	ParamTrackerID = "tracker_id"
	ParamFamily    = "family"
	ParamAccountID = "account_id"
	ParamEndpoint  = "endpoint"
)

// A queued sync for a tracker is dropped when one is already pending.
const syncDedupPolicy = "drop"

var ErrInvalidSyncJob = errors.New("gojob: invalid sync job")

// SyncJob is the typed form of a sync execution message.
type SyncJob struct {
	TrackerID string
	Scope     core.TrackerScope
}

func SyncJobFor(tracker core.Tracker) SyncJob {
	return SyncJob{TrackerID: tracker.ID, Scope: tracker.Scope().Normalize()}
}

// ParseSyncJob reads a sync job back from a delivery. Only tracker_id is
// required; the scope parameters are informational.
func ParseSyncJob(msg *core.JobExecutionMessage) (SyncJob, error) {
	if msg == nil {
		return SyncJob{}, fmt.Errorf("%w: delivery has no message", ErrInvalidSyncJob)
	}
	if strings.TrimSpace(msg.JobID) != JobIDSync {
		return SyncJob{}, fmt.Errorf("%w: unsupported job %q", ErrInvalidSyncJob, msg.JobID)
	}
	raw, ok := msg.Parameters[ParamTrackerID]
	if !ok {
		return SyncJob{}, fmt.Errorf("%w: %s parameter is required", ErrInvalidSyncJob, ParamTrackerID)
	}
	trackerID, ok := raw.(string)
	if trackerID = strings.TrimSpace(trackerID); !ok || trackerID == "" {
		return SyncJob{}, fmt.Errorf("%w: %s parameter must be a non-empty string", ErrInvalidSyncJob, ParamTrackerID)
	}
	scope := core.TrackerScope{
		Family:    core.TrackerFamily(stringParam(msg.Parameters, ParamFamily)),
		AccountID: stringParam(msg.Parameters, ParamAccountID),
		Endpoint:  stringParam(msg.Parameters, ParamEndpoint),
	}
	return SyncJob{TrackerID: trackerID, Scope: scope.Normalize()}, nil
}

// Message builds the execution message RequestSync publishes.
func (j SyncJob) Message() *core.JobExecutionMessage {
	return &core.JobExecutionMessage{
		JobID:      JobIDSync,
		ScriptPath: JobIDSync + "." + string(j.Scope.Family),
		Parameters: map[string]any{
			ParamTrackerID: j.TrackerID,
			ParamFamily:    string(j.Scope.Family),
			ParamAccountID: j.Scope.AccountID,
			ParamEndpoint:  j.Scope.Endpoint,
		},
		IdempotencyKey: j.TrackerID,
		DedupPolicy:    syncDedupPolicy,
	}
}

// ToExecutionMessage maps a core message to go-job. Sync jobs must name
// their tracker and are keyed on it, so a tracker is queued at most once.
func ToExecutionMessage(msg *core.JobExecutionMessage) (*job.ExecutionMessage, error) {
	if msg == nil {
		return nil, fmt.Errorf("gojob: execution message is required")
	}
	out := &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParameters(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
	if out.JobID != JobIDSync {
		return out, nil
	}
	sync, err := ParseSyncJob(msg)
	if err != nil {
		return nil, err
	}
	if out.IdempotencyKey == "" {
		out.IdempotencyKey = sync.TrackerID
	}
	if out.DedupPolicy == "" {
		out.DedupPolicy = job.DeduplicationPolicy(syncDedupPolicy)
	}
	return out, nil
}

func FromExecutionMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParameters(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

// RetryPolicy decides what happens to a sync delivery when the tracker
// engine, not the upstream, failed. Requeues back off from BaseDelay up to
// MaxDelay; at MaxAttempts the delivery is dead-lettered.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) EngineFailure(attempt int, cause error) core.JobNackOptions {
	reason := "tracker engine failure"
	if cause != nil {
		reason = cause.Error()
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return core.JobNackOptions{
			DeadLetter: true,
			Reason:     fmt.Sprintf("%s (gave up after %d attempts)", reason, attempt),
		}
	}
	return core.JobNackOptions{Requeue: true, Delay: p.delay(attempt), Reason: reason}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Rejected dead-letters a delivery that can never succeed.
func Rejected(cause error) core.JobNackOptions {
	reason := "rejected"
	if cause != nil {
		reason = cause.Error()
	}
	return core.JobNackOptions{DeadLetter: true, Reason: reason}
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	mapped, err := ToExecutionMessage(msg)
	if err != nil {
		return err
	}
	return a.enqueuer.Enqueue(ctx, mapped)
}

type DeliveryAdapter struct {
	delivery queue.Delivery
}

func NewDeliveryAdapter(delivery queue.Delivery) *DeliveryAdapter {
	return &DeliveryAdapter{delivery: delivery}
}

func (d *DeliveryAdapter) Message() *core.JobExecutionMessage {
	if d == nil || d.delivery == nil {
		return nil
	}
	return FromExecutionMessage(d.delivery.Message())
}

func (d *DeliveryAdapter) Ack(ctx context.Context) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	return d.delivery.Ack(ctx)
}

// Nack never both requeues and dead-letters, and never drops silently.
func (d *DeliveryAdapter) Nack(ctx context.Context, opts core.JobNackOptions) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	out := queue.NackOptions{
		Delay:      max(opts.Delay, 0),
		Requeue:    opts.Requeue && !opts.DeadLetter,
		DeadLetter: opts.DeadLetter,
		Reason:     strings.TrimSpace(opts.Reason),
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return d.delivery.Nack(ctx, out)
}

type DequeuerAdapter struct {
	dequeuer queue.Dequeuer
}

func NewDequeuerAdapter(dequeuer queue.Dequeuer) *DequeuerAdapter {
	return &DequeuerAdapter{dequeuer: dequeuer}
}

func (a *DequeuerAdapter) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if a == nil || a.dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, nil
	}
	return NewDeliveryAdapter(delivery), nil
}

// WorkerHookAdapter lets a core.JobWorkerHook observe go-job workers.
type WorkerHookAdapter struct {
	hook core.JobWorkerHook
}

func NewWorkerHookAdapter(hook core.JobWorkerHook) *WorkerHookAdapter {
	return &WorkerHookAdapter{hook: hook}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnStart)
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnSuccess)
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnFailure)
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnRetry)
}

func (a *WorkerHookAdapter) forward(
	ctx context.Context,
	event worker.Event,
	call func(core.JobWorkerHook, context.Context, core.JobWorkerEvent),
) {
	if a == nil || a.hook == nil {
		return
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	call(a.hook, ctx, core.JobWorkerEvent{
		Message:   FromExecutionMessage(message),
		Attempt:   event.Attempt,
		Delay:     event.Delay,
		Err:       event.Err,
		StartedAt: event.StartedAt,
		Duration:  event.Duration,
	})
}

func stringParam(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return strings.TrimSpace(value)
}

func cloneParameters(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer = (*DequeuerAdapter)(nil)
	_ worker.Hook      = (*WorkerHookAdapter)(nil)
)
