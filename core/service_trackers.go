package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SyncJobID identifies sync jobs published for new trackers.
const SyncJobID = "accountsync.sync"

// SystemCaller is the principal used by schedulers and workers.
var SystemCaller = Caller{UserID: "system", Admin: true}

type RequestSyncRequest struct {
	Caller Caller
	Scope  TrackerScope
}

type RequestSyncResult struct {
	Tracker Tracker
	Created bool
}

type TrackerRequest struct {
	Caller    Caller
	TrackerID string
}

type FinishTrackerRequest struct {
	Caller    Caller
	TrackerID string
	Status    TrackerStatus
	Detail    string
}

type HistoryRequest struct {
	Caller     Caller
	Family     TrackerFamily
	AccountID  string
	Endpoint   string
	Before     int64
	MaxResults int
}

type ListUnfinishedRequest struct {
	Caller Caller
	Filter UnfinishedFilter
}

type EndpointStatsRequest struct {
	Caller    Caller
	AccountID string
	Since     time.Time
}

// RequestSync returns the unfinished tracker for the scope, creating it if
// none exists. Concurrent callers for the same scope all receive the same
// tracker and exactly one of them sees Created.
func (s *Service) RequestSync(ctx context.Context, req RequestSyncRequest) (result RequestSyncResult, err error) {
	startedAt := time.Now().UTC()
	scope := req.Scope.Normalize()
	fields := map[string]any{
		"family":     string(scope.Family),
		"account_id": scope.AccountID,
		"endpoint":   scope.Endpoint,
	}
	defer func() {
		fields["tracker_id"] = result.Tracker.ID
		fields["created"] = result.Created
		s.observeOperation(ctx, startedAt, "request_sync", err, fields)
	}()

	if err := scope.Validate(); err != nil {
		return RequestSyncResult{}, s.mapError(err)
	}
	if err := s.authorizeScope(ctx, req.Caller, scope); err != nil {
		return RequestSyncResult{}, s.mapError(err)
	}
	if scope.Family == TrackerFamilyReference {
		if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
			return RequestSyncResult{}, s.mapError(err)
		}
	}
	if s.trackerStore == nil {
		return RequestSyncResult{}, s.mapError(errNotConfigured("tracker store"))
	}
	tracker, created, err := s.trackerStore.CreateOrGetUnfinished(ctx, scope)
	if err != nil {
		return RequestSyncResult{}, s.mapError(err)
	}
	result = RequestSyncResult{Tracker: tracker, Created: created}
	if tracker.State() == TrackerStateUnstarted {
		if err := s.publishSyncJob(ctx, tracker); err != nil {
			return result, s.mapError(err)
		}
	}
	return result, nil
}

func (s *Service) GetTracker(ctx context.Context, req TrackerRequest) (tracker Tracker, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tracker_id": req.TrackerID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_tracker", err, fields)
	}()

	tracker, err = s.loadTracker(ctx, req.TrackerID)
	if err != nil {
		return Tracker{}, s.mapError(err)
	}
	if err := s.authorizeScope(ctx, req.Caller, tracker.Scope()); err != nil {
		return Tracker{}, s.mapError(err)
	}
	return tracker, nil
}

// StartTracker moves an unstarted tracker to started. Starting a started
// tracker is a no-op.
func (s *Service) StartTracker(ctx context.Context, req TrackerRequest) (tracker Tracker, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tracker_id": req.TrackerID}
	defer func() {
		fields["family"] = string(tracker.Family)
		fields["endpoint"] = tracker.Endpoint
		s.observeOperation(ctx, startedAt, "start_tracker", err, fields)
	}()

	if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
		return Tracker{}, s.mapError(err)
	}
	if s.trackerStore == nil {
		return Tracker{}, s.mapError(errNotConfigured("tracker store"))
	}
	tracker, err = s.trackerStore.Start(ctx, strings.TrimSpace(req.TrackerID), s.clock())
	if err != nil {
		return Tracker{}, s.mapError(err)
	}
	return tracker, nil
}

// FinishTracker records the outcome of a synchronization. Finished trackers
// are immutable.
func (s *Service) FinishTracker(ctx context.Context, req FinishTrackerRequest) (tracker Tracker, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tracker_id": req.TrackerID,
		"status":     string(req.Status),
	}
	defer func() {
		fields["family"] = string(tracker.Family)
		fields["endpoint"] = tracker.Endpoint
		s.observeOperation(ctx, startedAt, "finish_tracker", err, fields)
	}()

	if err := req.Status.Validate(); err != nil {
		return Tracker{}, s.mapError(err)
	}
	if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
		return Tracker{}, s.mapError(err)
	}
	if s.trackerStore == nil {
		return Tracker{}, s.mapError(errNotConfigured("tracker store"))
	}
	tracker, err = s.trackerStore.Finish(ctx, strings.TrimSpace(req.TrackerID), FinishTrackerInput{
		Status: req.Status,
		Detail: strings.TrimSpace(req.Detail),
		At:     s.clock(),
	})
	if err != nil {
		return Tracker{}, s.mapError(err)
	}
	return tracker, nil
}

// ForceFinishTracker closes a stuck tracker with a WARNING status. On an
// already finished tracker it changes nothing and returns the stored state.
func (s *Service) ForceFinishTracker(ctx context.Context, req TrackerRequest) (tracker Tracker, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tracker_id": req.TrackerID}
	defer func() {
		fields["family"] = string(tracker.Family)
		fields["endpoint"] = tracker.Endpoint
		s.observeOperation(ctx, startedAt, "force_finish_tracker", err, fields)
	}()

	if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
		return Tracker{}, s.mapError(err)
	}
	if s.trackerStore == nil {
		return Tracker{}, s.mapError(errNotConfigured("tracker store"))
	}
	tracker, err = s.trackerStore.ForceFinish(ctx, strings.TrimSpace(req.TrackerID), s.clock(), ForceFinishDetail)
	if err != nil {
		return Tracker{}, s.mapError(err)
	}
	return tracker, nil
}

// TrackerHistory pages through started trackers, newest first. Pass the
// start time (Unix ms) of the last tracker of a page as Before to get the
// next one. Trackers started in that same millisecond are not repeated,
// so a page boundary inside such a group drops its remainder. An empty
// endpoint covers every endpoint of the scope.
func (s *Service) TrackerHistory(ctx context.Context, req HistoryRequest) (trackers []Tracker, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"family":     string(req.Family),
		"account_id": req.AccountID,
		"endpoint":   req.Endpoint,
		"before":     req.Before,
	}
	defer func() {
		fields["count"] = len(trackers)
		s.observeOperation(ctx, startedAt, "tracker_history", err, fields)
	}()

	scope := TrackerScope{
		Family:    req.Family,
		AccountID: strings.TrimSpace(req.AccountID),
		Endpoint:  strings.TrimSpace(req.Endpoint),
	}
	if scope.Family == "" {
		scope.Family = TrackerFamilyAccount
	}
	switch scope.Family {
	case TrackerFamilyAccount:
		if scope.AccountID == "" {
			return nil, s.mapError(fmt.Errorf("%w: account id is required", ErrInvalidInput))
		}
	case TrackerFamilyReference:
		scope.AccountID = ""
	default:
		return nil, s.mapError(fmt.Errorf("%w: unknown tracker family %q", ErrInvalidInput, scope.Family))
	}
	if err := s.authorizeScope(ctx, req.Caller, scope); err != nil {
		return nil, s.mapError(err)
	}
	if s.trackerStore == nil {
		return nil, s.mapError(errNotConfigured("tracker store"))
	}

	window := NormalizeHistoryWindow(req.Before, req.MaxResults, s.config.History)
	trackers, err = s.trackerStore.History(ctx, scope, window)
	if err != nil {
		return nil, s.mapError(err)
	}
	return trackers, nil
}

// ListUnfinishedTrackers is an administrative view of every tracker that has
// not finished.
func (s *Service) ListUnfinishedTrackers(ctx context.Context, req ListUnfinishedRequest) (trackers []Tracker, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"family":       string(req.Filter.Family),
		"started_only": req.Filter.StartedOnly,
	}
	defer func() {
		fields["count"] = len(trackers)
		s.observeOperation(ctx, startedAt, "list_unfinished_trackers", err, fields)
	}()

	if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
		return nil, s.mapError(err)
	}
	if s.trackerStore == nil {
		return nil, s.mapError(errNotConfigured("tracker store"))
	}
	trackers, err = s.trackerStore.ListUnfinished(ctx, req.Filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return trackers, nil
}

// EndpointStats counts finished synchronizations and failures per endpoint.
func (s *Service) EndpointStats(ctx context.Context, req EndpointStatsRequest) (stats []EndpointStats, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": req.AccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "endpoint_stats", err, fields)
	}()

	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return nil, s.mapError(err)
	}
	if s.trackerStore == nil {
		return nil, s.mapError(errNotConfigured("tracker store"))
	}
	finished, err := s.trackerStore.ListFinishedSince(ctx, TrackerScope{
		Family:    TrackerFamilyAccount,
		AccountID: account.ID,
	}, req.Since)
	if err != nil {
		return nil, s.mapError(err)
	}
	return summarizeEndpoints(finished), nil
}

func summarizeEndpoints(trackers []Tracker) []EndpointStats {
	byEndpoint := map[string]*EndpointStats{}
	for _, tracker := range trackers {
		entry, ok := byEndpoint[tracker.Endpoint]
		if !ok {
			entry = &EndpointStats{Endpoint: tracker.Endpoint}
			byEndpoint[tracker.Endpoint] = entry
		}
		entry.Attempts++
		if tracker.Status == TrackerStatusError {
			entry.Failures++
		}
	}
	out := make([]EndpointStats, 0, len(byEndpoint))
	for _, entry := range byEndpoint {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

func (s *Service) loadTracker(ctx context.Context, id string) (Tracker, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Tracker{}, fmt.Errorf("%w: tracker id is required", ErrInvalidInput)
	}
	if s.trackerStore == nil {
		return Tracker{}, errNotConfigured("tracker store")
	}
	return s.trackerStore.Get(ctx, id)
}

// authorizeScope requires account access for account trackers and only an
// authenticated caller for reference trackers.
func (s *Service) authorizeScope(ctx context.Context, caller Caller, scope TrackerScope) error {
	if caller.Anonymous() {
		return ErrNotAuthorized
	}
	if scope.Family == TrackerFamilyReference {
		return nil
	}
	_, err := s.loadAccount(ctx, caller, scope.AccountID)
	return err
}

func (s *Service) publishSyncJob(ctx context.Context, tracker Tracker) error {
	if s.jobEnqueuer == nil {
		return nil
	}
	return s.jobEnqueuer.Enqueue(ctx, &JobExecutionMessage{
		JobID:      SyncJobID,
		ScriptPath: SyncJobID + "." + string(tracker.Family),
		Parameters: map[string]any{
			"tracker_id": tracker.ID,
			"family":     string(tracker.Family),
			"account_id": tracker.AccountID,
			"endpoint":   tracker.Endpoint,
		},
		IdempotencyKey: tracker.ID,
		DedupPolicy:    "drop",
	})
}
