package core

import (
	"context"
	"time"
)

// AuthStatePurger is implemented by auth state stores that can drop expired
// rows in bulk.
type AuthStatePurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

type PurgeAuthStatesRequest struct {
	Caller Caller
	// Before defaults to now.
	Before time.Time
}

// PurgeExpiredAuthStates removes authorization states that expired before
// the cutoff. Stores without bulk purge report zero.
func (s *Service) PurgeExpiredAuthStates(ctx context.Context, req PurgeAuthStatesRequest) (purged int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["purged"] = purged
		s.observeOperation(ctx, startedAt, "purge_auth_states", err, fields)
	}()

	if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
		return 0, s.mapError(err)
	}
	purger, ok := s.authStateStore.(AuthStatePurger)
	if !ok {
		return 0, nil
	}
	before := req.Before
	if before.IsZero() {
		before = s.clock()
	}
	purged, err = purger.PurgeExpired(ctx, before.UTC())
	if err != nil {
		return 0, s.mapError(err)
	}
	return purged, nil
}
