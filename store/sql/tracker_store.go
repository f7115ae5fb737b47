package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TrackerStore relies on the unique index over unfinished_key for
// single-flight: at most one unfinished tracker exists per scope, and a
// finishing write clears the key in the same statement.
type TrackerStore struct {
	db   *bun.DB
	repo repository.Repository[*trackerRecord]
}

func NewTrackerStore(db *bun.DB) (*TrackerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*trackerRecord](db, trackerHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid tracker repository wiring: %w", err)
		}
	}
	return &TrackerStore{db: db, repo: repo}, nil
}

func (s *TrackerStore) CreateOrGetUnfinished(ctx context.Context, scope core.TrackerScope) (core.Tracker, bool, error) {
	if s == nil || s.db == nil {
		return core.Tracker{}, false, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	scope = scope.Normalize()
	if err := scope.Validate(); err != nil {
		return core.Tracker{}, false, err
	}

	existing, err := s.findUnfinished(ctx, scope)
	if err != nil {
		return core.Tracker{}, false, err
	}
	if existing != nil {
		return existing.toDomain(), false, nil
	}

	record := newTrackerRecord(uuid.NewString(), scope, time.Now().UTC())
	if _, insertErr := s.db.NewInsert().Model(record).Exec(ctx); insertErr != nil {
		if !isUniqueViolation(insertErr) {
			return core.Tracker{}, false, insertErr
		}
		existing, err = s.findUnfinished(ctx, scope)
		if err != nil {
			return core.Tracker{}, false, err
		}
		if existing == nil {
			return core.Tracker{}, false, insertErr
		}
		return existing.toDomain(), false, nil
	}
	return record.toDomain(), true, nil
}

func (s *TrackerStore) Get(ctx context.Context, id string) (core.Tracker, error) {
	if s == nil || s.db == nil {
		return core.Tracker{}, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	record, err := s.get(ctx, id)
	if err != nil {
		return core.Tracker{}, err
	}
	return record.toDomain(), nil
}

func (s *TrackerStore) Start(ctx context.Context, id string, at time.Time) (core.Tracker, error) {
	if s == nil || s.db == nil {
		return core.Tracker{}, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	id = strings.TrimSpace(id)
	res, err := s.db.NewUpdate().
		Model((*trackerRecord)(nil)).
		Set("sync_start = ?", toMillis(at)).
		Where("id = ?", id).
		Where("sync_start IS NULL").
		Where("sync_end IS NULL").
		Exec(ctx)
	if err != nil {
		return core.Tracker{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Tracker{}, err
	}
	record, err := s.get(ctx, id)
	if err != nil {
		return core.Tracker{}, err
	}
	if affected == 0 && record.SyncEnd != nil {
		return core.Tracker{}, fmt.Errorf("%w: id %q", core.ErrTrackerAlreadyFinished, id)
	}
	return record.toDomain(), nil
}

// Finish stamps the end, and the start when the tracker never started, then
// releases the single-flight key.
func (s *TrackerStore) Finish(ctx context.Context, id string, in core.FinishTrackerInput) (core.Tracker, error) {
	if s == nil || s.db == nil {
		return core.Tracker{}, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	if err := in.Status.Validate(); err != nil {
		return core.Tracker{}, err
	}
	id = strings.TrimSpace(id)
	end := toMillis(in.At)
	res, err := s.db.NewUpdate().
		Model((*trackerRecord)(nil)).
		Set("sync_start = COALESCE(sync_start, ?)", end).
		Set("sync_end = ?", end).
		Set("status = ?", string(in.Status)).
		Set("detail = ?", in.Detail).
		Set("unfinished_key = NULL").
		Where("id = ?", id).
		Where("sync_end IS NULL").
		Exec(ctx)
	if err != nil {
		return core.Tracker{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Tracker{}, err
	}
	record, err := s.get(ctx, id)
	if err != nil {
		return core.Tracker{}, err
	}
	if affected == 0 {
		return core.Tracker{}, fmt.Errorf("%w: id %q", core.ErrTrackerAlreadyFinished, id)
	}
	return record.toDomain(), nil
}

func (s *TrackerStore) ForceFinish(ctx context.Context, id string, at time.Time, detail string) (core.Tracker, error) {
	tracker, err := s.Finish(ctx, id, core.FinishTrackerInput{
		Status: core.TrackerStatusWarning,
		Detail: detail,
		At:     at,
	})
	if errors.Is(err, core.ErrTrackerAlreadyFinished) {
		return s.Get(ctx, id)
	}
	return tracker, err
}

// History pages started trackers newest first, ties on sync_start broken by
// id so pages are stable. An empty endpoint matches every endpoint of the
// scope.
func (s *TrackerStore) History(ctx context.Context, scope core.TrackerScope, window core.HistoryWindow) ([]core.Tracker, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	if window.Limit <= 0 {
		return []core.Tracker{}, nil
	}
	criteria := []repository.SelectCriteria{
		repository.SelectBy("family", "=", string(scope.Family)),
		repository.SelectBy("account_id", "=", strings.TrimSpace(scope.AccountID)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.sync_start IS NOT NULL")
			if window.Before != core.NoCursor {
				q = q.Where("?TableAlias.sync_start < ?", window.Before)
			}
			return q
		}),
		repository.OrderBy("sync_start DESC", "id DESC"),
		repository.SelectPaginate(window.Limit, 0),
	}
	if endpoint := strings.TrimSpace(scope.Endpoint); endpoint != "" {
		criteria = append(criteria, repository.SelectBy("endpoint", "=", endpoint))
	}
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	return trackersToDomain(records), nil
}

func (s *TrackerStore) ListUnfinished(ctx context.Context, filter core.UnfinishedFilter) ([]core.Tracker, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	records := []*trackerRecord{}
	query := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.unfinished_key IS NOT NULL").
		Order("created_at ASC")
	if filter.Family != "" {
		query = query.Where("?TableAlias.family = ?", string(filter.Family))
	}
	if filter.StartedOnly {
		query = query.Where("?TableAlias.sync_start IS NOT NULL")
	}
	if err := query.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return trackersToDomain(records), nil
}

func (s *TrackerStore) ListFinishedSince(ctx context.Context, scope core.TrackerScope, since time.Time) ([]core.Tracker, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: tracker store is not configured")
	}
	records := []*trackerRecord{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.family = ?", string(scope.Family)).
		Where("?TableAlias.account_id = ?", strings.TrimSpace(scope.AccountID)).
		Where("?TableAlias.sync_end IS NOT NULL").
		Where("?TableAlias.sync_end >= ?", toMillis(since)).
		Order("sync_end DESC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return trackersToDomain(records), nil
}

func (s *TrackerStore) get(ctx context.Context, id string) (*trackerRecord, error) {
	id = strings.TrimSpace(id)
	record := &trackerRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %q", core.ErrTrackerNotFound, id)
		}
		return nil, err
	}
	return record, nil
}

func (s *TrackerStore) findUnfinished(ctx context.Context, scope core.TrackerScope) (*trackerRecord, error) {
	record := &trackerRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.unfinished_key = ?", scope.Key()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func trackersToDomain(records []*trackerRecord) []core.Tracker {
	out := make([]core.Tracker, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out
}
