package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const authStateInsertAttempts = 5

type AuthStateStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewAuthStateStore(db *bun.DB) (*AuthStateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &AuthStateStore{db: db, now: time.Now}, nil
}

func (s *AuthStateStore) Create(ctx context.Context, in core.AuthStateInput) (core.AuthState, error) {
	if s == nil || s.db == nil {
		return core.AuthState{}, fmt.Errorf("sqlstore: auth state store is not configured")
	}
	now := s.now().UTC()
	record := &authStateRecord{
		UserID:    strings.TrimSpace(in.UserID),
		AccountID: strings.TrimSpace(in.AccountID),
		Scopes:    in.Scopes,
		CreatedAt: now,
		ExpiresAt: toMillis(now.Add(in.TTL)),
	}

	var lastErr error
	for attempt := 0; attempt < authStateInsertAttempts; attempt++ {
		token, err := core.GenerateAuthStateToken()
		if err != nil {
			return core.AuthState{}, err
		}
		record.ID = uuid.NewString()
		record.Token = token
		if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return core.AuthState{}, err
		}
		return record.toDomain(), nil
	}
	return core.AuthState{}, fmt.Errorf("sqlstore: could not allocate a unique authorization state: %w", lastErr)
}

// Consume deletes the state and returns it. Only the caller whose delete
// removed the row sees the state; expired rows are deleted and reported as
// absent.
func (s *AuthStateStore) Consume(ctx context.Context, token string) (core.AuthState, error) {
	if s == nil || s.db == nil {
		return core.AuthState{}, fmt.Errorf("sqlstore: auth state store is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return core.AuthState{}, core.ErrAuthStateNotFound
	}

	var consumed core.AuthState
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &authStateRecord{}
		if err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.token = ?", token).
			Limit(1).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrAuthStateNotFound
			}
			return err
		}
		res, err := tx.NewDelete().
			Model((*authStateRecord)(nil)).
			Where("id = ?", record.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireAffected(res, core.ErrAuthStateNotFound); err != nil {
			return err
		}
		consumed = record.toDomain()
		return nil
	})
	if err != nil {
		return core.AuthState{}, err
	}
	if consumed.Expired(s.now().UTC()) {
		return core.AuthState{}, core.ErrAuthStateNotFound
	}
	return consumed, nil
}

// PurgeExpired deletes states that expired at or before the given time.
func (s *AuthStateStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: auth state store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*authStateRecord)(nil)).
		Where("expires_at <= ?", toMillis(before)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
