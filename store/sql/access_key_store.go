package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AccessKeyStore struct {
	db   *bun.DB
	repo repository.Repository[*accessKeyRecord]
}

func NewAccessKeyStore(db *bun.DB) (*AccessKeyStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*accessKeyRecord](db, accessKeyHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid access key repository wiring: %w", err)
		}
	}
	return &AccessKeyStore{db: db, repo: repo}, nil
}

func (s *AccessKeyStore) List(ctx context.Context, accountID string) ([]core.AccessKey, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: access key store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("account_id", "=", strings.TrimSpace(accountID)),
		repository.OrderBy("name ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccessKey, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *AccessKeyStore) Get(ctx context.Context, accountID string, keyID string) (core.AccessKey, error) {
	if s == nil || s.repo == nil {
		return core.AccessKey{}, fmt.Errorf("sqlstore: access key store is not configured")
	}
	record, err := s.find(ctx, accountID, keyID)
	if err != nil {
		return core.AccessKey{}, err
	}
	return record.toDomain(), nil
}

func (s *AccessKeyStore) Create(ctx context.Context, key core.AccessKey) (core.AccessKey, error) {
	if s == nil || s.repo == nil {
		return core.AccessKey{}, fmt.Errorf("sqlstore: access key store is not configured")
	}
	record := newAccessKeyRecord(key, time.Now().UTC())
	record.ID = uuid.NewString()
	if record.AccountID == "" || record.Name == "" {
		return core.AccessKey{}, fmt.Errorf("%w: account id and name are required", core.ErrInvalidInput)
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return core.AccessKey{}, fmt.Errorf("%w: %q", core.ErrAccessKeyNameInUse, record.Name)
		}
		return core.AccessKey{}, err
	}
	return created.toDomain(), nil
}

func (s *AccessKeyStore) Update(ctx context.Context, key core.AccessKey) (core.AccessKey, error) {
	if s == nil || s.repo == nil {
		return core.AccessKey{}, fmt.Errorf("sqlstore: access key store is not configured")
	}
	current, err := s.find(ctx, key.AccountID, key.ID)
	if err != nil {
		return core.AccessKey{}, err
	}
	record := newAccessKeyRecord(key, time.Now().UTC())
	record.ID = current.ID
	record.CreatedAt = current.CreatedAt
	if record.Name == "" {
		return core.AccessKey{}, fmt.Errorf("%w: name is required", core.ErrInvalidInput)
	}
	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(record.ID))
	if err != nil {
		if isUniqueViolation(err) {
			return core.AccessKey{}, fmt.Errorf("%w: %q", core.ErrAccessKeyNameInUse, record.Name)
		}
		return core.AccessKey{}, err
	}
	return updated.toDomain(), nil
}

func (s *AccessKeyStore) Delete(ctx context.Context, accountID string, keyID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: access key store is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	keyID = strings.TrimSpace(keyID)
	res, err := s.db.NewDelete().
		Model((*accessKeyRecord)(nil)).
		Where("id = ?", keyID).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: id %q", core.ErrAccessKeyNotFound, keyID))
}

// find scopes the lookup to the owning account so a key id from another
// account reads as missing.
func (s *AccessKeyStore) find(ctx context.Context, accountID string, keyID string) (*accessKeyRecord, error) {
	keyID = strings.TrimSpace(keyID)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", keyID),
		repository.SelectBy("account_id", "=", strings.TrimSpace(accountID)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: id %q", core.ErrAccessKeyNotFound, keyID)
	}
	return records[0], nil
}
