package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type AccessKeyRequest struct {
	Caller    Caller
	AccountID string
	// KeyID is optional for listing; empty lists every key of the account.
	KeyID string
}

type SaveAccessKeyRequest struct {
	Caller    Caller
	AccountID string
	// KeyID empty creates a new key.
	KeyID      string
	Name       string
	Expiry     time.Time
	Limit      int64
	MaskString string
}

func (s *Service) ListAccessKeys(ctx context.Context, req AccessKeyRequest) (views []AccessKeyView, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"account_id": req.AccountID,
		"key_id":     req.KeyID,
	}
	defer func() {
		fields["count"] = len(views)
		s.observeOperation(ctx, startedAt, "list_access_keys", err, fields)
	}()

	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return nil, s.mapError(err)
	}
	if s.accessKeyStore == nil {
		return nil, s.mapError(errNotConfigured("access key store"))
	}

	var keys []AccessKey
	if keyID := strings.TrimSpace(req.KeyID); keyID != "" {
		key, err := s.accessKeyStore.Get(ctx, account.ID, keyID)
		if err != nil {
			return nil, s.mapError(err)
		}
		keys = []AccessKey{key}
	} else {
		keys, err = s.accessKeyStore.List(ctx, account.ID)
		if err != nil {
			return nil, s.mapError(err)
		}
	}

	views = make([]AccessKeyView, 0, len(keys))
	for _, key := range keys {
		view, err := s.AccessKeyView(key)
		if err != nil {
			return nil, s.mapError(err)
		}
		views = append(views, view)
	}
	return views, nil
}

// SaveAccessKey creates or updates an access key. The mask is taken from its
// canonical string form.
func (s *Service) SaveAccessKey(ctx context.Context, req SaveAccessKeyRequest) (view AccessKeyView, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"account_id": req.AccountID,
		"key_id":     req.KeyID,
	}
	defer func() {
		fields["key_id"] = view.ID
		s.observeOperation(ctx, startedAt, "save_access_key", err, fields)
	}()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return AccessKeyView{}, s.mapError(fmt.Errorf("%w: access key name is required", ErrInvalidInput))
	}
	if req.Limit < -1 {
		return AccessKeyView{}, s.mapError(fmt.Errorf("%w: access key limit must be -1 or greater", ErrInvalidInput))
	}
	mask, err := s.codec.Decode(strings.TrimSpace(req.MaskString))
	if err != nil {
		return AccessKeyView{}, s.mapError(err)
	}
	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return AccessKeyView{}, s.mapError(err)
	}
	if s.accessKeyStore == nil {
		return AccessKeyView{}, s.mapError(errNotConfigured("access key store"))
	}

	var saved AccessKey
	if keyID := strings.TrimSpace(req.KeyID); keyID == "" {
		saved, err = s.accessKeyStore.Create(ctx, AccessKey{
			AccountID: account.ID,
			Name:      name,
			Expiry:    req.Expiry,
			Limit:     req.Limit,
			Mask:      mask,
		})
	} else {
		var existing AccessKey
		existing, err = s.accessKeyStore.Get(ctx, account.ID, keyID)
		if err != nil {
			return AccessKeyView{}, s.mapError(err)
		}
		existing.Name = name
		existing.Expiry = req.Expiry
		existing.Limit = req.Limit
		existing.Mask = mask
		saved, err = s.accessKeyStore.Update(ctx, existing)
	}
	if err != nil {
		return AccessKeyView{}, s.mapError(err)
	}
	view, err = s.AccessKeyView(saved)
	if err != nil {
		return AccessKeyView{}, s.mapError(err)
	}
	return view, nil
}

func (s *Service) DeleteAccessKey(ctx context.Context, req AccessKeyRequest) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"account_id": req.AccountID,
		"key_id":     req.KeyID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_access_key", err, fields)
	}()

	keyID := strings.TrimSpace(req.KeyID)
	if keyID == "" {
		return s.mapError(fmt.Errorf("%w: access key id is required", ErrInvalidInput))
	}
	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return s.mapError(err)
	}
	if s.accessKeyStore == nil {
		return s.mapError(errNotConfigured("access key store"))
	}
	if err := s.accessKeyStore.Delete(ctx, account.ID, keyID); err != nil {
		return s.mapError(err)
	}
	return nil
}

// AccessKeyView derives the mask value, canonical string, scope names and
// access credential of a key.
func (s *Service) AccessKeyView(key AccessKey) (AccessKeyView, error) {
	view := AccessKeyView{
		ID:         key.ID,
		AccountID:  key.AccountID,
		Name:       key.Name,
		Expiry:     key.Expiry,
		Limit:      key.Limit,
		MaskValue:  s.codec.Value(key.Mask),
		MaskString: s.codec.Encode(key.Mask),
		Scopes:     key.Mask.Scopes(s.catalog),
		CreatedAt:  key.CreatedAt,
		UpdatedAt:  key.UpdatedAt,
	}
	if s.credentialDeriver != nil {
		credential, err := s.credentialDeriver.DeriveCredential(key.ID, key.Mask, key.Expiry)
		if err != nil {
			return AccessKeyView{}, err
		}
		view.Credential = credential
	}
	return view, nil
}
