package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type CreateAccountRequest struct {
	Caller    Caller
	Name      string
	Character bool
}

type AccountRequest struct {
	Caller    Caller
	AccountID string
}

func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (account Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id": req.Caller.UserID,
	}
	defer func() {
		fields["account_id"] = account.ID
		s.observeOperation(ctx, startedAt, "create_account", err, fields)
	}()

	if req.Caller.Anonymous() {
		return Account{}, s.mapError(ErrNotAuthorized)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Account{}, s.mapError(fmt.Errorf("%w: account name is required", ErrInvalidInput))
	}
	if s.accountStore == nil {
		return Account{}, s.mapError(errNotConfigured("account store"))
	}
	account, err = s.accountStore.Create(ctx, CreateAccountInput{
		UserID:    req.Caller.UserID,
		Name:      name,
		Character: req.Character,
	})
	if err != nil {
		return Account{}, s.mapError(err)
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, req AccountRequest) (account Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": req.AccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_account", err, fields)
	}()

	account, err = s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	return account, nil
}

// DeleteAccount soft-deletes the account. In-flight credential exchanges for
// it fail with ErrAccountVanished.
func (s *Service) DeleteAccount(ctx context.Context, req AccountRequest) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": req.AccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_account", err, fields)
	}()

	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return s.mapError(err)
	}
	if err := s.accountStore.SoftDelete(ctx, account.ID); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) RestoreAccount(ctx context.Context, req AccountRequest) (account Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": req.AccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "restore_account", err, fields)
	}()

	if err := s.capabilityChecker.RequireAdmin(ctx, req.Caller); err != nil {
		return Account{}, s.mapError(err)
	}
	if s.accountStore == nil {
		return Account{}, s.mapError(errNotConfigured("account store"))
	}
	if err := s.accountStore.Restore(ctx, strings.TrimSpace(req.AccountID)); err != nil {
		return Account{}, s.mapError(err)
	}
	account, err = s.accountStore.Get(ctx, strings.TrimSpace(req.AccountID))
	if err != nil {
		return Account{}, s.mapError(err)
	}
	return account, nil
}
