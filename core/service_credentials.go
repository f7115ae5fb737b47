package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type InitiateExchangeRequest struct {
	Caller    Caller
	AccountID string
	Scopes    []string
}

type InitiateExchangeResult struct {
	URL       string
	State     string
	ExpiresAt time.Time
}

type CompleteExchangeRequest struct {
	State string
	Code  string
}

type CompleteExchangeResult struct {
	AccountID   string
	Credential  Credential
	RedirectURL string
}

type SetKeyCredentialRequest struct {
	Caller           Caller
	AccountID        string
	KeyID            int64
	VerificationCode string
	CharacterID      int64
}

type ClearCredentialRequest struct {
	Caller    Caller
	AccountID string
	Kind      CredentialKind
}

// InitiateCredentialExchange starts an authorization-code flow for an
// account and returns the URL the user must visit.
func (s *Service) InitiateCredentialExchange(
	ctx context.Context,
	req InitiateExchangeRequest,
) (result InitiateExchangeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"account_id": req.AccountID,
		"scopes":     len(req.Scopes),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "initiate_credential_exchange", err, fields)
	}()

	scopes, err := s.normalizeScopes(req.Scopes)
	if err != nil {
		return InitiateExchangeResult{}, s.mapError(err)
	}
	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return InitiateExchangeResult{}, s.mapError(err)
	}
	if s.authServer == nil {
		return InitiateExchangeResult{}, s.mapError(fmt.Errorf("%w: authorization server is not configured", ErrUpstreamUnavailable))
	}

	state, err := s.authStateStore.Create(ctx, AuthStateInput{
		UserID:    req.Caller.UserID,
		AccountID: account.ID,
		Scopes:    strings.Join(scopes, " "),
		TTL:       s.config.AuthState.TTL,
	})
	if err != nil {
		return InitiateExchangeResult{}, s.mapError(err)
	}

	url, err := s.authServer.AuthorizationURL(ctx, AuthorizationRequest{
		CallbackURL: s.config.Upstream.CallbackURL(),
		Scopes:      scopes,
		State:       state.Token,
	})
	if err != nil {
		return InitiateExchangeResult{}, s.mapError(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
	}
	return InitiateExchangeResult{
		URL:       url,
		State:     state.Token,
		ExpiresAt: state.ExpiresAt,
	}, nil
}

// CompleteCredentialExchange finishes a flow started by
// InitiateCredentialExchange. Each step is terminal on failure and the state
// is spent as soon as it is read.
func (s *Service) CompleteCredentialExchange(
	ctx context.Context,
	req CompleteExchangeRequest,
) (result CompleteExchangeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "complete_credential_exchange", err, fields)
	}()

	token := strings.TrimSpace(req.State)
	if token == "" {
		return CompleteExchangeResult{}, s.mapError(ErrInvalidOrExpiredState)
	}
	state, err := s.authStateStore.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAuthStateNotFound) {
			return CompleteExchangeResult{}, s.mapError(ErrInvalidOrExpiredState)
		}
		return CompleteExchangeResult{}, s.mapError(err)
	}
	fields["account_id"] = state.AccountID
	if s.authServer == nil {
		return CompleteExchangeResult{}, s.mapError(fmt.Errorf("%w: authorization server is not configured", ErrTokenExchangeFailed))
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return CompleteExchangeResult{}, s.mapError(fmt.Errorf("%w: authorization code is missing", ErrTokenExchangeFailed))
	}
	exchangeCtx, cancel := s.upstreamContext(ctx)
	tokens, err := s.authServer.ExchangeCode(exchangeCtx, CodeExchange{
		Code:        code,
		CallbackURL: s.config.Upstream.CallbackURL(),
	})
	cancel()
	if err != nil {
		return CompleteExchangeResult{}, s.mapError(fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err))
	}
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return CompleteExchangeResult{}, s.mapError(fmt.Errorf("%w: empty access token", ErrTokenExchangeFailed))
	}

	identity, err := s.resolveOAuthIdentity(ctx, tokens.AccessToken)
	if err != nil {
		return CompleteExchangeResult{}, s.mapError(err)
	}
	fields["character_id"] = identity.CharacterID

	if s.credentialStore == nil {
		return CompleteExchangeResult{}, s.mapError(errNotConfigured("credential store"))
	}
	credential, err := s.credentialStore.SetOAuthCredential(ctx, state.AccountID, OAuthCredential{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    s.clock().Add(tokens.ExpiresIn),
		Scopes:       state.Scopes,
		Identity:     identity,
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return CompleteExchangeResult{}, s.mapError(fmt.Errorf("%w: account %q", ErrAccountVanished, state.AccountID))
		}
		return CompleteExchangeResult{}, s.mapError(err)
	}
	return CompleteExchangeResult{
		AccountID:   state.AccountID,
		Credential:  credential.Redacted(),
		RedirectURL: s.config.Upstream.CompletionURL(),
	}, nil
}

func (s *Service) resolveOAuthIdentity(ctx context.Context, accessToken string) (Identity, error) {
	verifyCtx, cancel := s.upstreamContext(ctx)
	defer cancel()

	character, err := s.authServer.VerifyCharacter(verifyCtx, accessToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: verify character: %v", ErrIdentityResolutionFailed, err)
	}
	if character.CharacterID <= 0 || strings.TrimSpace(character.CharacterName) == "" {
		return Identity{}, fmt.Errorf("%w: verify response is missing character data", ErrIdentityResolutionFailed)
	}
	if s.identityResolver == nil {
		return Identity{}, fmt.Errorf("%w: identity resolver is not configured", ErrIdentityResolutionFailed)
	}
	affiliation, err := s.identityResolver.ResolveCharacter(verifyCtx, character.CharacterID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: resolve character %d: %v", ErrIdentityResolutionFailed, character.CharacterID, err)
	}
	corporation, err := s.identityResolver.ResolveCorporation(verifyCtx, affiliation.CorporationID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: resolve corporation %d: %v", ErrIdentityResolutionFailed, affiliation.CorporationID, err)
	}
	return Identity{
		CharacterID:     character.CharacterID,
		CharacterName:   strings.TrimSpace(character.CharacterName),
		CorporationID:   corporation.CorporationID,
		CorporationName: strings.TrimSpace(corporation.Name),
	}, nil
}

// SetKeyCredential stores a key and verification code for a character that
// the key can reach.
func (s *Service) SetKeyCredential(ctx context.Context, req SetKeyCredentialRequest) (credential Credential, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"account_id":   req.AccountID,
		"key_id":       req.KeyID,
		"character_id": req.CharacterID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "set_key_credential", err, fields)
	}()

	switch {
	case req.KeyID <= 0:
		return Credential{}, s.mapError(fmt.Errorf("%w: key id is required", ErrInvalidInput))
	case strings.TrimSpace(req.VerificationCode) == "":
		return Credential{}, s.mapError(fmt.Errorf("%w: verification code is required", ErrInvalidInput))
	case req.CharacterID <= 0:
		return Credential{}, s.mapError(fmt.Errorf("%w: character id is required", ErrInvalidInput))
	}
	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	if s.keyCharacterLister == nil {
		return Credential{}, s.mapError(fmt.Errorf("%w: key character lister is not configured", ErrUpstreamUnavailable))
	}

	lookupCtx, cancel := s.upstreamContext(ctx)
	characters, err := s.keyCharacterLister.ListKeyCharacters(lookupCtx, req.KeyID, strings.TrimSpace(req.VerificationCode))
	cancel()
	if err != nil {
		return Credential{}, s.mapError(fmt.Errorf("%w: list key characters: %v", ErrIdentityResolutionFailed, err))
	}
	var identity Identity
	for _, character := range characters {
		if character.CharacterID == req.CharacterID {
			identity = Identity{
				CharacterID:     character.CharacterID,
				CharacterName:   character.CharacterName,
				CorporationID:   character.CorporationID,
				CorporationName: character.CorporationName,
			}
			break
		}
	}
	if identity.CharacterID == 0 {
		return Credential{}, s.mapError(fmt.Errorf("%w: character %d", ErrCharacterNotOnKey, req.CharacterID))
	}

	if s.credentialStore == nil {
		return Credential{}, s.mapError(errNotConfigured("credential store"))
	}
	credential, err = s.credentialStore.SetKeyCredential(ctx, account.ID, KeyCredential{
		KeyID:            req.KeyID,
		VerificationCode: strings.TrimSpace(req.VerificationCode),
		Identity:         identity,
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Credential{}, s.mapError(fmt.Errorf("%w: account %q", ErrAccountVanished, account.ID))
		}
		return Credential{}, s.mapError(err)
	}
	return credential.Redacted(), nil
}

func (s *Service) ClearCredential(ctx context.Context, req ClearCredentialRequest) (credential Credential, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"account_id": req.AccountID,
		"kind":       string(req.Kind),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "clear_credential", err, fields)
	}()

	if err := req.Kind.Validate(); err != nil {
		return Credential{}, s.mapError(err)
	}
	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	if s.credentialStore == nil {
		return Credential{}, s.mapError(errNotConfigured("credential store"))
	}
	credential, err = s.credentialStore.ClearCredential(ctx, account.ID, req.Kind)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	return credential.Redacted(), nil
}

// GetCredential returns the account credentials with secrets removed.
func (s *Service) GetCredential(ctx context.Context, req AccountRequest) (credential Credential, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": req.AccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_credential", err, fields)
	}()

	account, err := s.loadAccount(ctx, req.Caller, req.AccountID)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	if s.credentialStore == nil {
		return Credential{}, s.mapError(errNotConfigured("credential store"))
	}
	credential, err = s.credentialStore.GetCredential(ctx, account.ID)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	return credential.Redacted(), nil
}

func (s *Service) normalizeScopes(requested []string) ([]string, error) {
	scopes := make([]string, 0, len(requested))
	seen := map[string]struct{}{}
	for _, raw := range requested {
		for _, scope := range strings.Fields(raw) {
			if s.config.AuthState.RequireCatalogScopes {
				if _, ok := s.catalog.Index(scope); !ok {
					return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, scope)
				}
			}
			if _, dup := seen[scope]; dup {
				continue
			}
			seen[scope] = struct{}{}
			scopes = append(scopes, scope)
		}
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: at least one scope is required", ErrInvalidInput)
	}
	return scopes, nil
}
