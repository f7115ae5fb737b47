package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
	"github.com/uptrace/bun"
)

// CredentialStore writes credentials onto their account row. Each write is
// a single UPDATE guarded by credential_version, so a concurrent writer
// surfaces as core.ErrInconsistentUpdate instead of a lost update.
type CredentialStore struct {
	db       *bun.DB
	accounts *AccountStore
	secrets  core.SecretProvider
}

func NewCredentialStore(accounts *AccountStore, secrets core.SecretProvider) (*CredentialStore, error) {
	if accounts == nil || accounts.db == nil {
		return nil, fmt.Errorf("sqlstore: account store is required")
	}
	return &CredentialStore{db: accounts.db, accounts: accounts, secrets: secrets}, nil
}

func (s *CredentialStore) GetCredential(ctx context.Context, accountID string) (core.Credential, error) {
	if s == nil || s.accounts == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := s.accounts.find(ctx, accountID)
	if err != nil {
		return core.Credential{}, err
	}
	return s.toCredential(ctx, record)
}

func (s *CredentialStore) SetOAuthCredential(ctx context.Context, accountID string, cred core.OAuthCredential) (core.Credential, error) {
	if s == nil || s.accounts == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := s.accounts.find(ctx, accountID)
	if err != nil {
		return core.Credential{}, err
	}
	if record.hasKey() && record.KeyCharacterID != cred.Identity.CharacterID {
		return core.Credential{}, fmt.Errorf("%w: key credential is bound to another character", core.ErrInconsistentUpdate)
	}
	accessToken, err := s.seal(ctx, cred.AccessToken)
	if err != nil {
		return core.Credential{}, err
	}
	refreshToken, err := s.seal(ctx, cred.RefreshToken)
	if err != nil {
		return core.Credential{}, err
	}
	now := time.Now().UTC()
	var expiresAt *time.Time
	if !cred.ExpiresAt.IsZero() {
		value := cred.ExpiresAt.UTC()
		expiresAt = &value
	}

	return s.versionedUpdate(ctx, record, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("oauth_access_token = ?", accessToken).
			Set("oauth_refresh_token = ?", refreshToken).
			Set("oauth_expires_at = ?", expiresAt).
			Set("oauth_scopes = ?", strings.TrimSpace(cred.Scopes)).
			Set("oauth_character_id = ?", cred.Identity.CharacterID).
			Set("oauth_character_name = ?", cred.Identity.CharacterName).
			Set("oauth_corporation_id = ?", cred.Identity.CorporationID).
			Set("oauth_corporation_name = ?", cred.Identity.CorporationName).
			Set("oauth_updated_at = ?", now).
			Set("updated_at = ?", now)
	})
}

func (s *CredentialStore) SetKeyCredential(ctx context.Context, accountID string, cred core.KeyCredential) (core.Credential, error) {
	if s == nil || s.accounts == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	if cred.KeyID <= 0 {
		return core.Credential{}, fmt.Errorf("%w: key id must be positive", core.ErrInvalidInput)
	}
	record, err := s.accounts.find(ctx, accountID)
	if err != nil {
		return core.Credential{}, err
	}
	if record.hasOAuth() && record.OAuthCharacterID != cred.Identity.CharacterID {
		return core.Credential{}, fmt.Errorf("%w: oauth credential is bound to another character", core.ErrInconsistentUpdate)
	}
	vcode, err := s.seal(ctx, cred.VerificationCode)
	if err != nil {
		return core.Credential{}, err
	}
	now := time.Now().UTC()

	return s.versionedUpdate(ctx, record, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("key_id = ?", cred.KeyID).
			Set("key_vcode = ?", vcode).
			Set("key_character_id = ?", cred.Identity.CharacterID).
			Set("key_character_name = ?", cred.Identity.CharacterName).
			Set("key_corporation_id = ?", cred.Identity.CorporationID).
			Set("key_corporation_name = ?", cred.Identity.CorporationName).
			Set("key_updated_at = ?", now).
			Set("updated_at = ?", now)
	})
}

func (s *CredentialStore) ClearCredential(ctx context.Context, accountID string, kind core.CredentialKind) (core.Credential, error) {
	if s == nil || s.accounts == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	if err := kind.Validate(); err != nil {
		return core.Credential{}, err
	}
	record, err := s.accounts.find(ctx, accountID)
	if err != nil {
		return core.Credential{}, err
	}
	now := time.Now().UTC()

	return s.versionedUpdate(ctx, record, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		if kind == core.CredentialKindKey {
			q = q.
				Set("key_id = 0").
				Set("key_vcode = NULL").
				Set("key_character_id = 0").
				Set("key_character_name = ''").
				Set("key_corporation_id = 0").
				Set("key_corporation_name = ''").
				Set("key_updated_at = NULL")
		} else {
			q = q.
				Set("oauth_access_token = NULL").
				Set("oauth_refresh_token = NULL").
				Set("oauth_expires_at = NULL").
				Set("oauth_scopes = ''").
				Set("oauth_character_id = 0").
				Set("oauth_character_name = ''").
				Set("oauth_corporation_id = 0").
				Set("oauth_corporation_name = ''").
				Set("oauth_updated_at = NULL")
		}
		return q.Set("updated_at = ?", now)
	})
}

func (s *CredentialStore) versionedUpdate(
	ctx context.Context,
	record *accountRecord,
	apply func(q *bun.UpdateQuery) *bun.UpdateQuery,
) (core.Credential, error) {
	query := s.db.NewUpdate().
		Model((*accountRecord)(nil)).
		Set("credential_version = credential_version + 1").
		Where("id = ?", record.ID).
		Where("deleted_at IS NULL").
		Where("credential_version = ?", record.CredentialVersion)
	res, err := apply(query).Exec(ctx)
	if err != nil {
		return core.Credential{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Credential{}, err
	}
	if affected == 0 {
		if _, findErr := s.accounts.find(ctx, record.ID); findErr != nil {
			return core.Credential{}, findErr
		}
		return core.Credential{}, fmt.Errorf("%w: account %q", core.ErrInconsistentUpdate, record.ID)
	}
	return s.GetCredential(ctx, record.ID)
}

func (s *CredentialStore) toCredential(ctx context.Context, record *accountRecord) (core.Credential, error) {
	out := core.Credential{AccountID: record.ID, Version: record.CredentialVersion}
	if record.hasKey() {
		vcode, err := s.open(ctx, record.KeyVCode)
		if err != nil {
			return core.Credential{}, err
		}
		key := core.KeyCredential{
			KeyID:            record.KeyID,
			VerificationCode: vcode,
			Identity:         record.keyIdentity(),
		}
		if record.KeyUpdatedAt != nil {
			key.UpdatedAt = record.KeyUpdatedAt.UTC()
		}
		out.Key = &key
	}
	if record.hasOAuth() {
		accessToken, err := s.open(ctx, record.OAuthAccessToken)
		if err != nil {
			return core.Credential{}, err
		}
		refreshToken, err := s.open(ctx, record.OAuthRefreshToken)
		if err != nil {
			return core.Credential{}, err
		}
		oauth := core.OAuthCredential{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			Scopes:       record.OAuthScopes,
			Identity:     record.oauthIdentity(),
		}
		if record.OAuthExpiresAt != nil {
			oauth.ExpiresAt = record.OAuthExpiresAt.UTC()
		}
		if record.OAuthUpdatedAt != nil {
			oauth.UpdatedAt = record.OAuthUpdatedAt.UTC()
		}
		out.OAuth = &oauth
	}
	return out, nil
}

func (s *CredentialStore) seal(ctx context.Context, secret string) ([]byte, error) {
	if secret == "" {
		return nil, nil
	}
	if s.secrets == nil {
		return []byte(secret), nil
	}
	sealed, err := s.secrets.Encrypt(ctx, []byte(secret))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: encrypt credential: %w", err)
	}
	return sealed, nil
}

func (s *CredentialStore) open(ctx context.Context, sealed []byte) (string, error) {
	if len(sealed) == 0 {
		return "", nil
	}
	if s.secrets == nil {
		return string(sealed), nil
	}
	plain, err := s.secrets.Decrypt(ctx, sealed)
	if err != nil {
		return "", fmt.Errorf("sqlstore: decrypt credential: %w", err)
	}
	return string(plain), nil
}
