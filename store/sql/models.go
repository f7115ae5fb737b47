package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/accessmask"
	"github.com/goliatone/go-accountsync/core"
	"github.com/uptrace/bun"
)

// accountRecord carries the account and both credential kinds. Secrets are
// stored encrypted.
type accountRecord struct {
	bun.BaseModel `bun:"table:sync_accounts,alias:sa"`

	ID          string `bun:"id,pk"`
	UserID      string `bun:"user_id,notnull"`
	Name        string `bun:"name,notnull"`
	IsCharacter bool   `bun:"is_character,notnull"`

	KeyID              int64      `bun:"key_id,notnull"`
	KeyVCode           []byte     `bun:"key_vcode"`
	KeyCharacterID     int64      `bun:"key_character_id,notnull"`
	KeyCharacterName   string     `bun:"key_character_name,notnull"`
	KeyCorporationID   int64      `bun:"key_corporation_id,notnull"`
	KeyCorporationName string     `bun:"key_corporation_name,notnull"`
	KeyUpdatedAt       *time.Time `bun:"key_updated_at,nullzero"`

	OAuthAccessToken     []byte     `bun:"oauth_access_token"`
	OAuthRefreshToken    []byte     `bun:"oauth_refresh_token"`
	OAuthExpiresAt       *time.Time `bun:"oauth_expires_at,nullzero"`
	OAuthScopes          string     `bun:"oauth_scopes,notnull"`
	OAuthCharacterID     int64      `bun:"oauth_character_id,notnull"`
	OAuthCharacterName   string     `bun:"oauth_character_name,notnull"`
	OAuthCorporationID   int64      `bun:"oauth_corporation_id,notnull"`
	OAuthCorporationName string     `bun:"oauth_corporation_name,notnull"`
	OAuthUpdatedAt       *time.Time `bun:"oauth_updated_at,nullzero"`

	CredentialVersion int        `bun:"credential_version,notnull"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt         *time.Time `bun:"deleted_at,nullzero"`
}

type authStateRecord struct {
	bun.BaseModel `bun:"table:sync_auth_states,alias:sas"`

	ID        string    `bun:"id,pk"`
	Token     string    `bun:"token,notnull"`
	UserID    string    `bun:"user_id,notnull"`
	AccountID string    `bun:"account_id,notnull"`
	Scopes    string    `bun:"scopes,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ExpiresAt int64     `bun:"expires_at,notnull"`
}

// trackerRecord stores start and end as Unix milliseconds. UnfinishedKey is
// set until the tracker finishes and is guarded by a unique index.
type trackerRecord struct {
	bun.BaseModel `bun:"table:sync_trackers,alias:st"`

	ID            string    `bun:"id,pk"`
	Family        string    `bun:"family,notnull"`
	AccountID     string    `bun:"account_id,notnull"`
	Endpoint      string    `bun:"endpoint,notnull"`
	SyncStart     *int64    `bun:"sync_start"`
	SyncEnd       *int64    `bun:"sync_end"`
	Status        string    `bun:"status,notnull"`
	Detail        string    `bun:"detail,notnull"`
	UnfinishedKey *string   `bun:"unfinished_key"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type accessKeyRecord struct {
	bun.BaseModel `bun:"table:sync_access_keys,alias:sak"`

	ID        string     `bun:"id,pk"`
	AccountID string     `bun:"account_id,notnull"`
	Name      string     `bun:"name,notnull"`
	Expiry    *time.Time `bun:"expiry,nullzero"`
	Limit     int64      `bun:"access_limit,notnull"`
	Mask      []byte     `bun:"mask,notnull"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *accountRecord) toDomain() core.Account {
	if r == nil {
		return core.Account{}
	}
	return core.Account{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Character: r.IsCharacter,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		DeletedAt: cloneTimePointer(r.DeletedAt),
	}
}

func (r *accountRecord) keyIdentity() core.Identity {
	return core.Identity{
		CharacterID:     r.KeyCharacterID,
		CharacterName:   r.KeyCharacterName,
		CorporationID:   r.KeyCorporationID,
		CorporationName: r.KeyCorporationName,
	}
}

func (r *accountRecord) oauthIdentity() core.Identity {
	return core.Identity{
		CharacterID:     r.OAuthCharacterID,
		CharacterName:   r.OAuthCharacterName,
		CorporationID:   r.OAuthCorporationID,
		CorporationName: r.OAuthCorporationName,
	}
}

func (r *accountRecord) hasKey() bool {
	return r != nil && r.KeyID > 0
}

func (r *accountRecord) hasOAuth() bool {
	return r != nil && len(r.OAuthAccessToken) > 0
}

func newTrackerRecord(id string, scope core.TrackerScope, now time.Time) *trackerRecord {
	key := scope.Key()
	return &trackerRecord{
		ID:            id,
		Family:        string(scope.Family),
		AccountID:     scope.AccountID,
		Endpoint:      scope.Endpoint,
		UnfinishedKey: &key,
		CreatedAt:     now,
	}
}

func (r *trackerRecord) toDomain() core.Tracker {
	if r == nil {
		return core.Tracker{}
	}
	return core.Tracker{
		ID:        r.ID,
		Family:    core.TrackerFamily(r.Family),
		AccountID: r.AccountID,
		Endpoint:  r.Endpoint,
		SyncStart: fromMillis(r.SyncStart),
		SyncEnd:   fromMillis(r.SyncEnd),
		Status:    core.TrackerStatus(r.Status),
		Detail:    r.Detail,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r *authStateRecord) toDomain() core.AuthState {
	if r == nil {
		return core.AuthState{}
	}
	return core.AuthState{
		Token:     r.Token,
		UserID:    r.UserID,
		AccountID: r.AccountID,
		Scopes:    r.Scopes,
		CreatedAt: r.CreatedAt.UTC(),
		ExpiresAt: time.UnixMilli(r.ExpiresAt).UTC(),
	}
}

func newAccessKeyRecord(key core.AccessKey, now time.Time) *accessKeyRecord {
	record := &accessKeyRecord{
		ID:        strings.TrimSpace(key.ID),
		AccountID: strings.TrimSpace(key.AccountID),
		Name:      strings.TrimSpace(key.Name),
		Limit:     key.Limit,
		Mask:      []byte(key.Mask.Clone()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if record.Mask == nil {
		record.Mask = []byte{}
	}
	if !key.Expiry.IsZero() {
		expiry := key.Expiry.UTC()
		record.Expiry = &expiry
	}
	return record
}

func (r *accessKeyRecord) toDomain() core.AccessKey {
	if r == nil {
		return core.AccessKey{}
	}
	key := core.AccessKey{
		ID:        r.ID,
		AccountID: r.AccountID,
		Name:      r.Name,
		Limit:     r.Limit,
		Mask:      accessmask.Mask(append([]byte(nil), r.Mask...)),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.Expiry != nil {
		key.Expiry = r.Expiry.UTC()
	}
	return key
}

func toMillis(at time.Time) int64 {
	return at.UTC().UnixMilli()
}

func fromMillis(value *int64) *time.Time {
	if value == nil {
		return nil
	}
	at := time.UnixMilli(*value).UTC()
	return &at
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
