package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/accessmask"
)

// NoCursor disables the history cursor.
const NoCursor int64 = -1

// ForceFinishDetail is recorded on trackers closed by an administrator.
const ForceFinishDetail = "Tracker forced to finish by administrator request."

// Caller is the authenticated principal behind an operation.
type Caller struct {
	UserID string
	Admin  bool
}

func (c Caller) Anonymous() bool {
	return strings.TrimSpace(c.UserID) == ""
}

type Account struct {
	ID        string
	UserID    string
	Name      string
	Character bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type CreateAccountInput struct {
	UserID    string
	Name      string
	Character bool
}

// Identity is the upstream character and corporation a credential acts for.
type Identity struct {
	CharacterID     int64  `json:"character_id"`
	CharacterName   string `json:"character_name"`
	CorporationID   int64  `json:"corporation_id"`
	CorporationName string `json:"corporation_name"`
}

func (i Identity) IsZero() bool {
	return i.CharacterID == 0 && i.CorporationID == 0 &&
		strings.TrimSpace(i.CharacterName) == "" && strings.TrimSpace(i.CorporationName) == ""
}

type KeyCredential struct {
	KeyID            int64     `json:"key_id"`
	VerificationCode string    `json:"verification_code,omitempty"`
	Identity         Identity  `json:"identity"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type OAuthCredential struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scopes       string    `json:"scopes"`
	Identity     Identity  `json:"identity"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credential is the pair of credential kinds an account can hold. Either
// kind may be absent.
type Credential struct {
	AccountID string           `json:"account_id"`
	Key       *KeyCredential   `json:"key,omitempty"`
	OAuth     *OAuthCredential `json:"oauth,omitempty"`
	Version   int              `json:"version"`
}

// Redacted drops secrets so the credential can leave the service.
func (c Credential) Redacted() Credential {
	out := c
	if c.Key != nil {
		key := *c.Key
		key.VerificationCode = ""
		out.Key = &key
	}
	if c.OAuth != nil {
		oauth := *c.OAuth
		oauth.AccessToken = ""
		oauth.RefreshToken = ""
		out.OAuth = &oauth
	}
	return out
}

type CredentialKind string

const (
	CredentialKindKey   CredentialKind = "key"
	CredentialKindOAuth CredentialKind = "oauth"
)

func (k CredentialKind) Validate() error {
	switch k {
	case CredentialKindKey, CredentialKindOAuth:
		return nil
	default:
		return fmt.Errorf("%w: unknown credential kind %q", ErrInvalidInput, k)
	}
}

type TrackerFamily string

const (
	TrackerFamilyAccount   TrackerFamily = "account"
	TrackerFamilyReference TrackerFamily = "reference"
)

// DefaultReferenceEndpoint is the endpoint class used when reference data
// is synchronized as a single unit.
const DefaultReferenceEndpoint = "reference"

type TrackerStatus string

const (
	TrackerStatusOK      TrackerStatus = "OK"
	TrackerStatusWarning TrackerStatus = "WARNING"
	TrackerStatusError   TrackerStatus = "ERROR"
)

func (s TrackerStatus) Validate() error {
	switch s {
	case TrackerStatusOK, TrackerStatusWarning, TrackerStatusError:
		return nil
	default:
		return fmt.Errorf("%w: unknown tracker status %q", ErrInvalidInput, s)
	}
}

type TrackerState string

const (
	TrackerStateUnstarted TrackerState = "UNSTARTED"
	TrackerStateStarted   TrackerState = "STARTED"
	TrackerStateFinished  TrackerState = "FINISHED"
)

// TrackerScope identifies the unit that may have at most one unfinished
// tracker.
type TrackerScope struct {
	Family    TrackerFamily
	AccountID string
	Endpoint  string
}

func (s TrackerScope) Normalize() TrackerScope {
	s.AccountID = strings.TrimSpace(s.AccountID)
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	if s.Family == "" {
		s.Family = TrackerFamilyAccount
	}
	if s.Family == TrackerFamilyReference {
		s.AccountID = ""
		if s.Endpoint == "" {
			s.Endpoint = DefaultReferenceEndpoint
		}
	}
	return s
}

func (s TrackerScope) Validate() error {
	switch s.Family {
	case TrackerFamilyAccount:
		if strings.TrimSpace(s.AccountID) == "" {
			return fmt.Errorf("%w: account id is required for account trackers", ErrInvalidInput)
		}
	case TrackerFamilyReference:
	default:
		return fmt.Errorf("%w: unknown tracker family %q", ErrInvalidInput, s.Family)
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidInput)
	}
	return nil
}

// Key is the value guarded by the single-flight uniqueness constraint.
func (s TrackerScope) Key() string {
	return string(s.Family) + ":" + s.AccountID + ":" + s.Endpoint
}

type Tracker struct {
	ID        string
	Family    TrackerFamily
	AccountID string
	Endpoint  string
	SyncStart *time.Time
	SyncEnd   *time.Time
	Status    TrackerStatus
	Detail    string
	CreatedAt time.Time
}

func (t Tracker) State() TrackerState {
	switch {
	case t.SyncEnd != nil:
		return TrackerStateFinished
	case t.SyncStart != nil:
		return TrackerStateStarted
	default:
		return TrackerStateUnstarted
	}
}

func (t Tracker) Finished() bool {
	return t.SyncEnd != nil
}

func (t Tracker) Scope() TrackerScope {
	return TrackerScope{Family: t.Family, AccountID: t.AccountID, Endpoint: t.Endpoint}
}

type FinishTrackerInput struct {
	Status TrackerStatus
	Detail string
	At     time.Time
}

type UnfinishedFilter struct {
	Family      TrackerFamily
	StartedOnly bool
}

// HistoryWindow selects started trackers with a start strictly before
// Before, newest first. Before is Unix milliseconds or NoCursor.
type HistoryWindow struct {
	Before int64
	Limit  int
}

type EndpointStats struct {
	Endpoint string `json:"endpoint"`
	Attempts int    `json:"attempts"`
	Failures int    `json:"failures"`
}

type AuthState struct {
	Token     string
	UserID    string
	AccountID string
	Scopes    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s AuthState) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type AuthStateInput struct {
	UserID    string
	AccountID string
	Scopes    string
	TTL       time.Duration
}

// AccessKey is a delegated capability on an account. Mask is authoritative;
// everything in AccessKeyView is derived from it on read.
type AccessKey struct {
	ID        string
	AccountID string
	Name      string
	Expiry    time.Time
	Limit     int64
	Mask      accessmask.Mask
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AccessKeyView struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Name       string    `json:"name"`
	Expiry     time.Time `json:"expiry"`
	Limit      int64     `json:"limit"`
	MaskValue  uint64    `json:"mask_value"`
	MaskString string    `json:"mask_string"`
	Scopes     []string  `json:"scopes"`
	Credential string    `json:"credential"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

type CharacterInfo struct {
	CharacterID   int64
	CharacterName string
}

type CharacterAffiliation struct {
	CharacterID   int64
	CorporationID int64
}

type CorporationInfo struct {
	CorporationID int64
	Name          string
}

// KeyCharacter is a character reachable through a key credential.
type KeyCharacter struct {
	CharacterID     int64
	CharacterName   string
	CorporationID   int64
	CorporationName string
}

func msTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
