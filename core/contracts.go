package core

import (
	"context"
	"time"

	"github.com/goliatone/go-accountsync/accessmask"
	glog "github.com/goliatone/go-logger/glog"
)

type AccountStore interface {
	Create(ctx context.Context, in CreateAccountInput) (Account, error)
	// Get treats soft-deleted accounts as missing.
	Get(ctx context.Context, id string) (Account, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// CredentialStore persists both credential kinds on the account. Every set
// writes the secret and its identity in a single statement.
type CredentialStore interface {
	GetCredential(ctx context.Context, accountID string) (Credential, error)
	SetOAuthCredential(ctx context.Context, accountID string, cred OAuthCredential) (Credential, error)
	SetKeyCredential(ctx context.Context, accountID string, cred KeyCredential) (Credential, error)
	ClearCredential(ctx context.Context, accountID string, kind CredentialKind) (Credential, error)
}

// AuthStateStore holds single-use authorization states. Consume returns
// ErrAuthStateNotFound for unknown, consumed and expired tokens alike.
type AuthStateStore interface {
	Create(ctx context.Context, in AuthStateInput) (AuthState, error)
	Consume(ctx context.Context, token string) (AuthState, error)
}

type TrackerStore interface {
	// CreateOrGetUnfinished returns the unfinished tracker for scope,
	// creating one when none exists. created reports which happened.
	CreateOrGetUnfinished(ctx context.Context, scope TrackerScope) (tracker Tracker, created bool, err error)
	Get(ctx context.Context, id string) (Tracker, error)
	Start(ctx context.Context, id string, at time.Time) (Tracker, error)
	Finish(ctx context.Context, id string, in FinishTrackerInput) (Tracker, error)
	// ForceFinish is a no-op returning the stored tracker when already finished.
	ForceFinish(ctx context.Context, id string, at time.Time, detail string) (Tracker, error)
	History(ctx context.Context, scope TrackerScope, window HistoryWindow) ([]Tracker, error)
	ListUnfinished(ctx context.Context, filter UnfinishedFilter) ([]Tracker, error)
	ListFinishedSince(ctx context.Context, scope TrackerScope, since time.Time) ([]Tracker, error)
}

type AccessKeyStore interface {
	List(ctx context.Context, accountID string) ([]AccessKey, error)
	Get(ctx context.Context, accountID string, keyID string) (AccessKey, error)
	Create(ctx context.Context, key AccessKey) (AccessKey, error)
	Update(ctx context.Context, key AccessKey) (AccessKey, error)
	Delete(ctx context.Context, accountID string, keyID string) error
}

type AuthorizationRequest struct {
	CallbackURL string
	Scopes      []string
	State       string
}

type CodeExchange struct {
	Code        string
	CallbackURL string
}

// AuthorizationServer is the upstream OAuth2 authorization server.
type AuthorizationServer interface {
	AuthorizationURL(ctx context.Context, req AuthorizationRequest) (string, error)
	ExchangeCode(ctx context.Context, req CodeExchange) (TokenPair, error)
	VerifyCharacter(ctx context.Context, accessToken string) (CharacterInfo, error)
}

type IdentityResolver interface {
	ResolveCharacter(ctx context.Context, characterID int64) (CharacterAffiliation, error)
	ResolveCorporation(ctx context.Context, corporationID int64) (CorporationInfo, error)
}

type KeyCharacterLister interface {
	ListKeyCharacters(ctx context.Context, keyID int64, verificationCode string) ([]KeyCharacter, error)
}

type CapabilityChecker interface {
	RequireAdmin(ctx context.Context, caller Caller) error
	RequireAccountAccess(ctx context.Context, caller Caller, account Account) error
}

// CredentialDeriver derives the access credential of an access key.
type CredentialDeriver interface {
	DeriveCredential(keyID string, bits accessmask.Mask, expiry time.Time) (string, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type StoreProvider interface {
	AccountStore() AccountStore
	CredentialStore() CredentialStore
	TrackerStore() TrackerStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
