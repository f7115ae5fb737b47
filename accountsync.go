// Package accountsync coordinates per-account synchronization against a
// rate-limited upstream API and manages the credentials that make that
// access possible.
package accountsync

import "github.com/goliatone/go-accountsync/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Caller = core.Caller
type Account = core.Account
type Credential = core.Credential
type KeyCredential = core.KeyCredential
type OAuthCredential = core.OAuthCredential
type Tracker = core.Tracker
type TrackerScope = core.TrackerScope
type TrackerStatus = core.TrackerStatus
type AccessKey = core.AccessKey
type AccessKeyView = core.AccessKeyView

type AccountStore = core.AccountStore
type CredentialStore = core.CredentialStore
type AuthStateStore = core.AuthStateStore
type TrackerStore = core.TrackerStore
type AccessKeyStore = core.AccessKeyStore
type AuthorizationServer = core.AuthorizationServer
type IdentityResolver = core.IdentityResolver
type KeyCharacterLister = core.KeyCharacterLister
type CapabilityChecker = core.CapabilityChecker
type SecretProvider = core.SecretProvider

type InitiateExchangeRequest = core.InitiateExchangeRequest
type CompleteExchangeRequest = core.CompleteExchangeRequest
type HistoryRequest = core.HistoryRequest

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorFactory        = core.WithErrorFactory
	WithErrorMapper         = core.WithErrorMapper
	WithPersistenceClient   = core.WithPersistenceClient
	WithRepositoryFactory   = core.WithRepositoryFactory
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithCapabilityChecker   = core.WithCapabilityChecker
	WithCatalog             = core.WithCatalog
	WithAuthorizationServer = core.WithAuthorizationServer
	WithIdentityResolver    = core.WithIdentityResolver
	WithKeyCharacterLister  = core.WithKeyCharacterLister
	WithCredentialDeriver   = core.WithCredentialDeriver
	WithJobEnqueuer         = core.WithJobEnqueuer
	WithAccountStore        = core.WithAccountStore
	WithCredentialStore     = core.WithCredentialStore
	WithAuthStateStore      = core.WithAuthStateStore
	WithTrackerStore        = core.WithTrackerStore
	WithAccessKeyStore      = core.WithAccessKeyStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
