package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/accessmask"
	"github.com/goliatone/go-accountsync/catalog"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service coordinates credential exchange, synchronization trackers and
// access keys. Every public operation returns errors already mapped to the
// go-errors envelope.
type Service struct {
	config             Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	persistenceClient  any
	repositoryFactory  any
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	capabilityChecker  CapabilityChecker
	catalog            *catalog.Catalog
	codec              accessmask.Codec
	authServer         AuthorizationServer
	identityResolver   IdentityResolver
	keyCharacterLister KeyCharacterLister
	credentialDeriver  CredentialDeriver
	jobEnqueuer        JobEnqueuer
	accountStore       AccountStore
	credentialStore    CredentialStore
	authStateStore     AuthStateStore
	trackerStore       TrackerStore
	accessKeyStore     AccessKeyStore
	now                func() time.Time
}

type ServiceDependencies struct {
	Logger             Logger
	LoggerProvider     LoggerProvider
	MetricsRecorder    MetricsRecorder
	ErrorFactory       ErrorFactory
	ErrorMapper        ErrorMapper
	PersistenceClient  any
	RepositoryFactory  any
	ConfigProvider     ConfigProvider
	OptionsResolver    OptionsResolver
	CapabilityChecker  CapabilityChecker
	Catalog            *catalog.Catalog
	AuthServer         AuthorizationServer
	IdentityResolver   IdentityResolver
	KeyCharacterLister KeyCharacterLister
	CredentialDeriver  CredentialDeriver
	JobEnqueuer        JobEnqueuer
	AccountStore       AccountStore
	CredentialStore    CredentialStore
	AuthStateStore     AuthStateStore
	TrackerStore       TrackerStore
	AccessKeyStore     AccessKeyStore
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("accountsync", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("accountsync"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.capabilityChecker == nil {
		builder.capabilityChecker = CallerCapabilityChecker{}
	}
	if builder.catalog == nil {
		builder.catalog = catalog.Default()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if err := resolveRepositoryStores(&builder); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if builder.authStateStore == nil {
		builder.authStateStore = NewMemoryAuthStateStore()
	}

	return &Service{
		config:             finalConfig,
		logger:             logger,
		loggerProvider:     provider,
		metricsRecorder:    builder.metricsRecorder,
		errorFactory:       builder.errorFactory,
		errorMapper:        builder.errorMapper,
		persistenceClient:  builder.persistenceClient,
		repositoryFactory:  builder.repositoryFactory,
		configProvider:     builder.configProvider,
		optionsResolver:    builder.optionsResolver,
		capabilityChecker:  builder.capabilityChecker,
		catalog:            builder.catalog,
		codec:              accessmask.CodecFor(builder.catalog),
		authServer:         builder.authServer,
		identityResolver:   builder.identityResolver,
		keyCharacterLister: builder.keyCharacterLister,
		credentialDeriver:  builder.credentialDeriver,
		jobEnqueuer:        builder.jobEnqueuer,
		accountStore:       builder.accountStore,
		credentialStore:    builder.credentialStore,
		authStateStore:     builder.authStateStore,
		trackerStore:       builder.trackerStore,
		accessKeyStore:     builder.accessKeyStore,
		now:                time.Now,
	}, nil
}

func resolveRepositoryStores(builder *serviceBuilder) error {
	if builder.repositoryFactory == nil {
		return nil
	}
	var provider StoreProvider
	if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
		if builder.accountStore == nil || builder.credentialStore == nil || builder.trackerStore == nil {
			built, err := storeFactory.BuildStores(builder.persistenceClient)
			if err != nil {
				return err
			}
			provider = built
		}
	} else if direct, ok := builder.repositoryFactory.(StoreProvider); ok {
		provider = direct
	}
	if provider != nil {
		if builder.accountStore == nil {
			builder.accountStore = provider.AccountStore()
		}
		if builder.credentialStore == nil {
			builder.credentialStore = provider.CredentialStore()
		}
		if builder.trackerStore == nil {
			builder.trackerStore = provider.TrackerStore()
		}
	}
	if builder.authStateStore == nil {
		if optional, ok := builder.repositoryFactory.(interface{ AuthStateStore() AuthStateStore }); ok {
			builder.authStateStore = optional.AuthStateStore()
		}
	}
	if builder.accessKeyStore == nil {
		if optional, ok := builder.repositoryFactory.(interface{ AccessKeyStore() AccessKeyStore }); ok {
			builder.accessKeyStore = optional.AccessKeyStore()
		}
	}
	return nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Catalog() *catalog.Catalog {
	if s == nil {
		return nil
	}
	return s.catalog
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:             s.logger,
		LoggerProvider:     s.loggerProvider,
		MetricsRecorder:    s.metricsRecorder,
		ErrorFactory:       s.errorFactory,
		ErrorMapper:        s.errorMapper,
		PersistenceClient:  s.persistenceClient,
		RepositoryFactory:  s.repositoryFactory,
		ConfigProvider:     s.configProvider,
		OptionsResolver:    s.optionsResolver,
		CapabilityChecker:  s.capabilityChecker,
		Catalog:            s.catalog,
		AuthServer:         s.authServer,
		IdentityResolver:   s.identityResolver,
		KeyCharacterLister: s.keyCharacterLister,
		CredentialDeriver:  s.credentialDeriver,
		JobEnqueuer:        s.jobEnqueuer,
		AccountStore:       s.accountStore,
		CredentialStore:    s.credentialStore,
		AuthStateStore:     s.authStateStore,
		TrackerStore:       s.trackerStore,
		AccessKeyStore:     s.accessKeyStore,
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// upstreamContext bounds a single upstream call.
func (s *Service) upstreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.config.Upstream.Timeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// loadAccount resolves an account the caller may act on.
func (s *Service) loadAccount(ctx context.Context, caller Caller, accountID string) (Account, error) {
	if caller.Anonymous() {
		return Account{}, ErrNotAuthorized
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Account{}, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if s.accountStore == nil {
		return Account{}, errNotConfigured("account store")
	}
	account, err := s.accountStore.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if err := s.capabilityChecker.RequireAccountAccess(ctx, caller, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

func errNotConfigured(name string) error {
	return fmt.Errorf("core: %s is not configured", name)
}
