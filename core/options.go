package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-accountsync/catalog"
	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig       Config
	logger              Logger
	loggerProvider      LoggerProvider
	metricsRecorder     MetricsRecorder
	errorFactory        ErrorFactory
	errorMapper         ErrorMapper
	persistenceClient   any
	repositoryFactory   any
	configProvider      ConfigProvider
	optionsResolver     OptionsResolver
	capabilityChecker   CapabilityChecker
	catalog             *catalog.Catalog
	authServer          AuthorizationServer
	identityResolver    IdentityResolver
	keyCharacterLister  KeyCharacterLister
	credentialDeriver   CredentialDeriver
	jobEnqueuer         JobEnqueuer
	accountStore        AccountStore
	credentialStore     CredentialStore
	authStateStore      AuthStateStore
	trackerStore        TrackerStore
	accessKeyStore      AccessKeyStore
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

// WithRepositoryFactory accepts a RepositoryStoreFactory or a StoreProvider.
// Optional stores are picked up when the factory exposes them.
func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithCapabilityChecker(checker CapabilityChecker) Option {
	return func(b *serviceBuilder) {
		b.capabilityChecker = checker
	}
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(b *serviceBuilder) {
		b.catalog = c
	}
}

func WithAuthorizationServer(server AuthorizationServer) Option {
	return func(b *serviceBuilder) {
		b.authServer = server
	}
}

func WithIdentityResolver(resolver IdentityResolver) Option {
	return func(b *serviceBuilder) {
		b.identityResolver = resolver
	}
}

func WithKeyCharacterLister(lister KeyCharacterLister) Option {
	return func(b *serviceBuilder) {
		b.keyCharacterLister = lister
	}
}

func WithCredentialDeriver(deriver CredentialDeriver) Option {
	return func(b *serviceBuilder) {
		b.credentialDeriver = deriver
	}
}

// WithJobEnqueuer publishes a job for every newly created tracker.
func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.jobEnqueuer = enqueuer
	}
}

func WithAccountStore(store AccountStore) Option {
	return func(b *serviceBuilder) {
		b.accountStore = store
	}
}

func WithCredentialStore(store CredentialStore) Option {
	return func(b *serviceBuilder) {
		b.credentialStore = store
	}
}

func WithAuthStateStore(store AuthStateStore) Option {
	return func(b *serviceBuilder) {
		b.authStateStore = store
	}
}

func WithTrackerStore(store TrackerStore) Option {
	return func(b *serviceBuilder) {
		b.trackerStore = store
	}
}

func WithAccessKeyStore(store AccessKeyStore) Option {
	return func(b *serviceBuilder) {
		b.accessKeyStore = store
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("accountsync", nil, nil)
	return serviceBuilder{
		runtimeConfig:     runtime,
		loggerProvider:    loggerProvider,
		logger:            logger,
		metricsRecorder:   NopMetricsRecorder{},
		errorFactory:      goerrors.New,
		errorMapper:       defaultErrorMapper,
		configProvider:    NewCfgxConfigProvider(nil),
		optionsResolver:   GoOptionsResolver{},
		capabilityChecker: CallerCapabilityChecker{},
		catalog:           catalog.Default(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return serviceErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// StaticConfigLoader serves a fixed raw map, typically decoded from a file
// by the host application.
func StaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver merges defaults < config < runtime.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	authState := map[string]any{}
	if includeZero || cfg.AuthState.TTL != 0 {
		authState["ttl"] = cfg.AuthState.TTL
	}
	if len(authState) > 0 {
		layer["auth_state"] = authState
	}

	history := map[string]any{}
	if includeZero || cfg.History.DefaultMaxResults != 0 {
		history["default_max_results"] = cfg.History.DefaultMaxResults
	}
	if includeZero || cfg.History.MaxResultsCeiling != 0 {
		history["max_results_ceiling"] = cfg.History.MaxResultsCeiling
	}
	if len(history) > 0 {
		layer["history"] = history
	}

	upstream := map[string]any{}
	if includeZero || cfg.Upstream.Timeout != 0 {
		upstream["timeout"] = cfg.Upstream.Timeout
	}
	for key, value := range map[string]string{
		"site_agent":      cfg.Upstream.SiteAgent,
		"app_path":        cfg.Upstream.AppPath,
		"callback_path":   cfg.Upstream.CallbackPath,
		"reauth_fragment": cfg.Upstream.ReauthFragment,
	} {
		if includeZero || strings.TrimSpace(value) != "" {
			upstream[key] = value
		}
	}
	if len(upstream) > 0 {
		layer["upstream"] = upstream
	}
	return layer
}
