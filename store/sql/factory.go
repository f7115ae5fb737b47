package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-accountsync/core"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db      *bun.DB
	secrets core.SecretProvider

	accountStore    *AccountStore
	credentialStore *CredentialStore
	trackerStore    *TrackerStore
	authStateStore  *AuthStateStore
	accessKeyStore  *AccessKeyStore
}

type FactoryOption func(*RepositoryFactory)

// WithSecretProvider encrypts credential secrets at rest. Without one they
// are stored as given.
func WithSecretProvider(provider core.SecretProvider) FactoryOption {
	return func(f *RepositoryFactory) {
		if f != nil {
			f.secrets = provider
		}
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.accountStore != nil && f.credentialStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) AccountStore() core.AccountStore {
	if f == nil || f.accountStore == nil {
		return nil
	}
	return f.accountStore
}

func (f *RepositoryFactory) CredentialStore() core.CredentialStore {
	if f == nil || f.credentialStore == nil {
		return nil
	}
	return f.credentialStore
}

func (f *RepositoryFactory) TrackerStore() core.TrackerStore {
	if f == nil || f.trackerStore == nil {
		return nil
	}
	return f.trackerStore
}

func (f *RepositoryFactory) AuthStateStore() core.AuthStateStore {
	if f == nil || f.authStateStore == nil {
		return nil
	}
	return f.authStateStore
}

func (f *RepositoryFactory) AccessKeyStore() core.AccessKeyStore {
	if f == nil || f.accessKeyStore == nil {
		return nil
	}
	return f.accessKeyStore
}

// AuthStates exposes the concrete store for maintenance such as
// PurgeExpired.
func (f *RepositoryFactory) AuthStates() *AuthStateStore {
	if f == nil {
		return nil
	}
	return f.authStateStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	accountStore, err := NewAccountStore(f.db)
	if err != nil {
		return err
	}
	credentialStore, err := NewCredentialStore(accountStore, f.secrets)
	if err != nil {
		return err
	}
	trackerStore, err := NewTrackerStore(f.db)
	if err != nil {
		return err
	}
	authStateStore, err := NewAuthStateStore(f.db)
	if err != nil {
		return err
	}
	accessKeyStore, err := NewAccessKeyStore(f.db)
	if err != nil {
		return err
	}

	f.accountStore = accountStore
	f.credentialStore = credentialStore
	f.trackerStore = trackerStore
	f.authStateStore = authStateStore
	f.accessKeyStore = accessKeyStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
