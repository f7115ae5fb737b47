package sqlstore

import "github.com/goliatone/go-accountsync/core"

var (
	_ core.AccountStore           = (*AccountStore)(nil)
	_ core.CredentialStore        = (*CredentialStore)(nil)
	_ core.TrackerStore           = (*TrackerStore)(nil)
	_ core.AuthStateStore         = (*AuthStateStore)(nil)
	_ core.AccessKeyStore         = (*AccessKeyStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
