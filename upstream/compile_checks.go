package upstream

import "github.com/goliatone/go-accountsync/core"

var (
	_ core.AuthorizationServer = (*AuthServer)(nil)
	_ core.IdentityResolver    = (*ESIClient)(nil)
	_ core.IdentityResolver    = (*CachedIdentityResolver)(nil)
	_ core.KeyCharacterLister  = (*XMLAPIClient)(nil)
)
