package accountsync

import (
	"fmt"

	"github.com/goliatone/go-accountsync/accessmask"
	"github.com/goliatone/go-accountsync/catalog"
	"github.com/goliatone/go-accountsync/upstream"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

// UpstreamOptions builds the default upstream collaborators: the sign-on
// authorization server, the ESI identity resolver and the XML key lister.
// Corporation lookups are cached when cacheService is non-nil.
func UpstreamOptions(cfg upstream.Config, cacheService repositorycache.CacheService) ([]Option, error) {
	authServer, err := upstream.NewAuthServer(cfg)
	if err != nil {
		return nil, err
	}
	var resolver IdentityResolver = upstream.NewESIClient(cfg)
	if cacheService != nil {
		cached, err := upstream.NewCachedIdentityResolver(resolver, cacheService)
		if err != nil {
			return nil, err
		}
		resolver = cached
	}
	return []Option{
		WithAuthorizationServer(authServer),
		WithIdentityResolver(resolver),
		WithKeyCharacterLister(upstream.NewXMLAPIClient(cfg)),
	}, nil
}

// AccessKeySigner returns the option that derives access key credentials
// as HS256 tokens signed with key. A nil catalog uses the default one.
func AccessKeySigner(key []byte, scopes *catalog.Catalog) (Option, error) {
	if scopes == nil {
		scopes = catalog.Default()
	}
	signer, err := accessmask.NewSigner(accessmask.CodecFor(scopes), key)
	if err != nil {
		return nil, fmt.Errorf("accountsync: access key signer: %w", err)
	}
	return WithCredentialDeriver(signer), nil
}
