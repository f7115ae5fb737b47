package upstream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-accountsync/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const corporationCacheKeyPrefix = "go-accountsync::corporation::v1"

// CachedIdentityResolver caches corporation lookups. Character affiliations
// change when characters move, so they always go upstream.
type CachedIdentityResolver struct {
	base  core.IdentityResolver
	cache repositorycache.CacheService
}

func NewCachedIdentityResolver(
	base core.IdentityResolver,
	cacheService repositorycache.CacheService,
) (*CachedIdentityResolver, error) {
	if base == nil {
		return nil, fmt.Errorf("upstream: base identity resolver is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("upstream: identity cache service is required")
	}
	return &CachedIdentityResolver{base: base, cache: cacheService}, nil
}

// CorporationCacheKey returns go-accountsync::corporation::v1::<id>.
func CorporationCacheKey(corporationID int64) string {
	return corporationCacheKeyPrefix + "::" + strconv.FormatInt(corporationID, 10)
}

func (r *CachedIdentityResolver) ResolveCharacter(ctx context.Context, characterID int64) (core.CharacterAffiliation, error) {
	if r == nil || r.base == nil {
		return core.CharacterAffiliation{}, fmt.Errorf("upstream: cached identity resolver is not configured")
	}
	return r.base.ResolveCharacter(ctx, characterID)
}

func (r *CachedIdentityResolver) ResolveCorporation(ctx context.Context, corporationID int64) (core.CorporationInfo, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.CorporationInfo{}, fmt.Errorf("upstream: cached identity resolver is not configured")
	}
	return repositorycache.GetOrFetch(ctx, r.cache, CorporationCacheKey(corporationID), func(ctx context.Context) (core.CorporationInfo, error) {
		return r.base.ResolveCorporation(ctx, corporationID)
	})
}

// Forget drops a cached corporation, for example after a rename.
func (r *CachedIdentityResolver) Forget(ctx context.Context, corporationID int64) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("upstream: cached identity resolver is not configured")
	}
	return r.cache.Delete(ctx, CorporationCacheKey(corporationID))
}
