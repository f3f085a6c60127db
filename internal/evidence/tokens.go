package evidence

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const tokenCacheKey = "access_token"

// refreshMargin is how long before expiry a token is refreshed proactively,
// so in-flight requests never race an expiring token.
const refreshMargin = 60 * time.Second

// TokenSource fetches a fresh access token and its expiry time.
type TokenSource func(ctx context.Context) (token string, expiresAt time.Time, err error)

// TokenCache caches an OAuth access token with TTL-aware, single-flight
// refresh. It is shared across concurrent requests within a process; at most
// one refresh is in flight at a time.
type TokenCache struct {
	source TokenSource
	cache  *gocache.Cache

	mu sync.Mutex // serializes refreshes
}

// NewTokenCache creates a token cache backed by the given source.
func NewTokenCache(source TokenSource) *TokenCache {
	return &TokenCache{
		source: source,
		cache:  gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

// Get returns a valid access token, refreshing it when missing or close to
// expiry.
func (tc *TokenCache) Get(ctx context.Context) (string, error) {
	if token, found := tc.cache.Get(tokenCacheKey); found {
		return token.(string), nil
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if token, found := tc.cache.Get(tokenCacheKey); found {
		return token.(string), nil
	}

	token, expiresAt, err := tc.source(ctx)
	if err != nil {
		return "", err
	}

	ttl := time.Until(expiresAt) - refreshMargin
	if ttl <= 0 {
		// Token is barely valid; use it but do not cache.
		log.Warn().Time("expiresAt", expiresAt).Msg("token expires too soon to cache")
		return token, nil
	}
	tc.cache.Set(tokenCacheKey, token, ttl)

	return token, nil
}

// Invalidate drops the cached token, forcing a refresh on next Get.
func (tc *TokenCache) Invalidate() {
	tc.cache.Delete(tokenCacheKey)
}
