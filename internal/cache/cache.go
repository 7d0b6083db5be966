package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the read-path cache used in front of provider lookups.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
	Flush(ctx context.Context)
}

const (
	// DefaultExpiration is the TTL applied when callers pass 0.
	DefaultExpiration = 30 * time.Second
	cleanupInterval   = 5 * time.Minute
)

// PrefixSubscription namespaces cached subscription snapshots.
const PrefixSubscription = "subscription:"

type inMemoryCache struct {
	store *gocache.Cache
}

var (
	inMemoryInstance *inMemoryCache
	inMemoryOnce     sync.Once
)

// NewInMemoryCache returns the process-wide in-memory cache.
func NewInMemoryCache() Cache {
	inMemoryOnce.Do(func() {
		inMemoryInstance = &inMemoryCache{
			store: gocache.New(DefaultExpiration, cleanupInterval),
		}
	})
	return inMemoryInstance
}

func (c *inMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *inMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	c.store.Set(key, value, expiration)
}

func (c *inMemoryCache) Delete(_ context.Context, key string) {
	c.store.Delete(key)
}

func (c *inMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

func (c *inMemoryCache) Flush(_ context.Context) {
	c.store.Flush()
}
