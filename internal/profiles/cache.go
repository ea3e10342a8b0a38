package profiles

import (
	"context"
	"sync"
	"time"

	"github.com/metadex/metadex/internal/metadata"
)

// Cache provides in-memory caching with TTL for loaded profiles.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	ttl      time.Duration
	maxItems int
}

type cacheItem struct {
	profile   *metadata.Profile
	expiresAt time.Time
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      5 * time.Minute,
		MaxItems: 500,
	}
}

// NewCache creates a new cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	def := DefaultCacheConfig()
	if cfg.TTL == 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxItems == 0 {
		cfg.MaxItems = def.MaxItems
	}
	return &Cache{
		items:    make(map[string]cacheItem),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
	}
}

// Get returns a copy of the cached profile.
func (c *Cache) Get(id string) (*metadata.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.profile.Clone(), true
}

// Set stores a copy of the profile.
func (c *Cache) Set(profile *metadata.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxItems {
		c.evict()
	}
	c.items[profile.ID] = cacheItem{
		profile:   profile.Clone(),
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a profile from the cache.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheItem)
}

// Len returns the number of items in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evict drops expired items, then the item closest to expiry if still full.
// Must be called with the lock held.
func (c *Cache) evict() {
	now := time.Now()
	c.removeExpired(now)
	if len(c.items) < c.maxItems {
		return
	}

	var (
		oldestID string
		oldest   time.Time
	)
	for id, item := range c.items {
		if oldestID == "" || item.expiresAt.Before(oldest) {
			oldestID, oldest = id, item.expiresAt
		}
	}
	delete(c.items, oldestID)
}

func (c *Cache) removeExpired(now time.Time) {
	for id, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, id)
		}
	}
}

// RunCleanup periodically removes expired items until ctx is done.
func (c *Cache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.mu.Lock()
			c.removeExpired(now)
			c.mu.Unlock()
		}
	}
}

// CachedStore is a read-through cache in front of a profile store.
// Writes go to the store and invalidate the cached entry.
type CachedStore struct {
	next  Repository
	cache *Cache
}

// NewCachedStore wraps next with cache.
func NewCachedStore(next Repository, cache *Cache) *CachedStore {
	return &CachedStore{next: next, cache: cache}
}

// Cache returns the underlying cache.
func (s *CachedStore) Cache() *Cache {
	return s.cache
}

func (s *CachedStore) Load(ctx context.Context, mt metadata.MediaType, id string) (*metadata.Profile, error) {
	if p, ok := s.cache.Get(id); ok && (mt == "" || p.MediaType == mt) {
		return p, nil
	}
	p, err := s.next.Load(ctx, mt, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(p)
	return p, nil
}

func (s *CachedStore) Save(ctx context.Context, profile *metadata.Profile) error {
	s.cache.Delete(profile.ID)
	return s.next.Save(ctx, profile)
}

func (s *CachedStore) Insert(ctx context.Context, profile *metadata.Profile) (bool, error) {
	s.cache.Delete(profile.ID)
	return s.next.Insert(ctx, profile)
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	s.cache.Delete(id)
	return s.next.Delete(ctx, id)
}

func (s *CachedStore) List(ctx context.Context, mt metadata.MediaType) ([]*metadata.Profile, error) {
	return s.next.List(ctx, mt)
}
