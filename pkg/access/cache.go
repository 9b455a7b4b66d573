package access

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a best-effort two-tier cache for document role resolutions: an
// in-process LRU in front of an optional shared redis version counter.
//
// Entries are keyed by (user, user-version, document). Invalidation bumps
// the user's version counter, orphaning every cached resolution for that
// user at once; the orphans age out of the LRU. With redis configured the
// counter is shared, so an invalidation on one replica is seen by all.
// Correctness never depends on the cache: the engine re-checks authority
// inside its transaction.
type Cache struct {
	ttl   time.Duration
	lru   *lru.Cache[string, cacheEntry]
	redis *redis.Client

	mu        sync.Mutex
	localVers map[int64]int64
}

type cacheEntry struct {
	res     Resolution
	expires time.Time
}

// NewCache creates a resolution cache. redisClient may be nil for a purely
// in-process cache.
func NewCache(size int, ttl time.Duration, redisClient *redis.Client) (*Cache, error) {
	if size <= 0 {
		size = 4096
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	l, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolution cache: %w", err)
	}

	return &Cache{
		ttl:       ttl,
		lru:       l,
		redis:     redisClient,
		localVers: make(map[int64]int64),
	}, nil
}

func userVersionKey(userID int64) string {
	return "vellum:access:ver:" + strconv.FormatInt(userID, 10)
}

// version returns the user's invalidation counter. A redis failure degrades
// to a cache miss rather than serving a potentially stale resolution.
func (c *Cache) version(ctx context.Context, userID int64) (int64, bool) {
	if c.redis != nil {
		val, err := c.redis.Get(ctx, userVersionKey(userID)).Int64()
		if err == redis.Nil {
			return 0, true
		}
		if err != nil {
			return 0, false
		}
		return val, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localVers[userID], true
}

func entryKey(userID, version, documentID int64) string {
	return fmt.Sprintf("u%d:v%d:d%d", userID, version, documentID)
}

// Get returns a cached resolution if present and fresh
func (c *Cache) Get(ctx context.Context, userID, documentID int64) (Resolution, bool) {
	ver, ok := c.version(ctx, userID)
	if !ok {
		return Resolution{}, false
	}

	entry, ok := c.lru.Get(entryKey(userID, ver, documentID))
	if !ok || time.Now().After(entry.expires) {
		return Resolution{}, false
	}
	return entry.res, true
}

// Put stores a resolution under the user's current version
func (c *Cache) Put(ctx context.Context, userID, documentID int64, res Resolution) {
	ver, ok := c.version(ctx, userID)
	if !ok {
		return
	}
	c.lru.Add(entryKey(userID, ver, documentID), cacheEntry{res: res, expires: time.Now().Add(c.ttl)})
}

// InvalidateDocumentUser drops the cached resolution for one (user, document)
// pair; used after document-scoped grant mutations
func (c *Cache) InvalidateDocumentUser(ctx context.Context, userID, documentID int64) {
	ver, ok := c.version(ctx, userID)
	if !ok {
		return
	}
	c.lru.Remove(entryKey(userID, ver, documentID))
}

// InvalidateUser orphans every cached resolution for the user by bumping
// their version counter; used after membership mutations, which can affect
// any document in the project
func (c *Cache) InvalidateUser(ctx context.Context, userID int64) {
	if c.redis != nil {
		// Best effort: a failed INCR leaves version() failing too, which
		// reads as a miss until redis recovers.
		c.redis.Incr(ctx, userVersionKey(userID))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.localVers[userID]++
}
