package basalt

import (
	"strconv"
	"sync"

	"github.com/basaltdb/basalt/dialect/sql"
)

// RenderCache caches rendered statement text keyed by an expression
// fingerprint. Rendering an immutable expression tree is deterministic per
// dialect and server version, so repeated renders of hot expressions can be
// skipped. Implementations must be safe for concurrent use.
type RenderCache interface {
	// Get retrieves a rendered statement. The second return value is
	// false if the key is absent.
	Get(key string) (string, bool)

	// Set stores a rendered statement.
	Set(key, stmt string)

	// Delete removes one entry.
	Delete(key string)

	// Clear removes all entries.
	Clear()
}

// CacheKey identifies one rendering of an expression.
type CacheKey struct {
	Dialect string
	Version int // server version, 0 when unknown
	Expr    string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Dialect + ":" + strconv.Itoa(k.Version) + ":" + k.Expr
}

// Memoize renders x once per key and serves later calls from the cache.
// The key's Version, when non-zero, is presented to the expression as the
// server version, so version-conditional nodes render consistently with
// the key. Only argument-free expressions can be memoized; an expression
// that binds arguments is rejected.
func Memoize(cache RenderCache, key CacheKey, x sql.Expr) (string, error) {
	if stmt, ok := cache.Get(key.String()); ok {
		return stmt, nil
	}
	b := sql.Dialect(key.Dialect)
	if key.Version > 0 {
		b.SetServerVersion(func() (int, bool) { return key.Version, true })
	}
	x.Append(b)
	if err := b.Err(); err != nil {
		return "", err
	}
	stmt, args := b.Query()
	if len(args) > 0 {
		return "", NewConfigurationError("memoized expression binds %d arguments", len(args))
	}
	cache.Set(key.String(), stmt)
	return stmt, nil
}

// MemoryCache is an in-memory RenderCache backed by a map.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]string)}
}

// Get implements the RenderCache interface.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stmt, ok := c.m[key]
	return stmt, ok
}

// Set implements the RenderCache interface.
func (c *MemoryCache) Set(key, stmt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = stmt
}

// Delete implements the RenderCache interface.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

// Clear implements the RenderCache interface.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string]string)
}
