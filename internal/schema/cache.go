package schema

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched schema stays fresh.
const DefaultTTL = 5 * time.Minute

// Observer receives cache events.
type Observer interface {
	SchemaCacheHit()
	SchemaCacheMiss()
	SchemaRefreshFailed()
}

// Cache memoizes the last successfully fetched schema document.
// The TTL is measured from that fetch; a failed refresh leaves both the
// value and the timestamp untouched so the next call retries.
type Cache struct {
	source   Source
	ttl      time.Duration
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	value     *Doc
	fetchedAt time.Time
}

// NewCache creates a cache over source. A nil source yields a disabled cache
// whose Get always returns nil.
func NewCache(source Source, ttl time.Duration, observer Observer, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		source:   source,
		ttl:      ttl,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether a schema source is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.source != nil
}

// Get returns the cached schema, refreshing it when stale. It returns nil
// when disabled or when no fetch has succeeded yet.
func (c *Cache) Get(ctx context.Context) *Doc {
	if !c.Enabled() {
		return nil
	}

	c.mu.RLock()
	value, fetchedAt := c.value, c.fetchedAt
	c.mu.RUnlock()

	if value != nil && c.now().Sub(fetchedAt) < c.ttl {
		c.hit()
		return value
	}
	c.miss()

	v, err, _ := c.group.Do("schema", func() (any, error) {
		doc, err := c.source.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value, c.fetchedAt = doc, c.now()
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		c.logger.Warn("Schema refresh failed, serving cached value",
			zap.Error(err),
			zap.Bool("has_cached", value != nil),
		)
		if c.observer != nil {
			c.observer.SchemaRefreshFailed()
		}
		return value
	}
	return v.(*Doc)
}

func (c *Cache) hit() {
	if c.observer != nil {
		c.observer.SchemaCacheHit()
	}
}

func (c *Cache) miss() {
	if c.observer != nil {
		c.observer.SchemaCacheMiss()
	}
}
