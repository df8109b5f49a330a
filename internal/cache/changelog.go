package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/changelog"
)

// ChangeLogCache stores msgpack-encoded change logs keyed by snapshot pair.
//
// A change log depends on how the differ compares annotations as well as on the two
// snapshots. Differs configured differently that share a backend must each use their
// own Namespace.
type ChangeLogCache struct {
	cache     Cache
	ttl       time.Duration
	namespace string
	logger    *zap.Logger
}

// NewChangeLogCache wraps a backend. A zero ttl uses the backend default.
func NewChangeLogCache(c Cache, ttl time.Duration, logger *zap.Logger) *ChangeLogCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeLogCache{cache: c, ttl: ttl, logger: logger}
}

// Namespace returns a cache on the same backend whose keys are kept apart from those
// of other namespaces
func (c *ChangeLogCache) Namespace(ns string) *ChangeLogCache {
	out := *c
	out.namespace = ns
	return &out
}

// ChangeLogKey returns the cache key of the change log from left to right
func ChangeLogKey(leftID, rightID string) string {
	return "changelog:" + leftID + ":" + rightID
}

// Key returns the key the change log from left to right is stored under
func (c *ChangeLogCache) Key(leftID, rightID string) string {
	if c.namespace == "" {
		return ChangeLogKey(leftID, rightID)
	}
	return "changelog:" + c.namespace + ":" + leftID + ":" + rightID
}

// Get returns the cached change log or ErrCacheMiss. Undecodable entries are dropped
// and reported as a miss.
func (c *ChangeLogCache) Get(ctx context.Context, leftID, rightID string) ([]changelog.Entry, error) {
	key := c.Key(leftID, rightID)

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if IsCacheMiss(err) {
			c.logger.Debug("change log cache miss", zap.String("key", key))
		}
		return nil, err
	}

	entries, err := changelog.Unmarshal(data)
	if err != nil {
		c.logger.Warn("dropping undecodable cached change log", zap.String("key", key), zap.Error(err))
		if err := c.cache.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrCacheMiss{Key: key}
	}

	c.logger.Debug("change log cache hit", zap.String("key", key), zap.Int("entries", len(entries)))
	return entries, nil
}

// Put stores the change log from left to right
func (c *ChangeLogCache) Put(ctx context.Context, leftID, rightID string, entries []changelog.Entry) error {
	data, err := changelog.Marshal(entries)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, c.Key(leftID, rightID), data, c.ttl)
}

// Invalidate drops every cached change log, in every namespace
func (c *ChangeLogCache) Invalidate(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// Close closes the backend
func (c *ChangeLogCache) Close() error {
	return c.cache.Close()
}
