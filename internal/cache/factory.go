package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by New
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// New creates the named backend
func New(ctx context.Context, backend string, config RedisConfig) (Cache, error) {
	switch backend {
	case BackendNone, "":
		return NopCache{}, nil
	case BackendMemory:
		return NewMemoryCacheWithConfig(config.CacheConfig), nil
	case BackendRedis:
		c, err := NewRedisCacheWithConfig(ctx, config)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (expected none, memory or redis)", backend)
	}
}
