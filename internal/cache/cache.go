// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"badgehub/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache is a byte-oriented cache; values are JSON by convention. Both
// providers behave identically so services never branch on the backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Health(ctx context.Context) error
	Close() error
}

// GetJSON reads a cached value into dest, reporting a hit
func GetJSON(ctx context.Context, c Cache, key string, dest interface{}) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON marshals value and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// New builds the configured cache provider
func New(cfg *config.CacheConfig, logger *zap.Logger) (Cache, error) {
	if cfg.Provider == "redis" {
		return newRedisCache(cfg, logger)
	}
	return newMemoryCache(logger), nil
}

// ===============================
// MEMORY CACHE
// ===============================

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func (i *cacheItem) expired() bool {
	return !i.expiresAt.IsZero() && time.Now().After(i.expiresAt)
}

// memoryCache is the zero-dependency default for development and tests
type memoryCache struct {
	mu     sync.RWMutex
	items  map[string]*cacheItem
	logger *zap.Logger
	done   chan struct{}
}

func newMemoryCache(logger *zap.Logger) *memoryCache {
	c := &memoryCache{
		items:  make(map[string]*cacheItem),
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *memoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, item := range c.items {
				if item.expired() {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || item.expired() {
		return nil, false
	}
	return item.value, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := &cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// DeletePattern supports the single trailing-* form used by the services
func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Health(context.Context) error { return nil }

func (c *memoryCache) Close() error {
	close(c.done)
	return nil
}

// ===============================
// REDIS CACHE
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

func newRedisCache(cfg *config.CacheConfig, logger *zap.Logger) (*redisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}
	opts.PoolSize = cfg.PoolSize

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("Redis cache connected", zap.Int("pool_size", opts.PoolSize))
	return &redisCache{client: client, logger: logger}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *redisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
