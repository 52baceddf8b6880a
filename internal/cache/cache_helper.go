package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyNamespace prefixes every key so the console can share a redis instance.
const KeyNamespace = "evalconsole:"

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
	ErrConcurrentUpdate  = errors.New("cached list changed while it was being fetched")
)

// CacheConfig is the prefix and lifetime of one family of cached values.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Evaluation lists change on every completed submission; events clear them early.
	EvaluationCacheConfig = CacheConfig{
		TTL:    2 * time.Minute,
		Prefix: "evaluation:",
	}

	// Teachers and students change rarely and only through this console or the backend admin.
	EntityCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "entity:",
	}

	StatsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "stats:",
	}
)

// CacheHelper stores JSON values under one prefix of a shared redis client. A
// nil client turns every write into a no-op and every read into ErrCacheNotAvailable.
type CacheHelper struct {
	client *redis.Client
	config CacheConfig
}

func NewCacheHelper(client *redis.Client, config CacheConfig) *CacheHelper {
	return &CacheHelper{client: client, config: config}
}

// Key returns the full redis key for key.
func (c *CacheHelper) Key(key string) string {
	return KeyNamespace + c.config.Prefix + key
}

func (c *CacheHelper) TTL() time.Duration {
	return c.config.TTL
}

// Available reports whether a redis client is configured.
func (c *CacheHelper) Available() bool {
	return c != nil && c.client != nil
}

func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Available() {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheNotFound
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Set stores value for the helper's TTL.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}) error {
	if !c.Available() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.Key(key), data, c.config.TTL).Err()
}

func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.Key(key)
	}
	return c.client.Del(ctx, full...).Err()
}

// InvalidatePattern unlinks every key matching pattern, one SCAN page at a time.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if !c.Available() {
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.Key(pattern), 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return fmt.Errorf("cache unlink %s: %w", pattern, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("cache unlink %s: %w", pattern, err)
	}
	return nil
}

// ReadThrough returns the cached value for key, or calls fetch and caches its
// result. Fetch errors are returned and never cached.
func ReadThrough[T any](ctx context.Context, c *CacheHelper, key string, fetch func() (T, error)) (T, error) {
	return ReadThroughUnless(ctx, c, key, fetch, nil)
}

// ReadThroughUnless is ReadThrough for values that can be invalidated while
// fetch runs. A fetched value is not cached, or is dropped again right after
// the write, once stale reports true.
func ReadThroughUnless[T any](ctx context.Context, c *CacheHelper, key string, fetch func() (T, error), stale func() bool) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache read failed, fetching from backend", "error", err, "key", key)
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}
	if stale != nil && stale() {
		return value, nil
	}
	if err := c.Set(ctx, key, value); err != nil {
		slog.ErrorContext(ctx, "Cache write failed", "error", err, "key", key)
		return value, nil
	}
	// An invalidation between the check and the write would otherwise be lost.
	if stale != nil && stale() {
		if err := c.Delete(ctx, key); err != nil && !errors.Is(err, ErrCacheNotAvailable) {
			slog.ErrorContext(ctx, "Cache delete failed", "error", err, "key", key)
		}
	}
	return value, nil
}

// CacheManager groups the helpers used by the console services.
type CacheManager struct {
	client      *redis.Client
	Evaluations *CacheHelper
	Entities    *CacheHelper
	Stats       *CacheHelper
}

type ManagerOption func(*managerConfig)

type managerConfig struct {
	evaluations, entities, stats CacheConfig
}

// WithEvaluationTTL overrides how long evaluation lists and records are cached.
func WithEvaluationTTL(ttl time.Duration) ManagerOption {
	return func(cfg *managerConfig) {
		if ttl > 0 {
			cfg.evaluations.TTL = ttl
		}
	}
}

// NewCacheManager builds the helpers. A nil client yields helpers that never cache.
func NewCacheManager(client *redis.Client, opts ...ManagerOption) *CacheManager {
	cfg := managerConfig{
		evaluations: EvaluationCacheConfig,
		entities:    EntityCacheConfig,
		stats:       StatsCacheConfig,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &CacheManager{
		client:      client,
		Evaluations: NewCacheHelper(client, cfg.evaluations),
		Entities:    NewCacheHelper(client, cfg.entities),
		Stats:       NewCacheHelper(client, cfg.stats),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
