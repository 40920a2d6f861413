package postal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a resolved postal code stays cached
const DefaultCacheTTL = 24 * time.Hour

// Store is the key/value backend for CachedLookup.
// Get reports a miss with found=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedLookup decorates a PostalLookup with a read-through cache.
// Concurrent lookups of the same code share one upstream call. Cache
// failures are logged and never fail a lookup.
type CachedLookup struct {
	next   registry.PostalLookup
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewCachedLookup wraps next with store. A non-positive ttl uses DefaultCacheTTL.
func NewCachedLookup(next registry.PostalLookup, store Store, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger.Named("postal_cache"),
	}
}

// cacheKey generates the cache key for a postal code
func cacheKey(code string) string {
	return fmt.Sprintf("postal:cep:%s", code)
}

// Lookup implements registry.PostalLookup
func (c *CachedLookup) Lookup(ctx context.Context, postalCode string) (registry.PostalAddress, error) {
	code := registry.NormalizePostalCode(postalCode)
	key := cacheKey(code)

	if cached, ok := c.get(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(code, func() (any, error) {
		// a call that just finished may have filled the cache
		if cached, ok := c.get(ctx, key); ok {
			return cached, nil
		}
		// the shared call must not die with whichever caller started it
		resolved, err := c.next.Lookup(context.WithoutCancel(ctx), code)
		if err != nil {
			return registry.PostalAddress{}, err
		}
		c.set(ctx, key, resolved)
		return resolved, nil
	})
	if err != nil {
		return registry.PostalAddress{}, err
	}
	return v.(registry.PostalAddress), nil
}

func (c *CachedLookup) get(ctx context.Context, key string) (registry.PostalAddress, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Failed to read postal cache", zap.String("key", key), zap.Error(err))
		return registry.PostalAddress{}, false
	}
	if !found {
		c.logger.Debug("Cache miss for postal code", zap.String("key", key))
		return registry.PostalAddress{}, false
	}

	var resolved registry.PostalAddress
	if err := json.Unmarshal(data, &resolved); err != nil {
		c.logger.Warn("Discarding corrupted postal cache entry", zap.String("key", key), zap.Error(err))
		return registry.PostalAddress{}, false
	}
	return resolved, true
}

func (c *CachedLookup) set(ctx context.Context, key string, resolved registry.PostalAddress) {
	data, err := json.Marshal(resolved)
	if err != nil {
		c.logger.Warn("Failed to marshal postal address", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(context.WithoutCancel(ctx), key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write postal cache", zap.String("key", key), zap.Error(err))
	}
}

// RedisStore implements Store on a Redis client
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Store backed by client. The caller owns the client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Ensure CachedLookup implements registry.PostalLookup
var _ registry.PostalLookup = (*CachedLookup)(nil)

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
