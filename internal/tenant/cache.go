package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// CachedStore fronts a Directory with a Redis read-through cache.
// Redis failures are logged and the lookup falls through to the backing store.
type CachedStore struct {
	next   Directory
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps next. A nil redis client disables caching.
func NewCachedStore(next Directory, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{next: next, redis: client, ttl: ttl, logger: logger}
}

func tenantKey(id string) string { return fmt.Sprintf("tenant:%s", id) }

func channelKey(channelType, identifier string) string {
	return fmt.Sprintf("channel:%s:%s", channelType, identifier)
}

func channelIDKey(id string) string { return fmt.Sprintf("channel:id:%s", id) }

// ChannelByIdentifier implements Directory.
func (s *CachedStore) ChannelByIdentifier(ctx context.Context, channelType, identifier string) (*Channel, error) {
	var ch Channel
	if s.load(ctx, channelKey(channelType, identifier), &ch) {
		return &ch, nil
	}
	found, err := s.next.ChannelByIdentifier(ctx, channelType, identifier)
	if err != nil {
		return nil, err
	}
	s.store(ctx, channelKey(channelType, identifier), found)
	return found, nil
}

// ChannelByID implements Directory.
func (s *CachedStore) ChannelByID(ctx context.Context, id string) (*Channel, error) {
	var ch Channel
	if s.load(ctx, channelIDKey(id), &ch) {
		return &ch, nil
	}
	found, err := s.next.ChannelByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, channelIDKey(id), found)
	return found, nil
}

// Tenant implements Directory.
func (s *CachedStore) Tenant(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	if s.load(ctx, tenantKey(id), &t) {
		return &t, nil
	}
	found, err := s.next.Tenant(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, tenantKey(id), found)
	return found, nil
}

// InvalidateTenant drops the cached tenant so the next read hits Postgres.
func (s *CachedStore) InvalidateTenant(ctx context.Context, id string) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, tenantKey(id)).Err(); err != nil {
		return fmt.Errorf("tenant: invalidate: %w", err)
	}
	return nil
}

func (s *CachedStore) load(ctx context.Context, key string, dest any) bool {
	if s.redis == nil {
		return false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		s.logger.Warn("tenant cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("tenant cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (s *CachedStore) store(ctx context.Context, key string, value any) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("tenant cache write failed", "key", key, "error", err)
	}
}
