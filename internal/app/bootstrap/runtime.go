// Package bootstrap builds the long-lived dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/support-ai-platform/internal/config"
	"github.com/wolfman30/support-ai-platform/internal/tenant"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, tenant cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildTenantDirectory puts the Redis cache in front of next when a client is available.
func BuildTenantDirectory(next tenant.Directory, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) tenant.Directory {
	if redisClient == nil {
		return next
	}
	return tenant.NewCachedStore(next, redisClient, ttl, logger)
}
