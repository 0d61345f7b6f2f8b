package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/fbaprofit/internal/config"
)

const (
	resultKeyPrefix     = "fbaprofit:result:"
	resultScanBatchSize = 100
)

// ResultCache stores computed analytics results keyed by their input.
type ResultCache interface {
	// Get decodes the cached value for (namespace, input) into dest.
	Get(ctx context.Context, namespace string, input any, dest any) (bool, error)
	Set(ctx context.Context, namespace string, input any, value any) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

// NewResultCache returns a Redis-backed cache, or a no-op cache when caching
// is disabled.
func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	client, ttl, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisResultCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// NewNoopResultCache returns a cache that never hits.
func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) Get(ctx context.Context, namespace string, input any, dest any) (bool, error) {
	key, err := ResultKey(namespace, input)
	if err != nil {
		return false, err
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s result cache: %w", namespace, err)
	}

	return true, nil
}

func (c *redisResultCache) Set(ctx context.Context, namespace string, input any, value any) error {
	key, err := ResultKey(namespace, input)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s result cache: %w", namespace, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	removed, err := unlinkPrefix(ctx, c.client, resultKeyPrefix, resultScanBatchSize)
	if err != nil {
		return err
	}
	log.Info().Int("keys", removed).Msg("result cache invalidated")
	return nil
}

func (c *noopResultCache) Get(context.Context, string, any, any) (bool, error) {
	return false, nil
}

func (c *noopResultCache) Set(context.Context, string, any, any) error {
	return nil
}

func (c *noopResultCache) InvalidateAll(context.Context) error {
	return nil
}

// ResultKey hashes the canonical JSON of input under a namespace.
func ResultKey(namespace string, input any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode %s cache key: %w", namespace, err)
	}

	sum := sha1.Sum(payload)
	return resultKeyPrefix + namespace + ":" + hex.EncodeToString(sum[:]), nil
}
