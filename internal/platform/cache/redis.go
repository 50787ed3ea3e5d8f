package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"media-gallery/internal/config"
	"media-gallery/internal/domain/gallery"
)

// Key layout. Everything lives under keyPrefix so Invalidate can sweep it.
const (
	keyPrefix     = "gallery:"
	imageKey      = keyPrefix + "image:"
	imagePageKey  = keyPrefix + "images:"
	tagsKey       = keyPrefix + "tags"
	scanBatchSize = 100
)

// ErrCacheDisabled is returned when a client is requested for a disabled cache
var ErrCacheDisabled = errors.New("cache is disabled")

// RedisClient stores gallery responses in Redis or Valkey
type RedisClient struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisClient creates a new Redis client and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*RedisClient, error) {
	if !cfg.Enabled {
		return nil, ErrCacheDisabled
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Address,
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close() //nolint:errcheck // Connection cleanup in error path
		return nil, fmt.Errorf("failed to connect to Redis/Valkey: %w", err)
	}

	return NewRedisClientFromConn(rdb, cfg.DefaultTTL), nil
}

// NewRedisClientFromConn wraps an existing go-redis client
func NewRedisClientFromConn(rdb *redis.Client, defaultTTL time.Duration) *RedisClient {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisClient{
		client:     rdb,
		defaultTTL: defaultTTL,
	}
}

// GetImage retrieves a cached image
func (r *RedisClient) GetImage(ctx context.Context, id int) (*gallery.Image, error) {
	var img gallery.Image
	if err := r.Get(ctx, imageKey+strconv.Itoa(id), &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// SetImage caches an image
func (r *RedisClient) SetImage(ctx context.Context, img *gallery.Image) error {
	return r.Set(ctx, imageKey+strconv.Itoa(img.ID), img, 0)
}

// GetImagePage retrieves a cached image listing
func (r *RedisClient) GetImagePage(ctx context.Context, key string) (*gallery.ImagePage, error) {
	var page gallery.ImagePage
	if err := r.Get(ctx, imagePageKey+key, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetImagePage caches an image listing
func (r *RedisClient) SetImagePage(ctx context.Context, key string, page *gallery.ImagePage) error {
	return r.Set(ctx, imagePageKey+key, page, 0)
}

// GetTags retrieves the cached tag catalogue
func (r *RedisClient) GetTags(ctx context.Context) (*gallery.TagList, error) {
	var tags gallery.TagList
	if err := r.Get(ctx, tagsKey, &tags); err != nil {
		return nil, err
	}
	return &tags, nil
}

// SetTags caches the tag catalogue
func (r *RedisClient) SetTags(ctx context.Context, tags *gallery.TagList) error {
	return r.Set(ctx, tagsKey, tags, 0)
}

// Invalidate removes every gallery key, scanning instead of KEYS so large
// keyspaces are not blocked
func (r *RedisClient) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", scanBatchSize).Iterator()

	batch := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	return nil
}

// Health checks if the Redis/Valkey connection is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis/Valkey health check failed: %w", err)
	}
	return nil
}

// Close closes the Redis/Valkey connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Get retrieves a cached value by key and unmarshals it into result.
// A missing key yields gallery.ErrCacheMiss.
func (r *RedisClient) Get(ctx context.Context, key string, result interface{}) error {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gallery.ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(val, result); err != nil {
		return fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}

	return nil
}

// Set caches a value with the specified key; a zero ttl uses the default TTL
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if ttl == 0 {
		ttl = r.defaultTTL
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}

	return nil
}
