package rubric

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores generated rubric documents by key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
}

var keyUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// CacheKey derives a stable cache key from a job title.
func CacheKey(jobTitle string) string {
	key := strings.ToLower(strings.TrimSpace(jobTitle))
	key = strings.Join(strings.Fields(key), "_")
	key = keyUnsafe.ReplaceAllString(key, "")
	key = strings.Trim(key, "_-")
	if len(key) > 100 {
		key = key[:100]
	}
	if key == "" {
		key = "untitled"
	}
	return key
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Put(context.Context, string, []byte) error         { return nil }

// FileCache keeps one JSON document per key in a directory
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create rubric cache directory %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, CacheKey(key)+".json")
}

func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached rubric: %w", err)
	}
	return data, true, nil
}

func (c *FileCache) Put(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".rubric-*")
	if err != nil {
		return fmt.Errorf("failed to write cached rubric: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cached rubric: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cached rubric: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// RedisCache stores rubric documents in Redis under a key prefix
type RedisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. A zero ttl keeps entries until evicted.
func NewRedisCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "hirescore:rubric:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+CacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached rubric from redis: %w", err)
	}
	return data, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, c.prefix+CacheKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached rubric to redis: %w", err)
	}
	return nil
}
