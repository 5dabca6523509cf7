package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CategoryCache keeps category lists in Redis as JSON.
type CategoryCache struct {
	client redis.Cmdable
	prefix string
}

// NewCategoryCache stores entries under prefix + key.
func NewCategoryCache(client redis.Cmdable, prefix string) *CategoryCache {
	if prefix == "" {
		prefix = "helpdesk:categories:"
	}
	return &CategoryCache{client: client, prefix: prefix}
}

type cachedCategory struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Get returns the cached list; ok is false on a miss.
func (c *CategoryCache) Get(ctx context.Context, key string) ([]domain.Category, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read category cache: %w", err)
	}
	var cached []cachedCategory
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("decode category cache: %w", err)
	}
	out := make([]domain.Category, len(cached))
	for i, entry := range cached {
		out[i] = domain.Category{ID: entry.ID, Title: entry.Title}
	}
	return out, true, nil
}

// Set stores categories for ttl.
func (c *CategoryCache) Set(ctx context.Context, key string, categories []domain.Category, ttl time.Duration) error {
	cached := make([]cachedCategory, len(categories))
	for i, category := range categories {
		cached[i] = cachedCategory{ID: category.ID, Title: category.Title}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("write category cache: %w", err)
	}
	return nil
}
