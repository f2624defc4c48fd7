package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexusmart/api/internal/models"
)

// ProductCache provides cache-aside storage for product detail reads.
// Keys are kept by both id and slug so either lookup path hits.
type ProductCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewProductCache creates a new ProductCache.
func NewProductCache(redis *RedisClient) *ProductCache {
	return &ProductCache{
		redis: redis,
		ttl:   5 * time.Minute,
	}
}

// keyByID returns the primary Redis key for a product by id.
func (c *ProductCache) keyByID(id int) string {
	return fmt.Sprintf("product:id:%d", id)
}

// keyBySlug returns the secondary Redis key mapping a slug to a product id.
func (c *ProductCache) keyBySlug(slug string) string {
	return fmt.Sprintf("product:slug:%s", slug)
}

// Set stores a product under both its id key and a slug pointer key.
func (c *ProductCache) Set(ctx context.Context, p *models.Product) error {
	jsonData, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	if err := c.redis.Set(ctx, c.keyByID(p.ID), string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set product key: %w", err)
	}
	if err := c.redis.Set(ctx, c.keyBySlug(p.Slug), fmt.Sprintf("%d", p.ID), c.ttl); err != nil {
		return fmt.Errorf("failed to set slug key: %w", err)
	}
	return nil
}

// GetByID retrieves a cached product by id. Returns redis.Nil-wrapped errors
// on miss, which callers treat as a miss rather than a failure.
func (c *ProductCache) GetByID(ctx context.Context, id int) (*models.Product, error) {
	jsonData, err := c.redis.Get(ctx, c.keyByID(id))
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := json.Unmarshal([]byte(jsonData), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &p, nil
}

// GetBySlug retrieves a cached product via the slug pointer key.
func (c *ProductCache) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	idStr, err := c.redis.Get(ctx, c.keyBySlug(slug))
	if err != nil {
		return nil, err
	}

	var id int
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return nil, fmt.Errorf("corrupt slug pointer for %q: %w", slug, err)
	}
	return c.GetByID(ctx, id)
}

// Invalidate removes a product from the cache (both keys). Called on any
// catalog mutation, including stock updates.
func (c *ProductCache) Invalidate(ctx context.Context, p *models.Product) error {
	return c.redis.Delete(ctx, c.keyByID(p.ID), c.keyBySlug(p.Slug))
}
