package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

const defaultTTL = 10 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

type cachedModel struct {
	Name               string `json:"name"`
	SupportsGeneration bool   `json:"supports_generation"`
}

func buildKey(apiVersion string) string {
	return fmt.Sprintf("models:%s", apiVersion)
}

// Get a discovery listing from cache
func (c *Cache) Get(ctx context.Context, apiVersion string) ([]model.Candidate, bool, error) {
	key := buildKey(apiVersion)
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get model listing from cache: %w", err)
	}

	var stored []cachedModel
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal model listing %s: %w", key, err)
	}

	cands := make([]model.Candidate, len(stored))
	for i, m := range stored {
		cands[i] = model.Candidate{Name: m.Name, APIVersion: apiVersion, SupportsGeneration: m.SupportsGeneration}
	}
	return cands, true, nil
}

// Store a discovery listing in cache
func (c *Cache) Set(ctx context.Context, apiVersion string, cands []model.Candidate) error {
	stored := make([]cachedModel, len(cands))
	for i, cand := range cands {
		stored[i] = cachedModel{Name: cand.Name, SupportsGeneration: cand.SupportsGeneration}
	}
	val, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal model listing: %w", err)
	}

	if err := c.client.Set(ctx, buildKey(apiVersion), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set model listing in cache: %w", err)
	}
	return nil
}

// Clear all cached listings, e.g. after the provider retired models.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "models:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
