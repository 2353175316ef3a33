package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/redis/go-redis/v9"
)

const techniqueCachePrefix = "techniques:"

// TechniqueCache keeps mapped technique lists in Redis, one key per language
type TechniqueCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTechniqueCache(client *redis.Client, ttl time.Duration) *TechniqueCache {
	return &TechniqueCache{client: client, ttl: ttl}
}

func techniqueCacheKey(lang string) string {
	return techniqueCachePrefix + lang
}

// Get returns the cached list for lang. A miss is (nil, false, nil).
func (c *TechniqueCache) Get(ctx context.Context, lang string) ([]models.Technique, bool, error) {
	data, err := c.client.Get(ctx, techniqueCacheKey(lang)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read technique cache: %w", err)
	}

	var techniques []models.Technique
	if err := json.Unmarshal(data, &techniques); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it
		return nil, false, nil
	}

	return techniques, true, nil
}

func (c *TechniqueCache) Set(ctx context.Context, lang string, techniques []models.Technique) error {
	data, err := json.Marshal(techniques)
	if err != nil {
		return fmt.Errorf("failed to encode technique cache: %w", err)
	}

	if err := c.client.Set(ctx, techniqueCacheKey(lang), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write technique cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached list for lang
func (c *TechniqueCache) Invalidate(ctx context.Context, lang string) error {
	if err := c.client.Del(ctx, techniqueCacheKey(lang)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate technique cache: %w", err)
	}
	return nil
}
