package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache wraps Redis for the pieces of cross-request state this service
// keeps: generated summaries and cached web search results.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// SearchResultsKey is the key pattern for cached web search batches,
// parameterized by query hash.
const SearchResultsKey = "search:results:%s"

// GetText retrieves a cached text value by key.
func (c *Cache) GetText(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// SetText stores a text value with an expiry.
func (c *Cache) SetText(ctx context.Context, key, value string, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// CacheSearchResults caches a JSON-serializable search payload for a query.
func (c *Cache) CacheSearchResults(ctx context.Context, queryHash string, results interface{}, expiration time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}
	return c.client.Set(ctx, fmt.Sprintf(SearchResultsKey, queryHash), data, expiration).Err()
}

// GetCachedSearchResults retrieves cached search results into result.
func (c *Cache) GetCachedSearchResults(ctx context.Context, queryHash string, result interface{}) error {
	data, err := c.client.Get(ctx, fmt.Sprintf(SearchResultsKey, queryHash)).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), result)
}
