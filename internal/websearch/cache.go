package websearch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
	"github.com/arogya-app/arogya/backend/pkg/utils"
)

// ResultsCache is the slice of the cache layer the decorator needs.
// *database.Cache implements it.
type ResultsCache interface {
	CacheSearchResults(ctx context.Context, queryHash string, results interface{}, expiration time.Duration) error
	GetCachedSearchResults(ctx context.Context, queryHash string, result interface{}) error
}

// Searcher matches the Search surface of *Client.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []models.WebResult
}

// CachedClient caches scored web results per query so repeated questions
// do not burn SerpAPI quota. Cache failures fall through to a live
// search.
type CachedClient struct {
	inner  Searcher
	cache  ResultsCache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedClient(inner Searcher, cache ResultsCache, ttl time.Duration, logger *logrus.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedClient{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedClient) Search(ctx context.Context, query string, maxResults int) []models.WebResult {
	key := utils.MD5Hash(fmt.Sprintf("%s:%d", query, maxResults))

	var cached []models.WebResult
	if err := c.cache.GetCachedSearchResults(ctx, key, &cached); err == nil && len(cached) > 0 {
		c.logger.WithField("query", query).Debug("Web search served from cache")
		return cached
	}

	results := c.inner.Search(ctx, query, maxResults)
	if len(results) == 0 {
		// Empty batches are not cached: the next call should retry live.
		return results
	}

	if err := c.cache.CacheSearchResults(ctx, key, results, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to cache web search results")
	}
	return results
}
