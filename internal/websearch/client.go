package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

// medicalQualifier is appended to every query to bias results toward
// health content.
const medicalQualifier = "medical health information"

// Client wraps the SerpAPI search endpoint. A missing API key or any
// upstream failure degrades to zero results; the caller never sees an
// error from Search.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type serpResponse struct {
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Website     string `json:"website"`
	} `json:"knowledge_graph"`
	AnswerBox *struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"answer_box"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Source  string `json:"source"`
	} `json:"organic_results"`
}

// Search runs a web search for the query and returns scored results,
// knowledge-graph and featured answers first. It returns an empty slice
// on missing credentials or upstream failure.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []models.WebResult {
	if c.apiKey == "" {
		c.logger.Warn("Web search skipped: no API key configured")
		return nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	resp, err := c.fetch(ctx, query+" "+medicalQualifier, maxResults)
	if err != nil {
		c.logger.WithError(err).WithField("query", query).Warn("Web search failed")
		return nil
	}

	results := make([]models.WebResult, 0, maxResults+2)

	if kg := resp.KnowledgeGraph; kg != nil && kg.Title != "" {
		results = append(results, models.WebResult{
			Title:          kg.Title,
			URL:            kg.Website,
			Snippet:        truncateSnippet(kg.Description),
			Source:         "Knowledge Graph",
			RelevanceScore: knowledgeGraphScore,
			Type:           models.WebResultKnowledgeGraph,
		})
	}

	if ab := resp.AnswerBox; ab != nil && (ab.Title != "" || ab.Snippet != "") {
		title := ab.Title
		if title == "" {
			title = "Featured Answer"
		}
		results = append(results, models.WebResult{
			Title:          title,
			URL:            ab.Link,
			Snippet:        truncateSnippet(ab.Snippet),
			Source:         "Featured Snippet",
			RelevanceScore: featuredSnippetScore,
			Type:           models.WebResultFeaturedSnippet,
		})
	}

	for _, organic := range resp.OrganicResults {
		if len(results) >= maxResults+2 {
			break
		}
		if organic.Title == "" || organic.Link == "" {
			// Malformed upstream item, skip without aborting the batch.
			continue
		}
		source := organic.Source
		if source == "" {
			source = hostOf(organic.Link)
		}
		results = append(results, models.WebResult{
			Title:          organic.Title,
			URL:            organic.Link,
			Snippet:        truncateSnippet(organic.Snippet),
			Source:         source,
			RelevanceScore: scoreResult(organic.Title, organic.Snippet, organic.Link),
			Type:           models.WebResultOrganic,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"query":   query,
		"results": len(results),
	}).Debug("Web search completed")

	return results
}

func (c *Client) fetch(ctx context.Context, query string, maxResults int) (*serpResponse, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &parsed, nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
