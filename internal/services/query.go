package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
	"github.com/arogya-app/arogya/backend/internal/reference"
)

const (
	localSearchResults = 5
	webSearchResults   = 5
)

// LocalSearcher is the local reference corpus surface.
// *reference.Service implements it.
type LocalSearcher interface {
	EnsureReady(ctx context.Context) bool
	Search(ctx context.Context, query string, nResults int) []models.ReferencePassage
}

// WebSearcher is the web search surface. *websearch.Client implements it.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) []models.WebResult
}

// QueryProcessor merges local reference search and web search into one
// enriched context block plus the combined, unfiltered citation list.
// It never returns an error: each source degrades to zero results.
type QueryProcessor struct {
	local    LocalSearcher
	web      WebSearcher
	deadline time.Duration
	logger   *logrus.Logger
}

func NewQueryProcessor(local LocalSearcher, web WebSearcher, deadline time.Duration, logger *logrus.Logger) *QueryProcessor {
	if deadline <= 0 {
		deadline = 12 * time.Second
	}
	return &QueryProcessor{
		local:    local,
		web:      web,
		deadline: deadline,
		logger:   logger,
	}
}

// Process runs both searches under a shared deadline and returns the
// user context enriched with search evidence, plus all citations
// (unfiltered; display filtering happens at format time).
func (p *QueryProcessor) Process(ctx context.Context, query, userContext string) (string, []models.Citation) {
	searchCtx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	var (
		wg       sync.WaitGroup
		passages []models.ReferencePassage
		webHits  []models.WebResult
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if p.local.EnsureReady(searchCtx) {
			passages = p.local.Search(searchCtx, query, localSearchResults)
		}
	}()
	go func() {
		defer wg.Done()
		webHits = p.web.Search(searchCtx, query, webSearchResults)
	}()
	wg.Wait()

	var sb strings.Builder
	sb.WriteString(userContext)

	highConfidence := 0
	usable := 0
	for _, passage := range passages {
		if passage.RelevanceScore >= highConfidenceScore {
			highConfidence++
		}
		if passage.RelevanceScore >= MinReferenceConfidence {
			usable++
		}
	}

	if usable > 0 {
		sb.WriteString("\n\n=== Medical Reference Library ===\n")
		for _, passage := range passages {
			if passage.RelevanceScore < MinReferenceConfidence {
				continue
			}
			title := reference.DisplayTitle(passage.Source)
			sb.WriteString(fmt.Sprintf("[%s, p.%d] %s\n", title, passage.Page, passage.Text))
		}
	}

	if len(webHits) > 0 {
		sb.WriteString("\n\n=== Web Search Results ===\n")
		for _, hit := range webHits {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", hit.Title, hit.Source, hit.Snippet))
		}
	}

	sb.WriteString(fmt.Sprintf(
		"\n\n--- Search Summary ---\nQuery: %s\nLocal reference passages found: %d (%d high-confidence)\nWeb results found: %d\n",
		query, len(passages), highConfidence, len(webHits),
	))

	citations := make([]models.Citation, 0, len(passages)+len(webHits))
	citations = append(citations, reference.Citations(passages)...)
	for _, hit := range webHits {
		citations = append(citations, models.NewWebCitation(hit.Title, hit.URL, hit.Source))
	}

	p.logger.WithFields(logrus.Fields{
		"query":         query,
		"local_results": len(passages),
		"web_results":   len(webHits),
	}).Debug("Query processing completed")

	return sb.String(), citations
}
