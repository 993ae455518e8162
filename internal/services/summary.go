package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

const (
	summaryCacheKind = "standard"

	// fallbackSearchQuery is used when the record yields no usable terms.
	fallbackSearchQuery = "general medical information"

	minSearchTermLength = 10
	summaryMaxDocs      = 2
	summaryDocPreview   = 500
	summaryWebResults   = 3
)

// SummaryBudget carries token and temperature limits for summaries.
type SummaryBudget struct {
	MaxTokens   int
	Temperature float64
}

// SummaryService generates cached, web-grounded summaries of single
// health records. The local reference corpus is not consulted in this
// path.
type SummaryService struct {
	records models.HealthRecordRepository
	web     WebSearcher
	invoker Invoker
	cache   *SummaryCache
	budget  SummaryBudget
	logger  *logrus.Logger
}

func NewSummaryService(
	records models.HealthRecordRepository,
	web WebSearcher,
	invoker Invoker,
	cache *SummaryCache,
	budget SummaryBudget,
	logger *logrus.Logger,
) *SummaryService {
	return &SummaryService{
		records: records,
		web:     web,
		invoker: invoker,
		cache:   cache,
		budget:  budget,
		logger:  logger,
	}
}

// Summarize returns the summary for a record, serving from cache when a
// fresh one exists. At most one generation runs per record at a time.
func (s *SummaryService) Summarize(ctx context.Context, recordID uint) (string, error) {
	key := fmt.Sprintf("summary:%d:%s", recordID, summaryCacheKind)

	summary, cached, err := s.cache.GetOrCompute(ctx, key, func() (string, error) {
		return s.generate(ctx, recordID)
	})
	if err != nil {
		return "", err
	}
	if cached {
		s.logger.WithField("record_id", recordID).Debug("Summary served from cache")
	}
	return summary, nil
}

func (s *SummaryService) generate(ctx context.Context, recordID uint) (string, error) {
	record, err := s.records.GetByID(recordID)
	if err != nil {
		return "", fmt.Errorf("failed to load record: %w", err)
	}

	prompt := s.buildPrompt(record)

	summary, err := s.generateEnhanced(ctx, record, prompt)
	if err != nil {
		s.logger.WithError(err).WithField("record_id", recordID).Warn("Enhanced summary failed, falling back to plain summary")
		return s.generatePlain(ctx, prompt)
	}
	return summary, nil
}

// generateEnhanced grounds the summary with live web evidence and
// appends citations.
func (s *SummaryService) generateEnhanced(ctx context.Context, record *models.HealthRecord, prompt string) (string, error) {
	query := deriveSearchTerms(record)
	webHits := s.web.Search(ctx, query, summaryWebResults)

	var sb strings.Builder
	sb.WriteString(prompt)
	if len(webHits) > 0 {
		sb.WriteString("\n\n=== Web Evidence ===\n")
		for _, hit := range webHits {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", hit.Title, hit.Source, hit.Snippet))
		}
	}

	raw, _, err := s.invoker.Invoke(ctx, SummarySystemPrompt(), sb.String(), s.budget.Temperature, s.budget.MaxTokens)
	if err != nil {
		return "", err
	}

	citations := make([]models.Citation, 0, len(webHits))
	for _, hit := range webHits {
		citations = append(citations, models.NewWebCitation(hit.Title, hit.URL, hit.Source))
	}
	return PostProcess(raw, citations, ReferencesHeader), nil
}

// generatePlain is the uncited last resort when the enhanced path fails.
func (s *SummaryService) generatePlain(ctx context.Context, prompt string) (string, error) {
	raw, _, err := s.invoker.Invoke(ctx, SummarySystemPrompt(), prompt, s.budget.Temperature, s.budget.MaxTokens)
	if err != nil {
		return "", err
	}
	return PostProcess(raw, nil, ReferencesHeader), nil
}

func (s *SummaryService) buildPrompt(record *models.HealthRecord) string {
	var sb strings.Builder
	sb.WriteString("=== Health Record ===\n")
	sb.WriteString(describeRecord(*record))

	docs := record.Documents
	if len(docs) > summaryMaxDocs {
		docs = docs[:summaryMaxDocs]
	}
	for _, doc := range docs {
		if doc.ExtractedText == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\nDocument %s:\n%s\n", doc.FileName, truncate(doc.ExtractedText, summaryDocPreview)))
	}
	return sb.String()
}

// deriveSearchTerms builds the web query from the record's clinical
// fields, falling back to a generic query when they are too thin.
func deriveSearchTerms(record *models.HealthRecord) string {
	parts := make([]string, 0, 3)
	for _, field := range []string{record.ChiefComplaint, record.Diagnosis, record.Prescription} {
		if field = strings.TrimSpace(field); field != "" {
			parts = append(parts, field)
		}
	}
	terms := strings.Join(parts, " ")
	if len(terms) < minSearchTermLength {
		return fallbackSearchQuery
	}
	return terms
}
