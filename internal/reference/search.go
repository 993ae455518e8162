package reference

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

// PassageSource is the vector-store surface the search service needs.
// *Store implements it; tests substitute fakes.
type PassageSource interface {
	Status() Status
	EnsureCollection(ctx context.Context) error
	Query(ctx context.Context, query string, nResults int) ([]models.ReferencePassage, error)
}

// Service performs local reference search. Every failure degrades to
// zero results; the local corpus is an enhancement, never a dependency.
type Service struct {
	source PassageSource
	logger *logrus.Logger
}

func NewService(source PassageSource, logger *logrus.Logger) *Service {
	return &Service{
		source: source,
		logger: logger,
	}
}

func (s *Service) Status() Status {
	return s.source.Status()
}

// EnsureReady probes the collection, opening it lazily if the store is
// reachable but the collection has not been touched yet.
func (s *Service) EnsureReady(ctx context.Context) bool {
	status := s.source.Status()
	if !status.Available {
		return false
	}
	if status.Initialized {
		return true
	}
	if err := s.source.EnsureCollection(ctx); err != nil {
		s.logger.WithError(err).Warn("Reference collection initialization probe failed")
		return false
	}
	return true
}

// Search returns ranked passages for the query, or nil when the store is
// unavailable or the query fails.
func (s *Service) Search(ctx context.Context, query string, nResults int) []models.ReferencePassage {
	if !s.EnsureReady(ctx) {
		return nil
	}

	passages, err := s.source.Query(ctx, query, nResults)
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Warn("Local reference search failed")
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"query":   query,
		"results": len(passages),
	}).Debug("Local reference search completed")

	return passages
}

// Citations converts passages into Medical Reference citations. No
// confidence filtering happens here; that is the formatter's job.
func Citations(passages []models.ReferencePassage) []models.Citation {
	if len(passages) == 0 {
		return nil
	}
	citations := make([]models.Citation, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, models.NewReferenceCitation(DisplayTitle(p.Source), p.Page, p.RelevanceScore))
	}
	return citations
}
