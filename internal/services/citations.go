package services

import (
	"fmt"
	"strings"

	"github.com/arogya-app/arogya/backend/internal/models"
)

const (
	// MinReferenceConfidence is the floor (inclusive) below which local
	// reference matches are neither injected into context nor displayed.
	MinReferenceConfidence = 0.3

	// highConfidenceScore marks matches good enough to show a percentage.
	highConfidenceScore = 0.8

	// SourcesHeader introduces the citation block on chat responses.
	SourcesHeader = "\n\n---\n\n**Sources:**\n"

	// ReferencesHeader introduces the citation block on summaries.
	ReferencesHeader = "\n\n---\n\n**References:**\n"
)

// FilterCitations drops citations that must never reach user output:
// fallback sentinels, placeholder titles, and low-confidence reference
// matches.
func FilterCitations(citations []models.Citation) []models.Citation {
	if len(citations) == 0 {
		return nil
	}
	filtered := make([]models.Citation, 0, len(citations))
	for _, c := range citations {
		if c.IsPlaceholder() {
			continue
		}
		if c.Type == models.CitationMedicalReference && c.Confidence < MinReferenceConfidence {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

// FormatCitations renders an ordered citation list. Callers filter first.
func FormatCitations(citations []models.Citation) string {
	var sb strings.Builder
	for i, c := range citations {
		sb.WriteString(fmt.Sprintf("%d. **%s**", i+1, c.Title))

		switch c.Type {
		case models.CitationMedicalReference:
			if c.Confidence >= highConfidenceScore {
				sb.WriteString(fmt.Sprintf(" (%.0f%% match)", c.Confidence*100))
			}
			sb.WriteString(" | Local Medical Library")
		case models.CitationWebSearch:
			if c.Source != "" {
				sb.WriteString(" | " + c.Source)
			}
		case models.CitationMedicalRecord:
			if c.Date != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", c.Date))
			}
			if c.RecordType != "" {
				sb.WriteString(" - " + c.RecordType)
			}
			if c.Owner != "" {
				sb.WriteString(" | " + c.Owner)
			}
		}

		if i < len(citations)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
