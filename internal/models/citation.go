package models

import (
	"fmt"
	"strings"
)

// CitationType discriminates the provenance of a piece of evidence.
type CitationType string

const (
	CitationMedicalReference CitationType = "Medical Reference"
	CitationWebSearch        CitationType = "Web Search"
	CitationMedicalRecord    CitationType = "Medical Record"

	// CitationFallback marks an internal "search ran but found nothing"
	// sentinel. It must never survive citation filtering.
	CitationFallback CitationType = "fallback"
)

// Citation is the normalized provenance record attached to a response.
// Exactly one of the type-specific field groups is meaningful, selected
// by Type.
type Citation struct {
	Type  CitationType `json:"type"`
	Title string       `json:"title"`

	// Medical Reference fields
	Confidence float64 `json:"confidence,omitempty"`
	Page       int     `json:"page,omitempty"`

	// Web Search fields
	URL    string `json:"url,omitempty"`
	Source string `json:"source,omitempty"`

	// Medical Record fields
	Date       string `json:"date,omitempty"`
	RecordType string `json:"record_type,omitempty"`
	Owner      string `json:"owner,omitempty"`
}

// NewReferenceCitation builds a Medical Reference citation from a local
// vector-store passage.
func NewReferenceCitation(title string, page int, confidence float64) Citation {
	return Citation{
		Type:       CitationMedicalReference,
		Title:      title,
		Page:       page,
		Confidence: confidence,
	}
}

// NewWebCitation builds a Web Search citation.
func NewWebCitation(title, rawURL, source string) Citation {
	return Citation{
		Type:   CitationWebSearch,
		Title:  title,
		URL:    rawURL,
		Source: source,
	}
}

// NewRecordCitation builds a citation pointing at a patient health record.
func NewRecordCitation(title, date, recordType, owner string) Citation {
	return Citation{
		Type:       CitationMedicalRecord,
		Title:      title,
		Date:       date,
		RecordType: recordType,
		Owner:      owner,
	}
}

// IsPlaceholder reports whether the citation is a sentinel that stands in
// for "search ran with no results" and must not reach user output.
func (c Citation) IsPlaceholder() bool {
	if c.Type == CitationFallback {
		return true
	}
	title := strings.ToLower(c.Title)
	return strings.Contains(title, "web search attempted") ||
		strings.Contains(title, "search was attempted")
}

func (c Citation) String() string {
	return fmt.Sprintf("%s: %s", c.Type, c.Title)
}
