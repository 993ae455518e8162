package services

import (
	"regexp"
	"strings"

	"github.com/arogya-app/arogya/backend/internal/models"
)

var (
	thinkBlockPattern   = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
	boldThinkingPattern = regexp.MustCompile(`(?is)\*\*\s*thinking:.*?\*\*`)
	excessNewlines      = regexp.MustCompile(`\n{3,}`)
)

// metaPhrases start throwaway reasoning paragraphs some models emit.
var metaPhrases = []string{
	"let me think",
	"i need to",
	"first, let me",
	"first let me",
}

// PostProcess cleans raw model output and appends the formatted citation
// block under the given header when at least one citation survives
// filtering. The function is idempotent.
func PostProcess(raw string, citations []models.Citation, header string) string {
	body := thinkBlockPattern.ReplaceAllString(raw, "")
	body = boldThinkingPattern.ReplaceAllString(body, "")
	body = stripMetaParagraphs(body)
	body = excessNewlines.ReplaceAllString(body, "\n\n")
	body = strings.TrimSpace(body)

	filtered := FilterCitations(citations)
	if len(filtered) == 0 {
		return body
	}
	return body + header + FormatCitations(filtered)
}

// stripMetaParagraphs drops paragraph-initial meta-commentary lines up to
// the next blank line or list marker.
func stripMetaParagraphs(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string

	skipping := false
	atParagraphStart := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if skipping {
			if trimmed == "" || isListMarker(trimmed) {
				skipping = false
			} else {
				continue
			}
		}

		if atParagraphStart && startsWithMetaPhrase(trimmed) {
			skipping = true
			continue
		}

		kept = append(kept, line)
		atParagraphStart = trimmed == ""
	}

	return strings.Join(kept, "\n")
}

func startsWithMetaPhrase(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range metaPhrases {
		if strings.HasPrefix(lower, phrase) {
			return true
		}
	}
	return false
}

func isListMarker(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		return true
	}
	if len(line) > 1 && line[0] >= '0' && line[0] <= '9' {
		rest := strings.TrimLeft(line, "0123456789")
		return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, ")")
	}
	return false
}
