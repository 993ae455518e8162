package websearch

import (
	"strings"
)

const (
	baseScore          = 0.5
	keywordBonus       = 0.1
	trustedDomainBonus = 0.2
	maxScore           = 1.0

	knowledgeGraphScore  = 0.95
	featuredSnippetScore = 0.9

	maxSnippetLength = 200
)

// medicalKeywords is the fixed vocabulary used to bias scoring toward
// clinical content.
var medicalKeywords = []string{
	"disease", "treatment", "diagnosis", "symptom", "clinical",
	"therapy", "medication", "patient", "medicine", "health",
	"condition", "syndrome", "prevention", "prognosis",
}

// trustedDomains is the allow-list of sources that earn the domain bonus.
var trustedDomains = []string{
	"pubmed.ncbi.nlm.nih.gov", "ncbi.nlm.nih.gov", "nih.gov",
	"mayoclinic.org", "who.int", "cdc.gov", "medlineplus.gov",
	"healthline.com", "clevelandclinic.org", "webmd.com",
}

// scoreResult computes the heuristic relevance of an organic result.
// Start at 0.5, +0.1 per matched keyword in title+snippet, +0.2 once for
// a trusted domain, capped at 1.0.
func scoreResult(title, snippet, rawURL string) float64 {
	score := baseScore
	haystack := strings.ToLower(title + " " + snippet)

	for _, keyword := range medicalKeywords {
		if strings.Contains(haystack, keyword) {
			score += keywordBonus
		}
	}

	if isTrustedDomain(rawURL) {
		score += trustedDomainBonus
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}

func isTrustedDomain(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, domain := range trustedDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

func truncateSnippet(snippet string) string {
	if len(snippet) <= maxSnippetLength {
		return snippet
	}
	return snippet[:maxSnippetLength-3] + "..."
}
