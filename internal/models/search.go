package models

// ReferencePassage is a single passage returned by the local medical
// reference vector store. Scores are in [0,1], higher is better.
type ReferencePassage struct {
	Text           string  `json:"text"`
	Source         string  `json:"source"`
	Page           int     `json:"page"`
	RelevanceScore float64 `json:"relevance_score"`
}

// WebResultType distinguishes how a web search result was surfaced.
type WebResultType string

const (
	WebResultOrganic         WebResultType = "organic"
	WebResultKnowledgeGraph  WebResultType = "knowledge_graph"
	WebResultFeaturedSnippet WebResultType = "featured_snippet"
)

// WebResult is a single ranked result from the web search provider.
type WebResult struct {
	Title          string        `json:"title"`
	URL            string        `json:"url"`
	Snippet        string        `json:"snippet"`
	Source         string        `json:"source"`
	RelevanceScore float64       `json:"relevance_score"`
	Type           WebResultType `json:"type"`
}

// ProviderAttempt records one step of the LLM fallback chain. Used for
// logging only; never persisted.
type ProviderAttempt struct {
	Provider  string `json:"provider"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}
