package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogya-app/arogya/backend/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(serverURL, apiKey string) *Client {
	return NewClient(serverURL, apiKey, 5*time.Second, testLogger())
}

func TestClient_MissingAPIKeyReturnsNothing(t *testing.T) {
	client := newTestClient("http://unused.invalid", "")

	results := client.Search(context.Background(), "diabetes symptoms", 5)

	assert.Nil(t, results)
}

func TestClient_UpstreamFailureReturnsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "key")

	results := client.Search(context.Background(), "diabetes symptoms", 5)

	assert.Nil(t, results)
}

func TestClient_AppendsMedicalQualifier(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "key")
	client.Search(context.Background(), "diabetes symptoms", 5)

	assert.Equal(t, "diabetes symptoms medical health information", gotQuery)
}

func TestClient_KnowledgeGraphAndAnswerBoxFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"knowledge_graph": {"title": "Diabetes", "description": "A metabolic disease.", "website": "https://who.int/diabetes"},
			"answer_box": {"title": "", "snippet": "Diabetes is a chronic condition.", "link": "https://cdc.gov/diabetes"},
			"organic_results": [
				{"title": "Diabetes overview", "link": "https://mayoclinic.org/diabetes", "snippet": "Symptoms and causes.", "source": "mayoclinic.org"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "key")
	results := client.Search(context.Background(), "diabetes", 5)

	require.Len(t, results, 3)

	assert.Equal(t, models.WebResultKnowledgeGraph, results[0].Type)
	assert.Equal(t, "Diabetes", results[0].Title)
	assert.Equal(t, 0.95, results[0].RelevanceScore)

	assert.Equal(t, models.WebResultFeaturedSnippet, results[1].Type)
	assert.Equal(t, "Featured Answer", results[1].Title)
	assert.Equal(t, 0.9, results[1].RelevanceScore)

	assert.Equal(t, models.WebResultOrganic, results[2].Type)
	assert.Equal(t, "Diabetes overview", results[2].Title)
}

func TestClient_MalformedOrganicResultsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"organic_results": [
				{"title": "", "link": "https://example.com/1", "snippet": "no title"},
				{"title": "No link", "link": "", "snippet": "no link"},
				{"title": "Good result", "link": "https://healthline.com/good", "snippet": "usable"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "key")
	results := client.Search(context.Background(), "query", 5)

	require.Len(t, results, 1)
	assert.Equal(t, "Good result", results[0].Title)
}

func TestClient_SourceFallsBackToHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"organic_results": [
				{"title": "Result", "link": "https://medlineplus.gov/page", "snippet": "text", "source": ""}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "key")
	results := client.Search(context.Background(), "query", 5)

	require.Len(t, results, 1)
	assert.Equal(t, "medlineplus.gov", results[0].Source)
}

func TestClient_SnippetTruncatedAt200(t *testing.T) {
	long := strings.Repeat("a", 250)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"organic_results": [
				{"title": "Result", "link": "https://example.com", "snippet": "` + long + `", "source": "example.com"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "key")
	results := client.Search(context.Background(), "query", 5)

	require.Len(t, results, 1)
	assert.Len(t, results[0].Snippet, 200)
	assert.True(t, strings.HasSuffix(results[0].Snippet, "..."))
}

func TestScoreResult(t *testing.T) {
	// Base score only: no keywords, untrusted domain.
	assert.InDelta(t, 0.5, scoreResult("Random page", "nothing medical here", "https://example.com"), 1e-9)

	// One keyword.
	assert.InDelta(t, 0.6, scoreResult("Treatment options", "", "https://example.com"), 1e-9)

	// Keyword plus trusted domain.
	assert.InDelta(t, 0.8, scoreResult("Treatment options", "", "https://mayoclinic.org/x"), 1e-9)

	// Score is capped at 1.0 no matter how many signals match.
	everything := strings.Join(medicalKeywords, " ")
	assert.InDelta(t, 1.0, scoreResult(everything, everything, "https://cdc.gov/x"), 1e-9)
}

func TestIsTrustedDomain(t *testing.T) {
	assert.True(t, isTrustedDomain("https://pubmed.ncbi.nlm.nih.gov/12345"))
	assert.True(t, isTrustedDomain("https://WWW.WHO.INT/page"))
	assert.False(t, isTrustedDomain("https://random-health-blog.example"))
}

func TestTruncateSnippet_ShortSnippetUntouched(t *testing.T) {
	assert.Equal(t, "short", truncateSnippet("short"))
	exact := strings.Repeat("b", 200)
	assert.Equal(t, exact, truncateSnippet(exact))
}
