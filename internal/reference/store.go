package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

// Store wraps the ChromaDB collection holding the vectorized medical
// reference corpus. The store is an optional dependency: construction
// never fails hard, and a missing or empty collection just means zero
// results.
type Store struct {
	client     chromago.Client
	collection chromago.Collection
	embedder   *Embedder
	name       string
	logger     *logrus.Logger
	mu         sync.Mutex
}

// Status reports whether the vector store can be reached and whether the
// reference collection has been opened.
type Status struct {
	Available   bool `json:"available"`
	Initialized bool `json:"collection_initialized"`
}

func NewStore(chromaURL, collectionName string, embedder *Embedder, logger *logrus.Logger) *Store {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(chromaURL))
	if err != nil {
		logger.WithError(err).Warn("Chroma client unavailable, local reference search disabled")
		client = nil
	}

	return &Store{
		client:   client,
		embedder: embedder,
		name:     collectionName,
		logger:   logger,
	}
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Available:   s.client != nil,
		Initialized: s.collection != nil,
	}
}

// EnsureCollection lazily opens (or creates) the reference collection.
func (s *Store) EnsureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return fmt.Errorf("chroma client not available")
	}
	if s.collection != nil {
		return nil
	}

	collection, err := s.client.GetOrCreateCollection(ctx, s.name)
	if err != nil {
		return fmt.Errorf("failed to open collection %q: %w", s.name, err)
	}
	s.collection = collection
	return nil
}

// Query embeds the query text and returns the closest passages, ordered
// by descending relevance (1 - distance). Store order is preserved for
// equal scores.
func (s *Store) Query(ctx context.Context, query string, nResults int) ([]models.ReferencePassage, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.Lock()
	collection := s.collection
	s.mu.Unlock()

	results, err := collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(nResults),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	if len(documentGroups) == 0 {
		return nil, nil
	}

	passages := make([]models.ReferencePassage, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}

		source, page := extractSourcePage(metadataGroups, i)

		score := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = 1 - float64(distanceGroups[0][i])
		}
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}

		passages = append(passages, models.ReferencePassage{
			Text:           text,
			Source:         source,
			Page:           page,
			RelevanceScore: score,
		})
	}
	return passages, nil
}

// Chunk is one embeddable slice of a reference document.
type Chunk struct {
	ID     string
	Text   string
	Source string
	Page   int
}

// Add embeds a chunk and writes it to the collection with its source
// and page metadata.
func (s *Store) Add(ctx context.Context, chunk Chunk) error {
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	vector, err := s.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("failed to embed chunk: %w", err)
	}

	s.mu.Lock()
	collection := s.collection
	s.mu.Unlock()

	metadata := chromago.NewDocumentMetadata(
		chromago.NewStringAttribute("source", chunk.Source),
		chromago.NewIntAttribute("page", int64(chunk.Page)),
	)
	return collection.Add(ctx,
		chromago.WithIDs(chromago.DocumentID(chunk.ID)),
		chromago.WithTexts(chunk.Text),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithMetadatas(metadata),
	)
}

// DeleteSource removes every chunk previously ingested from the given
// source, so a re-ingest never duplicates passages.
func (s *Store) DeleteSource(ctx context.Context, source string) error {
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	collection := s.collection
	s.mu.Unlock()

	where := chromago.EqString("source", source)
	return collection.Delete(ctx, chromago.WithWhereDelete(where))
}

// extractSourcePage pulls source file and page number out of the chroma
// document metadata. Items with missing fields still yield a passage;
// the zero values are harmless downstream.
func extractSourcePage(metadataGroups [][]chromago.DocumentMetadata, i int) (string, int) {
	if len(metadataGroups) == 0 || i >= len(metadataGroups[0]) || metadataGroups[0][i] == nil {
		return "", 0
	}

	// DocumentMetadata has no map accessor; round-trip through JSON.
	jsonBytes, err := json.Marshal(metadataGroups[0][i])
	if err != nil {
		return "", 0
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		return "", 0
	}

	source, _ := metaMap["source"].(string)
	page := 0
	if p, ok := metaMap["page"].(float64); ok {
		page = int(p)
	}
	return source, page
}
