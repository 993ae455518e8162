// backend/cmd/ingest/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/arogya-app/arogya/backend/internal/config"
	"github.com/arogya-app/arogya/backend/internal/reference"
	"github.com/arogya-app/arogya/backend/pkg/utils"
)

// MedicalPageConfig represents one crawlable reference page
type MedicalPageConfig struct {
	Title    string
	URL      string
	Priority int
}

// CorpusIngester walks the reference directory and crawls trusted
// medical pages, chunking and embedding everything into the vector store.
type CorpusIngester struct {
	store     *reference.Store
	collector *colly.Collector
	splitter  textsplitter.RecursiveCharacter
	logger    *logrus.Logger
	processed map[string]bool
	errors    []error
}

var (
	// Trusted medical reference pages for the optional crawl
	MedicalPages = []MedicalPageConfig{
		{Title: "Hypertension", Priority: 9, URL: "https://medlineplus.gov/highbloodpressure.html"},
		{Title: "Diabetes", Priority: 9, URL: "https://medlineplus.gov/diabetes.html"},
		{Title: "Asthma", Priority: 8, URL: "https://medlineplus.gov/asthma.html"},
		{Title: "Heart_disease", Priority: 8, URL: "https://medlineplus.gov/heartdiseases.html"},
		{Title: "Cholesterol", Priority: 7, URL: "https://medlineplus.gov/cholesterol.html"},
		{Title: "Thyroid_diseases", Priority: 7, URL: "https://medlineplus.gov/thyroiddiseases.html"},
		{Title: "Anemia", Priority: 6, URL: "https://medlineplus.gov/anemia.html"},
		{Title: "Migraine", Priority: 6, URL: "https://medlineplus.gov/migraine.html"},
		{Title: "Antibiotics", Priority: 5, URL: "https://medlineplus.gov/antibiotics.html"},
		{Title: "Vitamin_D", Priority: 4, URL: "https://medlineplus.gov/vitamindtest.html"},
	}

	// Command line flags
	dryRun     = flag.Bool("dry-run", false, "Don't write to the vector store, just print what would be ingested")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	refDir     = flag.String("dir", "./references", "Directory of reference PDFs and text files")
	crawl      = flag.Bool("crawl", false, "Also crawl trusted medical reference pages")
	pageLimit  = flag.Int("limit", 0, "Limit number of crawled pages (0 = all)")
	concurrent = flag.Int("concurrent", 2, "Number of concurrent crawl requests")
	delay      = flag.Duration("delay", 2*time.Second, "Delay between crawl requests")
)

func init() {
	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			log.Printf("Failed to set UniDoc license key: %v. PDF extraction will fail.", err)
		}
	}
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting medical reference corpus ingester...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	var store *reference.Store
	if !*dryRun {
		embedder := reference.NewEmbedder(cfg.Ollama.URL, cfg.Ollama.EmbedModel)
		store = reference.NewStore(cfg.Chroma.URL, cfg.Chroma.Collection, embedder, logger)
		if err := store.EnsureCollection(context.Background()); err != nil {
			logger.WithError(err).Fatal("Vector store unavailable")
		}
	}

	ingester := NewCorpusIngester(store, logger)

	ctx := context.Background()
	if err := ingester.IngestDirectory(ctx, *refDir); err != nil {
		logger.WithError(err).Fatal("Reference directory ingestion failed")
	}

	if *crawl {
		if err := ingester.CrawlPages(ctx); err != nil {
			logger.WithError(err).Fatal("Reference page crawl failed")
		}
	}

	if len(ingester.errors) > 0 {
		logger.WithField("errors", len(ingester.errors)).Warn("Ingestion finished with errors")
		for _, e := range ingester.errors {
			logger.WithError(e).Warn("Ingestion error")
		}
		os.Exit(1)
	}

	logger.Info("Corpus ingestion completed successfully!")
}

func NewCorpusIngester(store *reference.Store, logger *logrus.Logger) *CorpusIngester {
	c := colly.NewCollector(
		colly.UserAgent("Arogya-Ingest/1.0"),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: *concurrent,
		Delay:       *delay,
	})
	c.SetRequestTimeout(30 * time.Second)

	return &CorpusIngester{
		store:     store,
		collector: c,
		splitter:  textsplitter.NewRecursiveCharacter(textsplitter.WithChunkSize(1000), textsplitter.WithChunkOverlap(100)),
		logger:    logger,
		processed: make(map[string]bool),
		errors:    make([]error, 0),
	}
}

// IngestDirectory walks the reference directory and ingests every
// supported file. PDFs keep their page numbers; plain text files are
// ingested as page 0.
func (ci *CorpusIngester) IngestDirectory(ctx context.Context, dir string) error {
	ci.logger.WithField("dir", dir).Info("Scanning reference directory")

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf":
			if err := ci.ingestPDF(ctx, path); err != nil {
				ci.logger.WithError(err).WithField("file", path).Error("Failed to ingest PDF")
				ci.errors = append(ci.errors, err)
			}
		case ".txt", ".md":
			if err := ci.ingestTextFile(ctx, path); err != nil {
				ci.logger.WithError(err).WithField("file", path).Error("Failed to ingest text file")
				ci.errors = append(ci.errors, err)
			}
		}
		return nil
	})
}

// ingestPDF extracts each page separately so that passages keep a
// citable page number.
func (ci *CorpusIngester) ingestPDF(ctx context.Context, path string) error {
	source := sourceName(path)
	ci.logger.WithFields(logrus.Fields{
		"file":   path,
		"source": source,
	}).Info("Ingesting PDF")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return err
	}

	if err := ci.deleteExisting(ctx, source); err != nil {
		return err
	}

	totalChunks := 0
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page, err := pdfReader.GetPage(pageNum)
		if err != nil {
			return fmt.Errorf("failed to read page %d of %s: %w", pageNum, path, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return err
		}
		text, err := ex.ExtractText()
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		n, err := ci.ingestText(ctx, text, source, pageNum)
		if err != nil {
			return err
		}
		totalChunks += n
	}

	ci.logger.WithFields(logrus.Fields{
		"source": source,
		"pages":  numPages,
		"chunks": totalChunks,
	}).Info("PDF ingested")
	return nil
}

func (ci *CorpusIngester) ingestTextFile(ctx context.Context, path string) error {
	source := sourceName(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := ci.deleteExisting(ctx, source); err != nil {
		return err
	}

	n, err := ci.ingestText(ctx, string(content), source, 0)
	if err != nil {
		return err
	}

	ci.logger.WithFields(logrus.Fields{
		"source": source,
		"chunks": n,
	}).Info("Text file ingested")
	return nil
}

// ingestText chunks one unit of text and embeds every chunk.
func (ci *CorpusIngester) ingestText(ctx context.Context, text, source string, page int) (int, error) {
	chunks, err := ci.splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("failed to split text from %s: %w", source, err)
	}

	for i, chunk := range chunks {
		if *dryRun {
			ci.logger.WithFields(logrus.Fields{
				"source": source,
				"page":   page,
				"chunk":  i,
				"length": len(chunk),
			}).Info("Would ingest chunk (dry run)")
			continue
		}

		err := ci.store.Add(ctx, reference.Chunk{
			ID:     fmt.Sprintf("%s-p%d-c%d-%s", source, page, i, uuid.New().String()[:8]),
			Text:   chunk,
			Source: source,
			Page:   page,
		})
		if err != nil {
			return i, fmt.Errorf("failed to add chunk %d of %s: %w", i, source, err)
		}
	}
	return len(chunks), nil
}

// CrawlPages fetches the configured trusted medical pages and ingests
// their text content with the page URL as source.
func (ci *CorpusIngester) CrawlPages(ctx context.Context) error {
	pages := make([]MedicalPageConfig, len(MedicalPages))
	copy(pages, MedicalPages)

	// Sort by priority (descending)
	for i := 0; i < len(pages)-1; i++ {
		for j := i + 1; j < len(pages); j++ {
			if pages[i].Priority < pages[j].Priority {
				pages[i], pages[j] = pages[j], pages[i]
			}
		}
	}

	if *pageLimit > 0 && *pageLimit < len(pages) {
		pages = pages[:*pageLimit]
		ci.logger.WithField("limit", *pageLimit).Info("Limited pages to crawl")
	}

	ci.logger.WithField("total_pages", len(pages)).Info("Crawling medical reference pages")

	byURL := make(map[string]MedicalPageConfig, len(pages))
	for _, p := range pages {
		byURL[p.URL] = p
	}

	ci.collector.OnHTML("main, article, body", func(e *colly.HTMLElement) {
		url := e.Request.URL.String()
		if ci.processed[url] {
			return
		}
		ci.processed[url] = true

		page, ok := byURL[url]
		if !ok {
			page = MedicalPageConfig{Title: url, URL: url}
		}

		text := strings.TrimSpace(e.Text)
		if text == "" {
			ci.logger.WithField("url", url).Warn("Crawled page yielded no text")
			return
		}

		if err := ci.deleteExisting(ctx, page.Title); err != nil {
			ci.errors = append(ci.errors, err)
			return
		}
		n, err := ci.ingestText(ctx, text, page.Title, 0)
		if err != nil {
			ci.logger.WithError(err).WithField("url", url).Error("Failed to ingest crawled page")
			ci.errors = append(ci.errors, err)
			return
		}
		ci.logger.WithFields(logrus.Fields{
			"page":   page.Title,
			"chunks": n,
		}).Info("Crawled page ingested")
	})

	ci.collector.OnError(func(r *colly.Response, err error) {
		ci.logger.WithError(err).WithField("url", r.Request.URL.String()).Error("Crawl request failed")
		ci.errors = append(ci.errors, err)
	})

	for _, page := range pages {
		if err := ci.collector.Visit(page.URL); err != nil {
			ci.logger.WithError(err).WithField("url", page.URL).Error("Failed to visit page")
			ci.errors = append(ci.errors, err)
		}
	}
	ci.collector.Wait()
	return nil
}

func (ci *CorpusIngester) deleteExisting(ctx context.Context, source string) error {
	if *dryRun {
		return nil
	}
	if err := ci.store.DeleteSource(ctx, source); err != nil {
		return fmt.Errorf("failed to delete existing chunks for %s: %w", source, err)
	}
	return nil
}

// sourceName derives the citable source identifier from a file path:
// the base name without extension, e.g. "harrison_principles_21st".
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
