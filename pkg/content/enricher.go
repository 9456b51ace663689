package content

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor

// Extractor extracts article text from a URL
type Extractor interface {
	Extract(ctx context.Context, urlStr string) (string, error)
}

// Enricher fills in full text for thin candidates, those whose combined
// text is shorter than the configured minimum. Extraction failures are
// logged and the candidate keeps its original text; enrichment is best
// effort and never drops articles.
type Enricher struct {
	extractor     Extractor
	minTextLength int
	maxConcurrent int
}

// NewEnricher creates an enricher over the given extractor
func NewEnricher(extractor Extractor, cfg config.ExtractionConfig) *Enricher {
	return &Enricher{
		extractor:     extractor,
		minTextLength: cfg.MinTextLength,
		maxConcurrent: cfg.MaxConcurrent,
	}
}

// Enrich extracts full text for thin candidates in place, with bounded
// concurrency
func (e *Enricher) Enrich(ctx context.Context, candidates []domain.ArticleCandidate) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i := range candidates {
		if len(candidates[i].Text()) >= e.minTextLength {
			continue
		}
		g.Go(func() error {
			text, err := e.extractor.Extract(ctx, candidates[i].URL)
			if err != nil {
				log.Printf("[DEBUG] extraction failed for %s: %v", candidates[i].URL, err)
				return nil
			}
			candidates[i].Content = text
			return nil
		})
	}
	_ = g.Wait() // extraction errors are swallowed above
}
