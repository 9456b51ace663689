// Package pipeline orchestrates a ranking request end to end: query
// generation, fallback fetching, optional full-text enrichment, stance
// classification, scoring and final ordering.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lensnews/lensnet/pkg/domain"
	"github.com/lensnews/lensnet/pkg/fetcher"
	"github.com/lensnews/lensnet/pkg/scoring"
	"github.com/lensnews/lensnet/pkg/search"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/classifier.go -pkg mocks -skip-ensure -fmt goimports . Classifier
//go:generate moq -out mocks/enricher.go -pkg mocks -skip-ensure -fmt goimports . Enricher

// request shaping limits
const (
	defaultLimit = 10
	maxLimit     = 50
	// fetch more than requested so dedupe and ranking have slack
	overfetchFactor = 2
	// bounded classification fan-out, the LLM override may be slow
	classifyConcurrency = 8
)

// Fetcher runs the source fallback chain for one query
type Fetcher interface {
	Fetch(ctx context.Context, query string, limit int) []domain.ArticleCandidate
}

// Classifier produces a stance for one (belief, article) pair
type Classifier interface {
	Classify(ctx context.Context, belief, articleURL, articleText string) domain.StanceResult
}

// Enricher fills in full text for thin candidates
type Enricher interface {
	Enrich(ctx context.Context, candidates []domain.ArticleCandidate)
}

// Pipeline wires the stages together. Enricher may be nil when full-text
// extraction is disabled.
type Pipeline struct {
	Generator  *search.Generator
	Fetcher    Fetcher
	Enricher   Enricher
	Classifier Classifier
	Relevance  *scoring.Relevance
	Ranker     *scoring.Ranker
}

// New creates a pipeline from its stages
func New(p Pipeline) *Pipeline {
	return &p
}

// Rank executes one ranking request. Input validation is the only error
// path; downstream source failures degrade to smaller (possibly empty)
// result lists.
func (p *Pipeline) Rank(ctx context.Context, req domain.RankRequest) (domain.RankResponse, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return domain.RankResponse{}, err
	}

	queries, err := p.Generator.Queries(req.Query, req.BeliefText)
	if err != nil {
		return domain.RankResponse{}, fmt.Errorf("generate queries: %w", err)
	}

	started := time.Now()
	candidates := p.fetchAll(ctx, queries, req.Limit*overfetchFactor)
	log.Printf("[INFO] fetched %d candidates for %q in %v", len(candidates), req.Query, time.Since(started))

	if len(candidates) == 0 {
		// always return something, an empty list is a valid answer
		return domain.RankResponse{Articles: []domain.RankedArticle{}, Total: 0}, nil
	}

	if p.Enricher != nil {
		p.Enricher.Enrich(ctx, candidates)
	}

	scored := p.classifyAndScore(ctx, req, candidates)
	scored = p.Ranker.Finalize(scored, req.BiasPreference)
	if len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	articles := make([]domain.RankedArticle, 0, len(scored))
	for _, s := range scored {
		articles = append(articles, s.ToRanked())
	}
	return domain.RankResponse{Articles: articles, Total: len(articles)}, nil
}

// normalizeRequest validates the topic and belief and clamps the tunables
// into range
func normalizeRequest(req domain.RankRequest) (domain.RankRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, fmt.Errorf("topic_or_query is required: %w", domain.ErrInvalidInput)
	}
	req.BeliefText = strings.TrimSpace(req.BeliefText)
	if req.BeliefText == "" {
		return req, fmt.Errorf("belief_text is required: %w", domain.ErrInvalidInput)
	}

	if req.BiasPreference < 0 {
		req.BiasPreference = 0
	}
	if req.BiasPreference > 1 {
		req.BiasPreference = 1
	}

	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	return req, nil
}

// fetchAll runs the chain for each generated query and merges the results,
// deduplicated by normalized URL across queries
func (p *Pipeline) fetchAll(ctx context.Context, queries []string, limit int) []domain.ArticleCandidate {
	seen := make(map[string]struct{})
	var merged []domain.ArticleCandidate

	for _, query := range queries {
		if len(merged) >= limit {
			break
		}
		for _, c := range p.Fetcher.Fetch(ctx, query, limit-len(merged)) {
			key := fetcher.NormalizeURL(c.URL)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

// classifyAndScore runs stance classification and relevance scoring for
// every candidate with bounded concurrency. Order is preserved.
func (p *Pipeline) classifyAndScore(ctx context.Context, req domain.RankRequest, candidates []domain.ArticleCandidate) []domain.ScoredArticle {
	scored := make([]domain.ScoredArticle, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)
	for i := range candidates {
		g.Go(func() error {
			scored[i] = domain.ScoredArticle{
				Article:        candidates[i],
				StanceResult:   p.Classifier.Classify(ctx, req.BeliefText, candidates[i].URL, candidates[i].Text()),
				RelevanceScore: p.Relevance.Score(req.Query, candidates[i]),
			}
			return nil
		})
	}
	_ = g.Wait() // workers don't return errors

	return scored
}
