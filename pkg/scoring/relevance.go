// Package scoring computes relevance, belief alignment, and the fused final
// score used to order articles.
package scoring

import (
	"strings"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
	"github.com/lensnews/lensnet/pkg/search"
)

// Relevance scores how well a candidate matches the query, independent of
// any belief. Sub-scores are combined by configured weights.
type Relevance struct {
	topicalWeight float64
	sourceWeight  float64
	depthWeight   float64

	depthThreshold int
	credibility    map[string]float64
}

// NewRelevance creates a relevance scorer from scoring config
func NewRelevance(cfg config.ScoringConfig) *Relevance {
	return &Relevance{
		topicalWeight:  cfg.TopicalWeight,
		sourceWeight:   cfg.SourceWeight,
		depthWeight:    cfg.DepthWeight,
		depthThreshold: cfg.DepthWordThreshold,
		credibility:    cfg.SourceCredibility,
	}
}

// Score returns the weighted relevance of a candidate for the query, in
// [0..1]
func (r *Relevance) Score(query string, article domain.ArticleCandidate) float64 {
	total := r.topicalWeight + r.sourceWeight + r.depthWeight
	if total == 0 {
		return 0
	}
	weighted := r.topicalWeight*r.topical(query, article) +
		r.sourceWeight*r.source(article) +
		r.depthWeight*r.depth(article)
	return weighted / total
}

// topical is the fraction of query terms present in the article, with
// title hits weighted double
func (r *Relevance) topical(query string, article domain.ArticleCandidate) float64 {
	terms := search.Terms(query)
	if len(terms) == 0 {
		return 0
	}
	title := strings.ToLower(article.Title)
	body := strings.ToLower(article.Text())
	hits := 0
	for _, term := range terms {
		switch {
		case strings.Contains(title, term):
			hits += 2
		case strings.Contains(body, term):
			hits++
		}
	}
	return float64(hits) / float64(2*len(terms))
}

// source looks up the credibility weight for the article's source domain
func (r *Relevance) source(article domain.ArticleCandidate) float64 {
	if w, ok := r.credibility[article.SourceDomain]; ok {
		return w
	}
	return config.DefaultSourceCredibility
}

// depth saturates at the configured word count, rewarding substantive
// coverage over headline stubs
func (r *Relevance) depth(article domain.ArticleCandidate) float64 {
	if r.depthThreshold <= 0 {
		return 0
	}
	words := len(strings.Fields(article.Text()))
	if words >= r.depthThreshold {
		return 1
	}
	return float64(words) / float64(r.depthThreshold)
}
