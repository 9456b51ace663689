package stance

import (
	"context"
	"log"
	"strings"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

//go:generate moq -out mocks/override.go -pkg mocks -skip-ensure -fmt goimports . Override
//go:generate moq -out mocks/cache.go -pkg mocks -skip-ensure -fmt goimports . Cache

// Override is an optional second-opinion classifier consulted when the
// keyword result is ambiguous
type Override interface {
	Classify(ctx context.Context, belief, articleText string) (domain.StanceResult, error)
}

// Cache stores stance results keyed by belief and article URL
type Cache interface {
	Get(ctx context.Context, belief, articleURL string) (domain.StanceResult, bool, error)
	Set(ctx context.Context, belief, articleURL string, result domain.StanceResult) error
}

// Classifier is the hybrid stance classifier: the deterministic keyword
// pass always runs, and an LLM override replaces its verdict only when the
// keyword confidence falls below the ambiguity threshold. Override and
// cache are both optional; any failure in them degrades to the keyword
// result so classification never fails a request.
type Classifier struct {
	keyword   *Keyword
	override  Override
	cache     Cache
	budget    int
	threshold float64
}

// NewClassifier creates a hybrid classifier. Pass nil override or cache to
// disable those layers.
func NewClassifier(cfg config.StanceConfig, override Override, cache Cache) *Classifier {
	return &Classifier{
		keyword:   NewKeyword(),
		override:  override,
		cache:     cache,
		budget:    cfg.TextBudget,
		threshold: cfg.AmbiguityThreshold,
	}
}

// Classify returns the stance of the article toward the belief. With an
// empty belief everything is neutral and the expensive layers are skipped.
func (c *Classifier) Classify(ctx context.Context, belief, articleURL, articleText string) domain.StanceResult {
	if strings.TrimSpace(belief) == "" {
		return domain.StanceResult{Stance: domain.StanceNeutral, Confidence: neutralConfidence, Method: "none"}
	}

	if c.cache != nil {
		if cached, ok, err := c.cache.Get(ctx, belief, articleURL); err != nil {
			log.Printf("[WARN] stance cache read failed for %s: %v", articleURL, err)
		} else if ok {
			return cached
		}
	}

	text := truncate(articleText, c.budget)
	result := c.keyword.Classify(belief, text)

	if result.Confidence < c.threshold && c.override != nil {
		overridden, err := c.override.Classify(ctx, belief, text)
		if err != nil {
			log.Printf("[WARN] llm stance override failed for %s, keeping keyword result: %v", articleURL, err)
		} else {
			result = overridden
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, belief, articleURL, result); err != nil {
			log.Printf("[WARN] stance cache write failed for %s: %v", articleURL, err)
		}
	}
	return result
}

// truncate cuts text to at most budget runes, keeping whole words where it
// can
func truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	cut := string(runes[:budget])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut
}
