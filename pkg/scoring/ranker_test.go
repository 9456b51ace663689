package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

func TestBiasMatch(t *testing.T) {
	tests := []struct {
		name       string
		stance     domain.Stance
		confidence float64
		preference float64
		expected   float64
	}{
		{"confirming support article", domain.StanceSupport, 0.8, 0.9, 0.82},
		{"opposing article for confirm seeker", domain.StanceOppose, 0.8, 0.9, 0.18},
		{"support article for challenge seeker", domain.StanceSupport, 0.8, 0.1, 0.26},
		{"oppose article for challenge seeker", domain.StanceOppose, 0.8, 0.1, 0.74},
		{"neutral pins to midpoint", domain.StanceNeutral, 0.9, 1.0, 0.5},
		{"zero confidence pins to midpoint", domain.StanceSupport, 0.0, 1.0, 0.5},
		{"full confidence full preference", domain.StanceSupport, 1.0, 1.0, 1.0},
		{"indifferent preference", domain.StanceSupport, 1.0, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := domain.StanceResult{Stance: tt.stance, Confidence: tt.confidence}
			assert.InDelta(t, tt.expected, BiasMatch(result, tt.preference), 1e-9)
		})
	}
}

func TestBiasMatch_NeutralInvariant(t *testing.T) {
	// a neutral verdict scores 0.5 regardless of the preference
	result := domain.StanceResult{Stance: domain.StanceNeutral, Confidence: 0.7}
	for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		assert.InDelta(t, 0.5, BiasMatch(result, p), 1e-9, "preference %v", p)
	}
}

func TestBiasMatch_MonotonicInPreference(t *testing.T) {
	support := domain.StanceResult{Stance: domain.StanceSupport, Confidence: 0.6}
	oppose := domain.StanceResult{Stance: domain.StanceOppose, Confidence: 0.6}

	prev := BiasMatch(support, 0)
	for p := 0.1; p <= 1.0; p += 0.1 {
		cur := BiasMatch(support, p)
		assert.GreaterOrEqual(t, cur, prev, "support score grows with preference")
		prev = cur
	}

	prev = BiasMatch(oppose, 0)
	for p := 0.1; p <= 1.0; p += 0.1 {
		cur := BiasMatch(oppose, p)
		assert.LessOrEqual(t, cur, prev, "oppose score falls with preference")
		prev = cur
	}
}

func TestBiasMatch_ClampsInputs(t *testing.T) {
	result := domain.StanceResult{Stance: domain.StanceSupport, Confidence: 2.0}
	assert.InDelta(t, 1.0, BiasMatch(result, 1.5), 1e-9)
	assert.InDelta(t, 0.0, BiasMatch(result, -0.5), 1e-9)
}

func TestRanker_Finalize(t *testing.T) {
	cfg := config.ScoringConfig{Alpha: 0.5, Beta: 0.5}
	ranker := NewRanker(cfg)

	t.Run("orders by final score descending", func(t *testing.T) {
		articles := []domain.ScoredArticle{
			{
				Article:        domain.ArticleCandidate{URL: "https://example.com/weak"},
				StanceResult:   domain.StanceResult{Stance: domain.StanceOppose, Confidence: 0.8},
				RelevanceScore: 0.3,
			},
			{
				Article:        domain.ArticleCandidate{URL: "https://example.com/strong"},
				StanceResult:   domain.StanceResult{Stance: domain.StanceSupport, Confidence: 0.8},
				RelevanceScore: 0.9,
			},
		}

		ranked := ranker.Finalize(articles, 0.9)
		require.Len(t, ranked, 2)
		assert.Equal(t, "https://example.com/strong", ranked[0].Article.URL)
		assert.InDelta(t, 0.5*0.9+0.5*0.82, ranked[0].FinalScore, 1e-9)
		assert.InDelta(t, 0.5*0.3+0.5*0.18, ranked[1].FinalScore, 1e-9)
	})

	t.Run("ties broken by published date, newest first", func(t *testing.T) {
		older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		articles := []domain.ScoredArticle{
			{
				Article:        domain.ArticleCandidate{URL: "https://example.com/old", Published: older},
				StanceResult:   domain.StanceResult{Stance: domain.StanceNeutral, Confidence: 0.5},
				RelevanceScore: 0.6,
			},
			{
				Article:        domain.ArticleCandidate{URL: "https://example.com/new", Published: newer},
				StanceResult:   domain.StanceResult{Stance: domain.StanceNeutral, Confidence: 0.5},
				RelevanceScore: 0.6,
			},
		}

		ranked := ranker.Finalize(articles, 0.5)
		assert.Equal(t, "https://example.com/new", ranked[0].Article.URL)
		assert.Equal(t, "https://example.com/old", ranked[1].Article.URL)
	})

	t.Run("alpha one ignores bias match", func(t *testing.T) {
		ranker := NewRanker(config.ScoringConfig{Alpha: 1, Beta: 0})
		articles := []domain.ScoredArticle{
			{
				Article:        domain.ArticleCandidate{URL: "https://example.com/a"},
				StanceResult:   domain.StanceResult{Stance: domain.StanceSupport, Confidence: 1},
				RelevanceScore: 0.4,
			},
		}
		ranked := ranker.Finalize(articles, 1)
		assert.InDelta(t, 0.4, ranked[0].FinalScore, 1e-9)
	})
}
