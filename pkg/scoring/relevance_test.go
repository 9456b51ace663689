package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

func scoringCfg() config.ScoringConfig {
	return config.ScoringConfig{
		TopicalWeight:      0.5,
		SourceWeight:       0.25,
		DepthWeight:        0.25,
		DepthWordThreshold: 500,
		Alpha:              0.5,
		Beta:               0.5,
		SourceCredibility: map[string]float64{
			"reuters.com": 0.9,
			"example.com": 0.6,
		},
	}
}

func TestRelevance_Score(t *testing.T) {
	r := NewRelevance(scoringCfg())

	t.Run("all terms present scores high", func(t *testing.T) {
		article := domain.ArticleCandidate{
			Title:        "Climate change policy update",
			Content:      strings.Repeat("climate change policy discussion ", 200),
			SourceDomain: "reuters.com",
		}
		score := r.Score("climate change policy", article)
		// topical 1.0, source 0.9, depth 1.0 (800 words)
		assert.InDelta(t, 0.5*1.0+0.25*0.9+0.25*1.0, score, 1e-9)
	})

	t.Run("partial term match", func(t *testing.T) {
		article := domain.ArticleCandidate{
			Title:        "Climate summit opens",
			SourceDomain: "unknown.example.org",
		}
		score := r.Score("climate change policy", article)
		// topical 2/6 (one title hit), source default 0.5, depth 3/500
		expected := 0.5*(1.0/3.0) + 0.25*config.DefaultSourceCredibility + 0.25*(3.0/500.0)
		assert.InDelta(t, expected, score, 1e-9)
	})

	t.Run("more matching terms scores higher", func(t *testing.T) {
		base := domain.ArticleCandidate{Title: "Climate news", SourceDomain: "example.com"}
		better := domain.ArticleCandidate{Title: "Climate change policy news", SourceDomain: "example.com"}
		assert.Greater(t, r.Score("climate change policy", better), r.Score("climate change policy", base))
	})

	t.Run("title hits outweigh body hits", func(t *testing.T) {
		inTitle := domain.ArticleCandidate{
			Title:        "Climate policy shift",
			SourceDomain: "example.com",
		}
		inBody := domain.ArticleCandidate{
			Title:        "Morning brief",
			Content:      "climate policy debate continues",
			SourceDomain: "example.com",
		}
		assert.Greater(t, r.Score("climate policy", inTitle), r.Score("climate policy", inBody))
	})

	t.Run("credible source scores higher", func(t *testing.T) {
		text := "Climate change policy report"
		known := domain.ArticleCandidate{Title: text, SourceDomain: "reuters.com"}
		unknown := domain.ArticleCandidate{Title: text, SourceDomain: "random-blog.net"}
		assert.Greater(t, r.Score("climate change policy", known), r.Score("climate change policy", unknown))
	})

	t.Run("depth saturates at threshold", func(t *testing.T) {
		long := domain.ArticleCandidate{
			Title:        "Climate",
			Content:      strings.Repeat("word ", 600),
			SourceDomain: "example.com",
		}
		longer := domain.ArticleCandidate{
			Title:        "Climate",
			Content:      strings.Repeat("word ", 5000),
			SourceDomain: "example.com",
		}
		assert.InDelta(t, r.Score("climate", long), r.Score("climate", longer), 1e-9)
	})

	t.Run("score stays in unit range", func(t *testing.T) {
		article := domain.ArticleCandidate{
			Title:        "Climate change policy",
			Content:      strings.Repeat("climate change policy ", 1000),
			SourceDomain: "reuters.com",
		}
		score := r.Score("climate change policy", article)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("empty query scores zero topical", func(t *testing.T) {
		article := domain.ArticleCandidate{Title: "Anything", SourceDomain: "example.com"}
		score := r.Score("", article)
		expected := 0.25*0.6 + 0.25*(1.0/500.0)
		assert.InDelta(t, expected, score, 1e-9)
	})
}

func TestRelevance_ZeroWeights(t *testing.T) {
	r := NewRelevance(config.ScoringConfig{})
	assert.Zero(t, r.Score("anything", domain.ArticleCandidate{Title: "anything"}))
}
