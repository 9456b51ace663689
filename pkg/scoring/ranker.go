package scoring

import (
	"sort"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

// Ranker fuses relevance and belief alignment into the final ordering
type Ranker struct {
	alpha float64
	beta  float64
}

// NewRanker creates a ranker with the configured fusion weights
func NewRanker(cfg config.ScoringConfig) *Ranker {
	return &Ranker{alpha: cfg.Alpha, beta: cfg.Beta}
}

// BiasMatch maps a stance result and a bias preference to [0..1]. The
// preference p expresses how much the user wants belief-confirming
// coverage: 1 means confirming only, 0 means challenging only, 0.5 is
// indifferent. Classifier confidence interpolates toward the neutral 0.5
// midpoint, so a low-confidence verdict moves the score very little.
func BiasMatch(result domain.StanceResult, preference float64) float64 {
	p := clamp01(preference)
	c := clamp01(result.Confidence)

	switch result.Stance {
	case domain.StanceSupport:
		return p*c + 0.5*(1-c)
	case domain.StanceOppose:
		return (1-p)*c + 0.5*(1-c)
	default:
		return 0.5
	}
}

// Finalize computes bias match and final scores for every article and sorts
// by final score descending, newest first on ties. The sort is stable so
// equal articles keep their fetch order.
func (r *Ranker) Finalize(articles []domain.ScoredArticle, preference float64) []domain.ScoredArticle {
	for i := range articles {
		articles[i].BiasMatchScore = BiasMatch(articles[i].StanceResult, preference)
		articles[i].FinalScore = r.alpha*articles[i].RelevanceScore + r.beta*articles[i].BiasMatchScore
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].FinalScore != articles[j].FinalScore {
			return articles[i].FinalScore > articles[j].FinalScore
		}
		return articles[i].Article.Published.After(articles[j].Article.Published)
	})
	return articles
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
