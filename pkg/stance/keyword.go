// Package stance classifies an article's position toward a user belief.
// A deterministic keyword classifier runs first; an optional LLM override
// is consulted only when the keyword result is ambiguous.
package stance

import (
	"strings"

	"github.com/lensnews/lensnet/pkg/domain"
)

// indicator term lists for rule-based classification
var (
	supportIndicators = []string{
		// agreement indicators
		"supports", "agrees", "backs", "endorses", "approves", "favors",
		"advocates", "champions", "defends", "upholds",
		"confirms", "validates", "proves", "demonstrates",
		"study finds", "research shows", "analysis reveals",
		// positive framing
		"success", "achievement", "progress", "improvement", "growth",
		"benefit", "advantage", "positive", "effective",
		// action indicators
		"implements", "enacts", "establishes", "expands", "strengthens", "enhances",
	}

	opposeIndicators = []string{
		// disagreement indicators
		"opposes", "disagrees", "rejects", "denies", "contradicts",
		"challenges", "criticizes", "condemns", "attacks",
		"refutes", "debunks", "disproves", "undermines", "weakens",
		// negative framing
		"failure", "problem", "concern", "risk", "danger",
		"harm", "damage", "negative", "ineffective", "failing",
		// action indicators
		"repeals", "eliminates", "restricts", "blocks", "prevents",
	}

	neutralIndicators = []string{
		"reports", "states", "says", "announces", "declares",
		"notes", "mentions", "describes", "explains", "details",
		"according to", "as reported", "sources say",
	}
)

// negations flip the polarity of a nearby support/oppose indicator
var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "hardly": {},
	"doesn't": {}, "don't": {}, "didn't": {}, "isn't": {}, "aren't": {},
	"wasn't": {}, "won't": {}, "cannot": {}, "can't": {},
}

// confidence shape of the rule-based method: each matched indicator adds
// 1/confidenceDivisor, capped at maxRuleConfidence
const (
	maxRuleConfidence  = 0.8
	confidenceDivisor  = 5.0
	neutralConfidence  = 0.5
	negationLookbehind = 3 // words
	maxEvidence        = 5
)

// Keyword is the rule-based stance classifier. Classification is a pure
// function of the two text inputs.
type Keyword struct{}

// NewKeyword creates the rule-based classifier
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Classify counts stance indicators in the article text, applying a
// negation window that flips support/oppose hits. Ties and indicator-free
// text default to neutral with confidence 0.5.
func (k *Keyword) Classify(_, articleText string) domain.StanceResult {
	text := strings.ToLower(articleText)
	words := strings.Fields(text)

	var supportCount, opposeCount int
	var evidence []string

	addEvidence := func(indicator string) {
		if len(evidence) < maxEvidence {
			evidence = append(evidence, indicator)
		}
	}

	for _, indicator := range supportIndicators {
		hit, negated := findIndicator(text, words, indicator)
		if !hit {
			continue
		}
		if negated {
			opposeCount++
		} else {
			supportCount++
		}
		addEvidence(indicator)
	}
	for _, indicator := range opposeIndicators {
		hit, negated := findIndicator(text, words, indicator)
		if !hit {
			continue
		}
		if negated {
			supportCount++
		} else {
			opposeCount++
		}
		addEvidence(indicator)
	}
	for _, indicator := range neutralIndicators {
		if hit, _ := findIndicator(text, words, indicator); hit {
			addEvidence(indicator)
		}
	}

	result := domain.StanceResult{Method: "keywords", Evidence: evidence}
	switch {
	case supportCount > opposeCount && supportCount > 0:
		result.Stance = domain.StanceSupport
		result.Confidence = ruleConfidence(supportCount)
	case opposeCount > supportCount && opposeCount > 0:
		result.Stance = domain.StanceOppose
		result.Confidence = ruleConfidence(opposeCount)
	default:
		result.Stance = domain.StanceNeutral
		result.Confidence = neutralConfidence
	}
	return result
}

// ruleConfidence maps an indicator count to a capped confidence
func ruleConfidence(count int) float64 {
	conf := float64(count) / confidenceDivisor
	if conf > maxRuleConfidence {
		return maxRuleConfidence
	}
	return conf
}

// findIndicator reports whether the indicator occurs in the text and
// whether its first occurrence is negated. Multi-word indicators skip the
// negation check.
func findIndicator(text string, words []string, indicator string) (found, negated bool) {
	if strings.Contains(indicator, " ") {
		return strings.Contains(text, indicator), false
	}
	for i, w := range words {
		if strings.Trim(w, ".,!?;:\"'()") != indicator {
			continue
		}
		for j := max(0, i-negationLookbehind); j < i; j++ {
			if _, neg := negations[strings.Trim(words[j], ".,!?;:\"'()")]; neg {
				return true, true
			}
		}
		return true, false
	}
	return false, false
}
