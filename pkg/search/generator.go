// Package search builds search-engine queries from a free-text topic and an
// optional belief statement. Query construction is pure string work with no
// failure modes beyond an empty topic.
package search

import (
	"fmt"
	"strings"

	"github.com/lensnews/lensnet/pkg/domain"
)

// MaxQueries caps the number of queries produced per request
const MaxQueries = 5

// stopWords are skipped when extracting significant terms
var stopWords = map[string]struct{}{
	"i": {}, "am": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {}, "can": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "about": {},
	"from": {}, "that": {}, "this": {}, "these": {}, "those": {}, "it": {}, "its": {},
	"my": {}, "our": {}, "your": {}, "their": {}, "not": {}, "no": {}, "so": {},
	"very": {}, "too": {}, "than": {}, "then": {}, "there": {}, "here": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "why": {}, "when": {}, "where": {},
}

// contextIndicators are belief words that carry stance context worth
// feeding back into a query
var contextIndicators = map[string]struct{}{
	"support": {}, "oppose": {}, "against": {}, "pro": {}, "anti": {},
	"ban": {}, "banning": {}, "legalize": {}, "legalizing": {}, "criminalize": {},
	"reform": {}, "reforming": {}, "end": {}, "ending": {}, "expand": {}, "expanding": {},
	"restrict": {}, "restricting": {}, "regulate": {}, "regulating": {},
	"helping": {}, "improving": {}, "ruining": {}, "destroying": {},
}

// Generator turns a topic and belief into an ordered list of search queries
type Generator struct{}

// NewGenerator creates a query generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Queries builds 1 to MaxQueries query strings: the exact topic first, then
// topic plus context terms drawn from the belief, then temporal variants.
// An empty or blank topic is rejected.
func (g *Generator) Queries(topic, belief string) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("empty topic: %w", domain.ErrInvalidInput)
	}

	queries := []string{topic}

	// topic + context terms from the belief
	if ctx := contextTerms(belief, topic); len(ctx) > 0 {
		queries = append(queries, topic+" "+strings.Join(ctx, " "))
	}

	// temporal qualifiers
	queries = append(queries, topic+" latest", topic+" this week")

	// dedupe preserving order, cap at MaxQueries
	seen := make(map[string]struct{}, len(queries))
	result := make([]string, 0, MaxQueries)
	for _, q := range queries {
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, q)
		if len(result) == MaxQueries {
			break
		}
	}
	return result, nil
}

// MainTopic extracts the first significant word of a free-text query,
// skipping stop words. Used when the caller supplies a belief statement
// instead of a clean topic.
func MainTopic(query string) string {
	for _, word := range strings.Fields(query) {
		clean := strings.ToLower(strings.Trim(word, ".,!?;:\"'"))
		if clean == "" || len(clean) <= 2 {
			continue
		}
		if _, stop := stopWords[clean]; stop {
			continue
		}
		return clean
	}
	fields := strings.Fields(query)
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Terms splits a topic into lowercase significant terms for matching
func Terms(topic string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(topic)) {
		clean := strings.Trim(word, ".,!?;:\"'")
		if clean == "" {
			continue
		}
		if _, stop := stopWords[clean]; stop {
			continue
		}
		terms = append(terms, clean)
	}
	return terms
}

// contextTerms picks up to two stance-context words from the belief that
// are not already part of the topic
func contextTerms(belief, topic string) []string {
	topicLower := strings.ToLower(topic)
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(belief)) {
		clean := strings.Trim(word, ".,!?;:\"'")
		if _, ok := contextIndicators[clean]; !ok {
			continue
		}
		if strings.Contains(topicLower, clean) {
			continue
		}
		terms = append(terms, clean)
		if len(terms) == 2 {
			break
		}
	}
	return terms
}
