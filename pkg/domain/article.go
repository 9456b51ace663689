package domain

import (
	"errors"
	"time"
)

// sentinel errors for the ranking pipeline
var (
	// ErrInvalidInput indicates an empty topic or belief, rejected before any fetch
	ErrInvalidInput = errors.New("invalid input")
	// ErrSourceUnavailable indicates a single fetcher failed, triggers fallback
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrAllSourcesExhausted indicates every fetcher failed or returned nothing
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
)

// ArticleCandidate is a normalized article record produced at the fetcher
// boundary. Downstream components treat it as read-only.
type ArticleCandidate struct {
	Title        string
	Description  string
	Content      string
	URL          string
	Source       string
	SourceDomain string
	Author       string
	Published    time.Time
}

// Text returns the title and body combined for classification and scoring
func (a ArticleCandidate) Text() string {
	body := a.Content
	if body == "" {
		body = a.Description
	}
	if body == "" {
		return a.Title
	}
	return a.Title + "\n" + body
}

// Stance is an article's position relative to a belief
type Stance string

// stance labels
const (
	StanceSupport Stance = "support"
	StanceOppose  Stance = "oppose"
	StanceNeutral Stance = "neutral"
)

// StanceResult is the classification of one (belief, article) pair
type StanceResult struct {
	Stance     Stance
	Confidence float64
	Evidence   []string
	Method     string // "keywords" or "llm"
}

// ScoredArticle is the terminal record returned to the caller
type ScoredArticle struct {
	Article        ArticleCandidate
	StanceResult   StanceResult
	RelevanceScore float64
	BiasMatchScore float64
	FinalScore     float64
}

// RankRequest is a single scoring request from the UI layer
type RankRequest struct {
	Query          string  `json:"topic_or_query"`
	BeliefText     string  `json:"belief_text"`
	BiasPreference float64 `json:"bias_preference"`
	Limit          int     `json:"limit"`
}

// RankedArticle is the wire representation of a scored article
type RankedArticle struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	Source           string  `json:"source"`
	PublishedAt      string  `json:"published_at"`
	Stance           Stance  `json:"stance"`
	StanceConfidence float64 `json:"stance_confidence"`
	RelevanceScore   float64 `json:"relevance_score"`
	BiasMatchScore   float64 `json:"bias_match_score"`
	FinalScore       float64 `json:"final_score"`
}

// RankResponse is the ranked result list returned to the caller
type RankResponse struct {
	Articles []RankedArticle `json:"articles"`
	Total    int             `json:"total"`
}

// ToRanked converts a scored article to its wire representation
func (s ScoredArticle) ToRanked() RankedArticle {
	published := ""
	if !s.Article.Published.IsZero() {
		published = s.Article.Published.UTC().Format(time.RFC3339)
	}
	return RankedArticle{
		Title:            s.Article.Title,
		URL:              s.Article.URL,
		Source:           s.Article.Source,
		PublishedAt:      published,
		Stance:           s.StanceResult.Stance,
		StanceConfidence: s.StanceResult.Confidence,
		RelevanceScore:   s.RelevanceScore,
		BiasMatchScore:   s.BiasMatchScore,
		FinalScore:       s.FinalScore,
	}
}
