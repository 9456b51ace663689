package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lensnews/lensnet/pkg/domain"
)

// GNews fetches articles from gnews.io (free-tier alternative)
type GNews struct {
	endpoint  string
	apiKey    string
	userAgent string
	client    *http.Client
}

// gnewsResponse is the upstream payload shape
type gnewsResponse struct {
	Errors   []string `json:"errors"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

// NewGNews creates a GNews fetcher
func NewGNews(endpoint, apiKey, userAgent string, timeout time.Duration) *GNews {
	return &GNews{
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Name returns the fetcher identifier
func (f *GNews) Name() string { return "gnews" }

// Enabled reports whether an API key is configured
func (f *GNews) Enabled() bool { return f.apiKey != "" }

// Fetch queries the /search endpoint and normalizes results
func (f *GNews) Fetch(ctx context.Context, query string, limit int) ([]domain.ArticleCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", "en")
	params.Set("sortby", "relevance")
	params.Set("max", strconv.Itoa(min(limit, 100)))
	params.Set("apikey", f.apiKey)

	reqURL := f.endpoint + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gnews status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var payload gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode gnews response: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("gnews error: %s: %w", payload.Errors[0], domain.ErrSourceUnavailable)
	}

	candidates := make([]domain.ArticleCandidate, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		candidate := domain.ArticleCandidate{
			Title:        sanitizeText(a.Title),
			Description:  sanitizeText(a.Description),
			Content:      sanitizeText(a.Content),
			URL:          a.URL,
			Source:       a.Source.Name,
			SourceDomain: SourceDomain(a.URL),
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			candidate.Published = t
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
