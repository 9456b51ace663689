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

// NewsAPI fetches articles from newsapi.org (the primary commercial source)
type NewsAPI struct {
	endpoint  string
	apiKey    string
	userAgent string
	client    *http.Client
}

// newsAPIResponse is the upstream payload shape
type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsAPI creates a NewsAPI fetcher. An empty API key leaves the fetcher
// disabled so the chain skips it.
func NewNewsAPI(endpoint, apiKey, userAgent string, timeout time.Duration) *NewsAPI {
	return &NewsAPI{
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name returns the fetcher identifier
func (f *NewsAPI) Name() string { return "newsapi" }

// Enabled reports whether an API key is configured
func (f *NewsAPI) Enabled() bool { return f.apiKey != "" }

// Fetch queries the /everything endpoint and normalizes results
func (f *NewsAPI) Fetch(ctx context.Context, query string, limit int) ([]domain.ArticleCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(min(limit, 100)))
	params.Set("apiKey", f.apiKey)

	reqURL := f.endpoint + "/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s: %w", payload.Message, domain.ErrSourceUnavailable)
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
			Author:       a.Author,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			candidate.Published = t
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
