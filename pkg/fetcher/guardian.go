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

// Guardian fetches articles from the Guardian Open Platform
type Guardian struct {
	endpoint  string
	apiKey    string
	userAgent string
	client    *http.Client
}

// guardianResponse is the upstream payload shape
type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				BodyText  string `json:"bodyText"`
				Byline    string `json:"byline"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// NewGuardian creates a Guardian fetcher
func NewGuardian(endpoint, apiKey, userAgent string, timeout time.Duration) *Guardian {
	return &Guardian{
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Name returns the fetcher identifier
func (f *Guardian) Name() string { return "guardian" }

// Enabled reports whether an API key is configured
func (f *Guardian) Enabled() bool { return f.apiKey != "" }

// Fetch queries the /search endpoint and normalizes results
func (f *Guardian) Fetch(ctx context.Context, query string, limit int) ([]domain.ArticleCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("order-by", "relevance")
	params.Set("show-fields", "trailText,bodyText,byline")
	params.Set("page-size", strconv.Itoa(min(limit, 50)))
	params.Set("api-key", f.apiKey)

	reqURL := f.endpoint + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("guardian request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("guardian status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var payload guardianResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode guardian response: %w", err)
	}
	if payload.Response.Status != "ok" {
		return nil, fmt.Errorf("guardian error: %s: %w", payload.Response.Message, domain.ErrSourceUnavailable)
	}

	candidates := make([]domain.ArticleCandidate, 0, len(payload.Response.Results))
	for _, r := range payload.Response.Results {
		if r.WebTitle == "" || r.WebURL == "" {
			continue
		}
		candidate := domain.ArticleCandidate{
			Title:        sanitizeText(r.WebTitle),
			Description:  sanitizeText(r.Fields.TrailText),
			Content:      sanitizeText(r.Fields.BodyText),
			URL:          r.WebURL,
			Source:       "The Guardian",
			SourceDomain: SourceDomain(r.WebURL),
			Author:       r.Fields.Byline,
		}
		if t, err := time.Parse(time.RFC3339, r.WebPublicationDate); err == nil {
			candidate.Published = t
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
