package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
	"github.com/lensnews/lensnet/pkg/search"
)

// RSS fetches candidates from a static set of configured feeds and filters
// them against the query. It sits below the commercial APIs in the chain.
type RSS struct {
	feeds     []config.RSSFeed
	userAgent string
	client    *http.Client
}

// NewRSS creates an RSS fetcher over the configured feeds
func NewRSS(feeds []config.RSSFeed, userAgent string, timeout time.Duration) *RSS {
	return &RSS{
		feeds:     feeds,
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
func (f *RSS) Name() string { return "rss" }

// Enabled reports whether any feeds are configured
func (f *RSS) Enabled() bool { return len(f.feeds) > 0 }

// Fetch parses all configured feeds and keeps items matching the query.
// Individual feed failures are logged and skipped; the fetcher fails only
// when every feed fails.
func (f *RSS) Fetch(ctx context.Context, query string, limit int) ([]domain.ArticleCandidate, error) {
	terms := search.Terms(query)

	var candidates []domain.ArticleCandidate
	failures := 0
	for _, feed := range f.feeds {
		items, err := f.parseFeed(ctx, feed)
		if err != nil {
			log.Printf("[WARN] rss feed %s failed: %v", feed.Name, err)
			failures++
			continue
		}
		for _, item := range items {
			if !matchesQuery(item, terms) {
				continue
			}
			candidates = append(candidates, item)
			if len(candidates) >= limit {
				return candidates, nil
			}
		}
	}

	if failures == len(f.feeds) && len(f.feeds) > 0 {
		return nil, fmt.Errorf("all %d rss feeds failed: %w", failures, domain.ErrSourceUnavailable)
	}
	return candidates, nil
}

// parseFeed fetches and parses one feed into candidates
func (f *RSS) parseFeed(ctx context.Context, feed config.RSSFeed) ([]domain.ArticleCandidate, error) {
	body, err := f.fetch(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	candidates := make([]domain.ArticleCandidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		candidate := domain.ArticleCandidate{
			Title:        sanitizeText(item.Title),
			Description:  sanitizeText(item.Description),
			Content:      sanitizeText(item.Content),
			URL:          item.Link,
			Source:       feed.Name,
			SourceDomain: SourceDomain(item.Link),
		}
		if item.Author != nil {
			candidate.Author = item.Author.Name
		}
		if item.PublishedParsed != nil {
			candidate.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			candidate.Published = *item.UpdatedParsed
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// fetch retrieves content from a URL
func (f *RSS) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	addBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// matchesQuery reports whether any query term appears in the candidate text
func matchesQuery(c domain.ArticleCandidate, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	text := strings.ToLower(c.Title + " " + c.Description + " " + c.Content)
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
