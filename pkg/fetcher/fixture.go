package fetcher

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lensnews/lensnet/pkg/domain"
)

// Fixture serves articles from a local YAML file. It is the terminal
// fallback of the chain and never fails: with no file configured it
// synthesizes sample articles for the query, so the pipeline always has
// something to rank.
type Fixture struct {
	articles []domain.ArticleCandidate
	now      func() time.Time
}

// fixtureArticle is the YAML shape of one fixture entry
type fixtureArticle struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Content     string    `yaml:"content"`
	URL         string    `yaml:"url"`
	Source      string    `yaml:"source"`
	Published   time.Time `yaml:"published"`
}

// NewFixture creates a fixture fetcher. An empty path is fine; a configured
// but unreadable file is an error so misconfiguration is caught at startup
// rather than at request time.
func NewFixture(path string) (*Fixture, error) {
	f := &Fixture{now: time.Now}
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var entries []fixtureArticle
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}

	f.articles = make([]domain.ArticleCandidate, 0, len(entries))
	for _, e := range entries {
		f.articles = append(f.articles, domain.ArticleCandidate{
			Title:        e.Title,
			Description:  e.Description,
			Content:      e.Content,
			URL:          e.URL,
			Source:       e.Source,
			SourceDomain: SourceDomain(e.URL),
			Published:    e.Published,
		})
	}
	return f, nil
}

// Name returns the fetcher identifier
func (f *Fixture) Name() string { return "fixture" }

// Enabled always reports true, fixtures are the guaranteed fallback
func (f *Fixture) Enabled() bool { return true }

// Fetch returns fixture articles matching the query, or synthesized samples
// when no fixture matches
func (f *Fixture) Fetch(_ context.Context, query string, limit int) ([]domain.ArticleCandidate, error) {
	queryLower := strings.ToLower(query)

	var matched []domain.ArticleCandidate
	for _, a := range f.articles {
		text := strings.ToLower(a.Title + " " + a.Description + " " + a.Content)
		for _, term := range strings.Fields(queryLower) {
			if strings.Contains(text, term) {
				matched = append(matched, a)
				break
			}
		}
		if len(matched) >= limit {
			return matched, nil
		}
	}
	if len(matched) > 0 {
		return matched, nil
	}

	return f.synthesize(query, limit), nil
}

// synthesize builds placeholder articles so the chain can always return
// something usable
func (f *Fixture) synthesize(query string, limit int) []domain.ArticleCandidate {
	count := min(limit, 3)
	articles := make([]domain.ArticleCandidate, 0, count)
	for i := 0; i < count; i++ {
		slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "-")
		articles = append(articles, domain.ArticleCandidate{
			Title:        fmt.Sprintf("Overview of %s (%d)", query, i+1),
			Description:  fmt.Sprintf("Background coverage of %s gathered from archived reporting.", query),
			URL:          fmt.Sprintf("https://fixtures.lensnet.local/%s-%d", slug, i+1),
			Source:       "Lensnet Archive",
			SourceDomain: "fixtures.lensnet.local",
			Published:    f.now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return articles
}
