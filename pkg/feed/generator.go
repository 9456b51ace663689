// Package feed renders ranked articles as RSS 2.0 so results can be
// consumed by any feed reader.
package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/lensnews/lensnet/pkg/domain"
)

// Generator creates RSS feeds from ranked articles
type Generator struct {
	baseURL string
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GenerateRSS creates an RSS 2.0 feed from ranked articles for a topic
func (g *Generator) GenerateRSS(articles []domain.RankedArticle, topic string) (string, error) {
	title := fmt.Sprintf("Lensnet - %s", topic)
	selfLink := fmt.Sprintf("%s/rss/%s", g.baseURL, topic)

	rssItems := make([]*RSSItem, 0, len(articles))
	for _, article := range articles {
		rssItems = append(rssItems, g.convertToRSSItem(article))
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         title,
			Link:          g.baseURL + "/",
			Description:   fmt.Sprintf("Ranked coverage of %q", topic),
			AtomLink:      &AtomLink{Href: selfLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}

	// add XML declaration
	return xml.Header + string(output), nil
}

// convertToRSSItem converts a ranked article to an RSS item
func (g *Generator) convertToRSSItem(article domain.RankedArticle) *RSSItem {
	desc := fmt.Sprintf("Score: %.2f (relevance %.2f, bias match %.2f) - stance: %s",
		article.FinalScore, article.RelevanceScore, article.BiasMatchScore, article.Stance)
	if article.Source != "" {
		desc += fmt.Sprintf("\nSource: %s", article.Source)
	}

	pubDate := ""
	if article.PublishedAt != "" {
		if published, err := time.Parse(time.RFC3339, article.PublishedAt); err == nil {
			pubDate = published.Format(time.RFC1123Z)
		}
	}

	return &RSSItem{
		Title:       fmt.Sprintf("[%.2f] %s", article.FinalScore, article.Title),
		Link:        article.URL,
		GUID:        article.URL,
		Description: desc,
		PubDate:     pubDate,
		Categories:  []string{string(article.Stance)},
	}
}
