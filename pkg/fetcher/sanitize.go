package fetcher

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// strictPolicy strips all HTML markup from upstream descriptions
var strictPolicy = bluemonday.StrictPolicy()

// sanitizeText removes HTML markup from a snippet coming from an external
// API or feed and collapses whitespace. Descriptions from RSS and some news
// APIs routinely carry embedded markup.
func sanitizeText(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strictPolicy.Sanitize(s)
	if strings.ContainsAny(cleaned, "<>") {
		// policy left something tag-like behind, fall back to a full parse
		cleaned = htmlToText(cleaned)
	}
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// htmlToText extracts the text content of an HTML fragment
func htmlToText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// NormalizeURL canonicalizes an article URL for deduplication: lowercase
// host, strip www prefix, query, fragment and trailing slash. Scheme is
// dropped so http/https duplicates collapse.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(strings.TrimSpace(raw), "/"))
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimRight(u.Path, "/")
	return host + path
}

// SourceDomain extracts the registrable host of an article URL, used for
// credibility lookups
func SourceDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}
