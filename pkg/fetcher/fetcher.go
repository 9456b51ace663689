// Package fetcher retrieves article candidates from external news sources.
// Each fetcher normalizes its upstream payload into domain.ArticleCandidate
// at the boundary; the Chain iterates fetchers in priority order with
// failover so that a single bad source never fails the whole request.
package fetcher

import (
	"context"

	"github.com/lensnews/lensnet/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// Fetcher retrieves candidates for a single search query
type Fetcher interface {
	Fetch(ctx context.Context, query string, limit int) ([]domain.ArticleCandidate, error)
	Name() string
	Enabled() bool
}
