package fetcher

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lensnews/lensnet/pkg/domain"
)

// Tier is a group of fetchers queried concurrently at the same priority
type Tier []Fetcher

// Chain tries fetcher tiers in priority order, accumulating deduplicated
// candidates until the limit is reached or all tiers are exhausted. Fetcher
// failures trigger fallback, never a request failure: an empty result is a
// valid outcome.
type Chain struct {
	tiers       []Tier
	callTimeout time.Duration
	retryCount  int
}

// NewChain creates a chain over the given tiers. retryCount is total
// attempts per fetcher (1 means no retry).
func NewChain(tiers []Tier, callTimeout time.Duration, retryCount int) *Chain {
	if retryCount < 1 {
		retryCount = 1
	}
	return &Chain{tiers: tiers, callTimeout: callTimeout, retryCount: retryCount}
}

// Fetchers returns all fetchers in priority order
func (c *Chain) Fetchers() []Fetcher {
	var all []Fetcher
	for _, tier := range c.tiers {
		all = append(all, tier...)
	}
	return all
}

// Fetch runs the chain for one query. Within a tier fetchers run
// concurrently; the accumulator is guarded. Lower tiers are only consulted
// while the limit has not been reached.
func (c *Chain) Fetch(ctx context.Context, query string, limit int) []domain.ArticleCandidate {
	acc := newAccumulator(limit)

	for _, tier := range c.tiers {
		if acc.full() {
			break
		}

		g, tierCtx := errgroup.WithContext(ctx)
		for _, f := range tier {
			if !f.Enabled() {
				log.Printf("[DEBUG] fetcher %s disabled, skipping", f.Name())
				continue
			}
			g.Go(func() error {
				candidates, err := c.fetchOne(tierCtx, f, query, limit)
				if err != nil {
					// source unavailable, fall back to the rest of the chain
					log.Printf("[WARN] fetcher %s failed for %q: %v", f.Name(), query, err)
					return nil
				}
				added := acc.add(candidates)
				log.Printf("[INFO] fetcher %s returned %d candidates (%d new) for %q",
					f.Name(), len(candidates), added, query)
				return nil
			})
		}
		_ = g.Wait() // fetch errors are swallowed above
	}

	return acc.items()
}

// fetchOne calls a single fetcher with per-call timeout and bounded retry
func (c *Chain) fetchOne(ctx context.Context, f Fetcher, query string, limit int) ([]domain.ArticleCandidate, error) {
	var candidates []domain.ArticleCandidate

	retrier := repeater.NewBackoff(c.retryCount, 200*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		result, err := f.Fetch(callCtx, query, limit)
		if err != nil {
			return err
		}
		candidates = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// accumulator collects candidates deduplicated by normalized URL, safe for
// concurrent use within a tier
type accumulator struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	list  []domain.ArticleCandidate
	limit int
}

func newAccumulator(limit int) *accumulator {
	return &accumulator{
		seen:  make(map[string]struct{}),
		limit: limit,
	}
}

// add appends unseen candidates up to the limit, returns how many were kept
func (a *accumulator) add(candidates []domain.ArticleCandidate) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	added := 0
	for _, c := range candidates {
		if len(a.list) >= a.limit {
			break
		}
		key := NormalizeURL(c.URL)
		if key == "" {
			continue
		}
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.list = append(a.list, c)
		added++
	}
	return added
}

func (a *accumulator) full() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.list) >= a.limit
}

func (a *accumulator) items() []domain.ArticleCandidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]domain.ArticleCandidate, len(a.list))
	copy(items, a.list)
	return items
}
