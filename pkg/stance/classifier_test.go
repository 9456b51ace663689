package stance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

// fakeOverride is a scriptable Override for classifier tests
type fakeOverride struct {
	result domain.StanceResult
	err    error
	calls  int
}

func (f *fakeOverride) Classify(_ context.Context, _, _ string) (domain.StanceResult, error) {
	f.calls++
	if f.err != nil {
		return domain.StanceResult{}, f.err
	}
	return f.result, nil
}

// memCache is an in-memory Cache for classifier tests
type memCache struct {
	mu      sync.Mutex
	entries map[string]domain.StanceResult
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]domain.StanceResult)}
}

func (m *memCache) Get(_ context.Context, belief, articleURL string) (domain.StanceResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.StanceResult{}, false, m.getErr
	}
	r, ok := m.entries[belief+"|"+articleURL]
	return r, ok, nil
}

func (m *memCache) Set(_ context.Context, belief, articleURL string, result domain.StanceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[belief+"|"+articleURL] = result
	return nil
}

func stanceCfg() config.StanceConfig {
	return config.StanceConfig{TextBudget: 2000, AmbiguityThreshold: 0.4}
}

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("empty belief is neutral without any work", func(t *testing.T) {
		override := &fakeOverride{}
		c := NewClassifier(stanceCfg(), override, nil)

		result := c.Classify(ctx, "  ", "https://example.com/a", "supports confirms validates")
		assert.Equal(t, domain.StanceNeutral, result.Stance)
		assert.InDelta(t, 0.5, result.Confidence, 1e-9)
		assert.Zero(t, override.calls)
	})

	t.Run("confident keyword result skips override", func(t *testing.T) {
		override := &fakeOverride{result: domain.StanceResult{Stance: domain.StanceOppose, Confidence: 0.9, Method: "llm"}}
		c := NewClassifier(stanceCfg(), override, nil)

		// three support indicators puts keyword confidence at 0.6, above threshold
		result := c.Classify(ctx, "belief", "https://example.com/a", "confirms validates proves")
		assert.Equal(t, domain.StanceSupport, result.Stance)
		assert.Equal(t, "keywords", result.Method)
		assert.Zero(t, override.calls)
	})

	t.Run("ambiguous keyword result consults override", func(t *testing.T) {
		override := &fakeOverride{result: domain.StanceResult{Stance: domain.StanceOppose, Confidence: 0.9, Method: "llm"}}
		c := NewClassifier(stanceCfg(), override, nil)

		// single indicator: 0.2, below the 0.4 threshold
		result := c.Classify(ctx, "belief", "https://example.com/a", "the report confirms expectations")
		assert.Equal(t, domain.StanceOppose, result.Stance)
		assert.Equal(t, "llm", result.Method)
		assert.Equal(t, 1, override.calls)
	})

	t.Run("override failure keeps keyword result", func(t *testing.T) {
		override := &fakeOverride{err: fmt.Errorf("llm down")}
		c := NewClassifier(stanceCfg(), override, nil)

		result := c.Classify(ctx, "belief", "https://example.com/a", "the report confirms expectations")
		assert.Equal(t, domain.StanceSupport, result.Stance)
		assert.Equal(t, "keywords", result.Method)
	})

	t.Run("nil override degrades to keyword only", func(t *testing.T) {
		c := NewClassifier(stanceCfg(), nil, nil)
		result := c.Classify(ctx, "belief", "https://example.com/a", "the report confirms expectations")
		assert.Equal(t, domain.StanceSupport, result.Stance)
	})
}

func TestClassifier_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("result cached and reused", func(t *testing.T) {
		cache := newMemCache()
		override := &fakeOverride{result: domain.StanceResult{Stance: domain.StanceOppose, Confidence: 0.9, Method: "llm"}}
		c := NewClassifier(stanceCfg(), override, cache)

		first := c.Classify(ctx, "belief", "https://example.com/a", "the report confirms expectations")
		second := c.Classify(ctx, "belief", "https://example.com/a", "the report confirms expectations")
		assert.Equal(t, first, second)
		assert.Equal(t, 1, override.calls, "second call served from cache")
	})

	t.Run("cache read failure falls through to classification", func(t *testing.T) {
		cache := newMemCache()
		cache.getErr = fmt.Errorf("db locked")
		c := NewClassifier(stanceCfg(), nil, cache)

		result := c.Classify(ctx, "belief", "https://example.com/a", "confirms validates proves")
		assert.Equal(t, domain.StanceSupport, result.Stance)
	})
}

func TestTruncate(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "short text", truncate("short text", 100))
	})

	t.Run("cuts at word boundary", func(t *testing.T) {
		got := truncate("alpha beta gamma delta", 12)
		assert.Equal(t, "alpha beta", got)
	})

	t.Run("zero budget disables truncation", func(t *testing.T) {
		long := strings.Repeat("x", 5000)
		assert.Equal(t, long, truncate(long, 0))
	})

	t.Run("budget respected", func(t *testing.T) {
		long := strings.Repeat("word ", 1000)
		got := truncate(long, 50)
		require.LessOrEqual(t, len([]rune(got)), 50)
	})
}
