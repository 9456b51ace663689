package stance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		stance     domain.Stance
		confidence float64
		wantErr    bool
	}{
		{
			name:       "clean json",
			content:    `{"stance": "support", "confidence": 0.85, "evidence": ["strong growth"]}`,
			stance:     domain.StanceSupport,
			confidence: 0.85,
		},
		{
			name:       "json wrapped in prose",
			content:    "Here is my answer:\n```json\n{\"stance\": \"oppose\", \"confidence\": 0.7, \"evidence\": []}\n```",
			stance:     domain.StanceOppose,
			confidence: 0.7,
		},
		{
			name:       "stance case normalized",
			content:    `{"stance": "Neutral", "confidence": 0.5}`,
			stance:     domain.StanceNeutral,
			confidence: 0.5,
		},
		{
			name:       "confidence clamped",
			content:    `{"stance": "support", "confidence": 1.7}`,
			stance:     domain.StanceSupport,
			confidence: 1.0,
		},
		{
			name:    "unknown stance rejected",
			content: `{"stance": "maybe", "confidence": 0.5}`,
			wantErr: true,
		},
		{
			name:    "no json at all",
			content: "I cannot answer that",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseResponse(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stance, result.Stance)
			assert.InDelta(t, tt.confidence, result.Confidence, 1e-9)
			assert.Equal(t, "llm", result.Method)
		})
	}
}

func TestLLM_Classify(t *testing.T) {
	completion := func(content string) string {
		return fmt.Sprintf(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
		}`, content)
	}

	t.Run("successful classification", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completion(`{"stance": "oppose", "confidence": 0.9, "evidence": ["refutes the claim"]}`))) //nolint:errcheck
		}))
		defer server.Close()

		llm := NewLLM(config.LLMConfig{
			Endpoint: server.URL,
			APIKey:   "test-key",
			Model:    "test-model",
			Timeout:  5 * time.Second,
		})

		result, err := llm.Classify(context.Background(), "the policy works", "article text")
		require.NoError(t, err)
		assert.Equal(t, domain.StanceOppose, result.Stance)
		assert.InDelta(t, 0.9, result.Confidence, 1e-9)
		assert.Equal(t, []string{"refutes the claim"}, result.Evidence)
		assert.Equal(t, "llm", result.Method)
	})

	t.Run("retries on malformed json then succeeds", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Write([]byte(completion("garbage answer"))) //nolint:errcheck
				return
			}
			w.Write([]byte(completion(`{"stance": "support", "confidence": 0.6, "evidence": []}`))) //nolint:errcheck
		}))
		defer server.Close()

		llm := NewLLM(config.LLMConfig{Endpoint: server.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second})

		result, err := llm.Classify(context.Background(), "belief", "text")
		require.NoError(t, err)
		assert.Equal(t, domain.StanceSupport, result.Stance)
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	})

	t.Run("gives up after persistent bad output", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completion("still garbage"))) //nolint:errcheck
		}))
		defer server.Close()

		llm := NewLLM(config.LLMConfig{Endpoint: server.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second})

		_, err := llm.Classify(context.Background(), "belief", "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed after 3 attempts")
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	})

	t.Run("transport error not retried", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		llm := NewLLM(config.LLMConfig{Endpoint: server.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second})

		_, err := llm.Classify(context.Background(), "belief", "text")
		assert.Error(t, err)
	})
}
