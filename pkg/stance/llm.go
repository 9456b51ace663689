package stance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/domain"
)

// LLM resolves ambiguous stance classifications through an OpenAI-compatible
// endpoint. It is consulted only when the keyword classifier's confidence
// falls below the configured threshold.
type LLM struct {
	client *openai.Client
	config config.LLMConfig
}

// NewLLM creates an LLM stance classifier
func NewLLM(cfg config.LLMConfig) *LLM {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	return &LLM{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// system prompt for stance classification
const systemPrompt = `You judge whether an article supports, opposes, or is neutral toward a stated belief.
Respond with a single JSON object and nothing else:
{"stance": "support"|"oppose"|"neutral", "confidence": number between 0 and 1, "evidence": ["short phrase from the article", ...]}

- "support": the article agrees with, confirms, or argues for the belief
- "oppose": the article contradicts, refutes, or argues against the belief
- "neutral": the article merely reports or is unrelated to the belief
Keep evidence to at most 3 short phrases quoted from the article.`

// llmResult is the expected response shape
type llmResult struct {
	Stance     string   `json:"stance"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// Classify asks the LLM for a stance judgment. Invalid JSON responses are
// retried up to 3 times before giving up.
func (l *LLM) Classify(ctx context.Context, belief, articleText string) (domain.StanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	prompt := fmt.Sprintf("Belief: %s\n\nArticle:\n%s", belief, articleText)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       l.config.Model,
			Temperature: float32(l.config.Temperature),
			MaxTokens:   l.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return domain.StanceResult{}, fmt.Errorf("llm request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return domain.StanceResult{}, fmt.Errorf("no response from llm")
		}

		result, err := parseResponse(resp.Choices[0].Message.Content)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return domain.StanceResult{}, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}

// parseResponse extracts the JSON object from the LLM output, tolerating
// surrounding prose or code fences
func parseResponse(content string) (domain.StanceResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return domain.StanceResult{}, fmt.Errorf("no json object found in response")
	}

	var parsed llmResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return domain.StanceResult{}, fmt.Errorf("failed to parse json: %w", err)
	}

	stance := domain.Stance(strings.ToLower(strings.TrimSpace(parsed.Stance)))
	switch stance {
	case domain.StanceSupport, domain.StanceOppose, domain.StanceNeutral:
	default:
		return domain.StanceResult{}, fmt.Errorf("unknown stance %q", parsed.Stance)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	if len(parsed.Evidence) > maxEvidence {
		parsed.Evidence = parsed.Evidence[:maxEvidence]
	}

	return domain.StanceResult{
		Stance:     stance,
		Confidence: confidence,
		Evidence:   parsed.Evidence,
		Method:     "llm",
	}, nil
}
