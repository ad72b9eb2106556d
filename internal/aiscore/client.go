// Package aiscore implements the URL scoring collaborator on top of an
// OpenAI-compatible chat completion API.
package aiscore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

const (
	defaultModel = "openai/gpt-4o-mini"
	temperature  = 0.1
	maxTokens    = 2000
)

// Client scores URL batches via chat completions. It satisfies
// harvest.URLScorer.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// New builds a Client. baseURL may point at any OpenAI-compatible endpoint,
// OpenRouter included.
func New(apiKey, model, baseURL string, logger *zap.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// ScoreURLs requests a likelihood for each URL in the batch. The response
// must be a JSON array of {url, likelihood, reason} objects; any schema
// violation fails the whole batch.
func (c *Client) ScoreURLs(ctx context.Context, urls []string) ([]harvest.URLScore, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if len(urls) > harvest.AIBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit %d", len(urls), harvest.AIBatchSize)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(urls)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	scores, err := ParseScores(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("scored url batch",
		zap.Int("requested", len(urls)),
		zap.Int("returned", len(scores)),
	)
	return scores, nil
}

func buildPrompt(urls []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these %d website URLs and predict the likelihood (0.0 to 1.0) that each URL contains contact information (emails, phone numbers, staff profiles).\n\nURLs to analyze:\n", len(urls))
	for i, u := range urls {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u)
	}
	b.WriteString(`
Consider:
- URLs with "contact", "staff", "faculty", "directory", "people" are likely (0.8-1.0)
- URLs with "about", "team", "profile", "email" are moderately likely (0.5-0.8)
- URLs with personal names (john-doe) in staff/faculty paths are likely (0.7-0.9)
- URLs with "news", "events", "blog", "courses", "programs" are unlikely (0.1-0.3)
- Homepage and general pages are low (0.2-0.4)

Return ONLY a JSON array (no other text):
[
  {"url": "exact_url_from_list", "likelihood": 0.95, "reason": "staff directory page"},
  {"url": "exact_url_from_list", "likelihood": 0.15, "reason": "news archive"}
]

Return one object for each URL in the same order.`)
	return b.String()
}

// ParseScores decodes a model response into URL scores. The payload must be
// a JSON array, optionally wrapped in a markdown code fence; entries must
// carry a URL and a likelihood inside [0,1].
func ParseScores(content string) ([]harvest.URLScore, error) {
	payload := strings.TrimSpace(content)
	if strings.HasPrefix(payload, "```") {
		payload = strings.TrimPrefix(payload, "```json")
		payload = strings.TrimPrefix(payload, "```")
		payload = strings.TrimSuffix(strings.TrimSpace(payload), "```")
	}
	start := strings.Index(payload, "[")
	end := strings.LastIndex(payload, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("response contains no JSON array")
	}

	var scores []harvest.URLScore
	if err := json.Unmarshal([]byte(payload[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	for i, s := range scores {
		if s.URL == "" {
			return nil, fmt.Errorf("entry %d is missing a url", i)
		}
		if s.Likelihood < 0 || s.Likelihood > 1 {
			return nil, fmt.Errorf("entry %d likelihood %v outside [0,1]", i, s.Likelihood)
		}
	}
	return scores, nil
}
