// Package llm wraps the external text-generation model API.
package llm

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"sift_server/pkg/apperr"
	"sift_server/pkg/logger"
)

const DefaultModel = "gpt-4o-mini"

type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	apiKeySet   bool
	cb          *gobreaker.CircuitBreaker
}

type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewClient creates a model client. The API key comes from the process
// environment; a missing key surfaces as an AuthError on the first call, not
// at construction, so the service can still boot for the read endpoints.
func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	cbSettings := gobreaker.Settings{
		Name:     "extraction-model",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(cfg.Temperature),
		apiKeySet:   cfg.APIKey != "",
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// Complete sends a single-turn prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.apiKeySet {
		return "", apperr.Auth("extraction model API key is not configured", nil)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperr.DeadlineExceeded("model call", err)
		}
		return "", apperr.ExtractionCall(err)
	}

	return result.(string), nil
}
