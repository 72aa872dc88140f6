package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/docent/internal/config"
	"github.com/pavelanni/docent/internal/logtext"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	api    *openai.Client
	cfg    config.LLM
	logger *slog.Logger
}

// NewOpenAI creates a client for the configured base URL and model.
func NewOpenAI(cfg config.LLM, logger *slog.Logger) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		api:    openai.NewClientWithConfig(oc),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) string {
	text, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Error("completion failed", "provider", config.ProviderOpenAI, "model", c.cfg.Model, "error", err)
		return FailureText
	}
	return text
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.cfg)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	c.logger.Debug("LLM response",
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_chars", len(prompt),
		"raw", logtext.Truncate(raw, logtext.ResponseLimit),
	)
	return strings.TrimSpace(raw), nil
}

// Ping checks that the endpoint accepts our credentials.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.cfg)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
