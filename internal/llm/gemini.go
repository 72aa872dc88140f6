package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pavelanni/docent/internal/config"
	"github.com/pavelanni/docent/internal/logtext"
)

// generator is the part of *genai.GenerativeModel the gateway uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	CountTokens(ctx context.Context, parts ...genai.Part) (*genai.CountTokensResponse, error)
}

// dialFunc opens a generator for one call; the returned func releases it.
type dialFunc func(ctx context.Context, cfg config.LLM) (generator, func() error, error)

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	cfg    config.LLM
	logger *slog.Logger
	dial   dialFunc
}

// NewGemini creates a Gemini-backed gateway.
func NewGemini(cfg config.LLM, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{cfg: cfg, logger: logger, dial: dialGenAI}
}

func dialGenAI(ctx context.Context, cfg config.LLM) (generator, func() error, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("gemini client: %w", err)
	}
	return cl.GenerativeModel(strings.TrimSpace(cfg.Model)), cl.Close, nil
}

// Complete sends prompt as a single user turn.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) string {
	text, err := g.complete(ctx, prompt)
	if err != nil {
		g.logger.Error("completion failed", "provider", config.ProviderGemini, "model", g.cfg.Model, "error", err)
		return FailureText
	}
	return text
}

func (g *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg)
	defer cancel()

	m, closeFn, err := g.dial(ctx, g.cfg)
	if err != nil {
		return "", err
	}
	defer closeFn()

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	raw := firstText(resp)
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("gemini returned no text")
	}
	g.logger.Debug("LLM response",
		"model", g.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_chars", len(prompt),
		"raw", logtext.Truncate(raw, logtext.ResponseLimit),
	)
	return strings.TrimSpace(raw), nil
}

// Ping counts tokens for a trivial prompt, which needs a valid key and model.
func (g *GeminiClient) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, g.cfg)
	defer cancel()

	m, closeFn, err := g.dial(ctx, g.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := m.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("count tokens: %w", err)
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
