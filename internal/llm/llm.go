// Package llm is the completion gateway: it sends a single prompt to a
// text-completion provider and returns the raw reply.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/docent/internal/config"
)

// FailureText is returned in place of a completion whenever the provider
// call fails. Callers pass it through as ordinary text.
const FailureText = "Error during LLM processing."

// Completer turns a prompt into raw completion text. Implementations never
// return an error: provider failures are logged and reported as FailureText.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// Gateway is a Completer that can also verify its credentials.
type Gateway interface {
	Completer
	Ping(ctx context.Context) error
}

// New creates the gateway for the configured provider.
func New(cfg config.LLM, logger *slog.Logger) (Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg, logger), nil
	case config.ProviderGemini:
		return NewGemini(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// withTimeout bounds a single provider call when a timeout is configured.
func withTimeout(ctx context.Context, cfg config.LLM) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
