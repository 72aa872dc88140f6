// Package config holds the immutable runtime configuration of the service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrMissingAPIKey is returned by Validate when no completion API key is set.
var ErrMissingAPIKey = errors.New("completion API key is required: set --llm-key, DOCENT_LLM_KEY or CEREBRAS_API_KEY")

// Config is populated once at process start and read-only afterwards.
type Config struct {
	Addr           string
	UploadDir      string
	MaxUploadBytes int64
	Lang           string
	AllowedOrigins []string
	LLM            LLM
	OCR            OCR
}

// LLM configures the completion gateway.
type LLM struct {
	Provider string // "openai" (any OpenAI-compatible endpoint) or "gemini"
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// OCR configures text extraction.
type OCR struct {
	Tesseract string
	Pdftoppm  string
	Lang      string
	DPI       int
	MaxPages  int // 0 = no limit
	TempDir   string
}

// FromViper reads the configuration from a viper instance whose keys match
// the CLI flag names.
func FromViper(v *viper.Viper) Config {
	return Config{
		Addr:           v.GetString("addr"),
		UploadDir:      v.GetString("upload-dir"),
		MaxUploadBytes: v.GetInt64("max-upload-bytes"),
		Lang:           v.GetString("lang"),
		AllowedOrigins: v.GetStringSlice("allowed-origins"),
		LLM: LLM{
			Provider: strings.ToLower(strings.TrimSpace(v.GetString("llm-provider"))),
			BaseURL:  v.GetString("llm-url"),
			APIKey:   strings.TrimSpace(v.GetString("llm-key")),
			Model:    v.GetString("llm-model"),
			Timeout:  v.GetDuration("llm-timeout"),
		},
		OCR: OCR{
			Tesseract: v.GetString("tesseract"),
			Pdftoppm:  v.GetString("pdftoppm"),
			Lang:      v.GetString("ocr-lang"),
			DPI:       v.GetInt("ocr-dpi"),
			MaxPages:  v.GetInt("ocr-max-pages"),
			TempDir:   v.GetString("temp-dir"),
		},
	}
}

// Validate fails fast on settings the service cannot run without.
func (c Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q (want %s or %s)", c.LLM.Provider, ProviderOpenAI, ProviderGemini)
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("ocr dpi must be positive, got %d", c.OCR.DPI)
	}
	if c.OCR.MaxPages < 0 {
		return fmt.Errorf("ocr max pages must not be negative, got %d", c.OCR.MaxPages)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}
