package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/docent/internal/config"
	"github.com/pavelanni/docent/internal/handler"
	appI18n "github.com/pavelanni/docent/internal/i18n"
	"github.com/pavelanni/docent/internal/llm"
	"github.com/pavelanni/docent/internal/ocr"
	"github.com/pavelanni/docent/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "docent",
		Short:        "Document research assistant: summarize, answer questions and quiz comprehension",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, extractCmd(), summarizeCmd(), askCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `docent --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":5000", "HTTP listen address")
	f.String("upload-dir", "uploads", "Directory for uploaded files while they are processed")
	f.Int64("max-upload-bytes", 32<<20, "Maximum upload and request body size in bytes")
	f.StringP("lang", "l", "en", "Default language for API messages (en, ru)")
	f.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins (repeatable)")
	f.Bool("llm-ping", false, "Check the completion endpoint before serving")
	addLLMFlags(f)
	addOCRFlags(f)
	addLogFlags(f)
	return cmd
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the text extracted from a PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	addOCRFlags(cmd.Flags())
	addLogFlags(cmd.Flags())
	return cmd
}

func summarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize FILE",
		Short: "Extract a document and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummarize,
	}
	addLLMFlags(cmd.Flags())
	addOCRFlags(cmd.Flags())
	addLogFlags(cmd.Flags())
	return cmd
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask FILE QUESTION",
		Short: "Answer a question from a document",
		Args:  cobra.ExactArgs(2),
		RunE:  runAsk,
	}
	addLLMFlags(cmd.Flags())
	addOCRFlags(cmd.Flags())
	addLogFlags(cmd.Flags())
	return cmd
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-provider", config.ProviderOpenAI, "Completion provider (openai, gemini)")
	f.String("llm-url", "https://api.cerebras.ai/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the completion provider (or set DOCENT_LLM_KEY / CEREBRAS_API_KEY)")
	f.String("llm-model", "llama3.1-8b", "Model name")
	f.Duration("llm-timeout", 60*time.Second, "Timeout for a single completion call (0 = none)")
}

func addOCRFlags(f *pflag.FlagSet) {
	f.String("tesseract", "tesseract", "Path to the tesseract binary")
	f.String("pdftoppm", "pdftoppm", "Path to the pdftoppm binary")
	f.String("ocr-lang", "eng", "Tesseract language")
	f.Int("ocr-dpi", 300, "Rasterization resolution for PDF pages")
	f.Int("ocr-max-pages", 0, "Maximum PDF pages to recognize (0 = all)")
	f.String("temp-dir", "", "Directory for temporary rasters (default: system temp dir)")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("DOCENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm-key", "DOCENT_LLM_KEY", "CEREBRAS_API_KEY")

	v.SetConfigName("docent")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/docent")
	v.AddConfigPath("/etc/docent")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadConfig reads and validates the configuration for commands that call
// the completion provider.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.FromViper(viperForCmd(cmd))
	if cfg.MaxUploadBytes == 0 {
		// One-shot commands have no upload flags.
		cfg.MaxUploadBytes = 32 << 20
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newService(cfg config.Config) (*service.Service, llm.Gateway, error) {
	logger := slog.Default()
	gw, err := llm.New(cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM client: %w", err)
	}
	return service.New(ocr.New(cfg.OCR, logger), gw, logger), gw, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := appI18n.Init(cfg.Lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	svc, gw, err := newService(cfg)
	if err != nil {
		return err
	}
	if viperForCmd(cmd).GetBool("llm-ping") {
		if err := gw.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	h, err := handler.New(svc, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handler.CORS(cfg.AllowedOrigins))
	r.Use(appI18n.Middleware(cfg.Lang))
	h.Routes(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", cfg.Addr,
			"provider", cfg.LLM.Provider,
			"model", cfg.LLM.Model,
			"llm_url", cfg.LLM.BaseURL,
			"lang", cfg.Lang,
			"upload_dir", cfg.UploadDir,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runExtract(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	cfg := config.FromViper(viperForCmd(cmd))

	res, err := ocr.New(cfg.OCR, slog.Default()).Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		slog.Warn("extraction warning", "warning", w)
	}
	slog.Info("extracted document", "kind", res.Kind, "pages", res.Pages, "duration", res.Duration)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	return err
}

func runSummarize(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, _, err := newService(cfg)
	if err != nil {
		return err
	}

	res, err := svc.Summarize(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
	return err
}

func runAsk(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()
	extractor := ocr.New(cfg.OCR, logger)

	res, err := extractor.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	gw, err := llm.New(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	answer, err := service.New(extractor, gw, logger).Ask(cmd.Context(), args[1], res.Text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
	return err
}
