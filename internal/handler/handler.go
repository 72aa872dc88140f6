package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/docent/internal/config"
	appI18n "github.com/pavelanni/docent/internal/i18n"
	"github.com/pavelanni/docent/internal/model"
	"github.com/pavelanni/docent/internal/service"
)

// Interactor is the set of user-facing operations served over HTTP.
type Interactor interface {
	Summarize(ctx context.Context, path string) (service.SummaryResult, error)
	Ask(ctx context.Context, question, documentText string) (string, error)
	Challenge(ctx context.Context, req model.ChallengeRequest) (service.ChallengeResponse, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc     Interactor
	config  config.Config
	schemas *schemas
	logger  *slog.Logger
}

// New creates a new Handler. The upload directory is created if needed.
func New(svc Interactor, cfg config.Config, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Handler{svc: svc, config: cfg, schemas: s, logger: logger}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleStatus)
	r.Post("/upload", h.handleUpload)
	r.Post("/ask", h.handleAsk)
	r.Post("/challenge", h.handleChallenge)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, model.StatusResponse{
		Status: appI18n.TOr(r.Context(), "StatusOK", "Backend is running"),
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeMessage(w, http.StatusRequestEntityTooLarge,
				appI18n.Td(r.Context(), "UploadTooLarge", map[string]any{"Limit": tooLarge.Limit}))
			return
		}
		h.logger.Warn("parse multipart form", "error", err)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, model.NewMissingInput("file", model.MsgMissingFile, "Missing file"))
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("remove upload", "path", path, "error", err)
		}
	}()

	h.logger.Info("received upload", "filename", header.Filename, "size", header.Size, "path", path)
	res, err := h.svc.Summarize(r.Context(), path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, model.SummaryResponse{Summary: res.Summary, DocumentText: res.DocumentText})
}

// saveUpload copies the uploaded file into the upload directory under a
// unique name that keeps the original extension.
func (h *Handler) saveUpload(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	path := filepath.Join(h.config.UploadDir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if !h.decode(w, r, h.schemas.ask, &req) {
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.Question, req.DocumentText)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, model.AskResponse{Answer: answer})
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req model.ChallengeRequest
	if !h.decode(w, r, h.schemas.challenge, &req) {
		return
	}

	resp, err := h.svc.Challenge(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if resp.Evaluation != nil {
		h.writeJSON(w, http.StatusOK, model.EvaluationResponse{
			Score:    resp.Evaluation.Score,
			Feedback: resp.Evaluation.FeedbackByKey(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, model.QuestionsResponse{Questions: model.QuestionTexts(resp.Questions)})
}
