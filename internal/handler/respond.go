package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appI18n "github.com/pavelanni/docent/internal/i18n"
	"github.com/pavelanni/docent/internal/model"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "status", status, "error", err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var missing *model.MissingInputError
	if errors.As(err, &missing) {
		h.logger.Info("rejected request", "path", r.URL.Path, "field", missing.Field)
		h.writeMessage(w, http.StatusBadRequest, appI18n.TOr(ctx, missing.MessageID, missing.Message))
		return
	}

	var extraction *model.ExtractionError
	if errors.As(err, &extraction) {
		h.logger.Error("extraction failed", "path", extraction.Path, "stage", extraction.Stage, "error", extraction.Err)
		h.writeMessage(w, http.StatusInternalServerError,
			appI18n.TOr(ctx, "ExtractionFailed", "Could not extract text from the uploaded file"))
		return
	}

	h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	h.writeMessage(w, http.StatusInternalServerError, appI18n.TOr(ctx, "InternalError", "Internal server error"))
}
