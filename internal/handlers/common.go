package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inkmark-app/inkmark/internal/models"
	"github.com/inkmark-app/inkmark/internal/storage"
	"github.com/inkmark-app/inkmark/internal/transcribe"
)

// maxPageBytes caps each uploaded page image at 10MB.
const maxPageBytes = 10 * 1024 * 1024

type Handler struct {
	store    *storage.JobStore
	engine   *transcribe.Engine
	provider string
	model    string
}

func New(engine *transcribe.Engine, provider, model string) *Handler {
	return &Handler{
		store:    storage.New(),
		engine:   engine,
		provider: provider,
		model:    model,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Job helpers
func (h *Handler) getJobOrError(w http.ResponseWriter, jobID string) (models.TranscriptionJob, bool) {
	job, exists := h.store.Get(jobID)
	if !exists {
		h.writeError(w, "Job not found", http.StatusNotFound)
		return models.TranscriptionJob{}, false
	}
	return job, true
}
