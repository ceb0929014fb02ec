package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/inkmark-app/inkmark/internal/models"
)

// handlePreview renders a finished job's Markdown as an HTML fragment.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	job, ok := h.getJobOrError(w, jobID)
	if !ok {
		return
	}
	if job.Status != models.StatusDone {
		h.writeError(w, "Job has no transcription to preview", http.StatusConflict)
		return
	}

	md := goldmark.New()
	var buf bytes.Buffer
	if err := md.Convert([]byte(job.Markdown), &buf); err != nil {
		slog.Error("Unable to render Markdown preview", "job_id", jobID, "error", err)
		h.writeError(w, "Failed to render preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write preview response", "err", err)
	}
}
