package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/inkmark-app/inkmark/internal/images"
	"github.com/inkmark-app/inkmark/internal/models"
	"github.com/inkmark-app/inkmark/internal/note"
	"github.com/inkmark-app/inkmark/internal/providers"
)

func (h *Handler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.store.GetAll())
	case "POST":
		h.handleCreateJob(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleJobDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID, ok := strings.CutSuffix(path, "/preview"); ok {
		h.handlePreview(w, r, jobID)
		return
	}

	switch r.Method {
	case "GET":
		job, ok := h.getJobOrError(w, path)
		if !ok {
			return
		}
		h.writeJSON(w, job)
	case "DELETE":
		h.handleDeleteJob(w, path)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Invalid multipart request: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["pages"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No page images in request", http.StatusBadRequest)
		return
	}

	pages := make([][]byte, 0, len(headers))
	items := make([]models.PageItem, 0, len(headers))
	for i, header := range headers {
		data, err := readPageFile(header)
		if err != nil {
			h.writeError(w, fmt.Sprintf("Failed to read %s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}

		item := models.PageItem{
			ID:       fmt.Sprintf("page_%d", i+1),
			Filename: header.Filename,
		}
		width, height, err := images.Dimensions(data)
		if err != nil {
			slog.Warn("Unable to read page dimensions", "filename", header.Filename, "error", err)
		} else {
			item.ImageWidth = width
			item.ImageHeight = height
		}

		pages = append(pages, data)
		items = append(items, item)
	}

	jobID := fmt.Sprintf("job_%d", time.Now().UnixNano())
	job := &models.TranscriptionJob{
		ID:        jobID,
		Status:    models.StatusPending,
		Pages:     items,
		Provider:  h.provider,
		Model:     h.model,
		CreatedAt: time.Now(),
	}
	h.store.Set(jobID, job)

	// The job outlives the upload request, so it runs on its own
	// cancellable context rather than the request's.
	ctx, cancel := context.WithCancel(context.Background())
	h.store.SetCancel(jobID, cancel)
	go h.runJob(ctx, jobID, pages)

	response := map[string]any{
		"id":      jobID,
		"status":  models.StatusPending,
		"message": fmt.Sprintf("Successfully uploaded %d pages", len(pages)),
		"pages":   len(pages),
	}

	h.writeJSON(w, response)
}

func (h *Handler) handleDeleteJob(w http.ResponseWriter, jobID string) {
	if _, exists := h.store.Get(jobID); !exists {
		h.writeError(w, "Job not found", http.StatusNotFound)
		return
	}

	if h.store.Cancel(jobID) {
		slog.Info("Job cancellation requested", "job_id", jobID)
		h.writeJSON(w, map[string]any{
			"id":      jobID,
			"message": "Job cancellation requested",
		})
		return
	}

	h.store.Delete(jobID)
	h.writeJSON(w, map[string]any{
		"id":      jobID,
		"message": "Job deleted",
	})
}

func (h *Handler) runJob(ctx context.Context, jobID string, pages [][]byte) {
	defer h.store.ClearCancel(jobID)

	h.store.Update(jobID, func(job *models.TranscriptionJob) {
		job.Status = models.StatusRunning
	})
	slog.Info("Transcription job started", "job_id", jobID, "pages", len(pages))

	progress := func(page, completed, total int) {
		h.store.Update(jobID, func(job *models.TranscriptionJob) {
			if page < 0 || page >= len(job.Pages) {
				return
			}
			job.Pages[page].LinesCompleted = completed
			job.Pages[page].LinesTotal = total
		})
	}

	markdown, err := h.engine.ConvertPages(ctx, pages, progress)
	finished := time.Now()

	if err != nil {
		status := models.StatusFailed
		if providers.IsCancelled(err) {
			status = models.StatusCancelled
		}
		h.store.Update(jobID, func(job *models.TranscriptionJob) {
			job.Status = status
			job.Error = err.Error()
			job.FinishedAt = &finished
		})
		slog.Error("Transcription job failed", "job_id", jobID, "status", status, "error", err)
		return
	}

	title := note.Title(ctx, h.engine.Provider(), markdown, finished)
	h.store.Update(jobID, func(job *models.TranscriptionJob) {
		job.Status = models.StatusDone
		job.Markdown = markdown
		job.Title = title
		job.FinishedAt = &finished
	})
	slog.Info("Transcription job finished", "job_id", jobID, "title", title)
}

func readPageFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPageBytes))
	if err != nil {
		return nil, err
	}
	if len(data) >= maxPageBytes {
		return nil, errors.New("file too large (max 10MB)")
	}
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	return data, nil
}
