package models

import "time"

// Job lifecycle states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// TranscriptionJob represents one note conversion submitted to the server
type TranscriptionJob struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Pages      []PageItem `json:"pages"`
	Title      string     `json:"title,omitempty"`
	Markdown   string     `json:"markdown,omitempty"`
	Error      string     `json:"error,omitempty"`
	Provider   string     `json:"provider,omitempty"`
	Model      string     `json:"model,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j *TranscriptionJob) Finished() bool {
	switch j.Status {
	case StatusDone, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PageItem represents an uploaded note page
type PageItem struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	ImageWidth     int    `json:"image_width"`
	ImageHeight    int    `json:"image_height"`
	LinesCompleted int    `json:"lines_completed"`
	LinesTotal     int    `json:"lines_total"`
}
