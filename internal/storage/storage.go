package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/inkmark-app/inkmark/internal/models"
)

// JobStore keeps transcription jobs and their cancel functions in memory.
// Jobs are mutated by the worker goroutine while handlers read them, so the
// store hands out copies and routes writes through Update.
type JobStore struct {
	jobs    map[string]*models.TranscriptionJob
	cancels map[string]context.CancelFunc
	mu      sync.RWMutex
}

func New() *JobStore {
	return &JobStore{
		jobs:    make(map[string]*models.TranscriptionJob),
		cancels: make(map[string]context.CancelFunc),
	}
}

func (s *JobStore) Get(jobID string) (models.TranscriptionJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return models.TranscriptionJob{}, false
	}
	return cloneJob(job), true
}

func (s *JobStore) Set(jobID string, job *models.TranscriptionJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = job
}

// Update applies fn to the stored job under the write lock.
func (s *JobStore) Update(jobID string, fn func(*models.TranscriptionJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return false
	}
	fn(job)
	return true
}

// GetAll returns every job, newest first.
func (s *JobStore) GetAll() []models.TranscriptionJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.TranscriptionJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		result = append(result, cloneJob(job))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *JobStore) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, exists := s.cancels[jobID]; exists {
		cancel()
		delete(s.cancels, jobID)
	}
	delete(s.jobs, jobID)
}

// SetCancel registers the cancel function for a running job.
func (s *JobStore) SetCancel(jobID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[jobID] = cancel
}

// Cancel invokes and removes the job's cancel function. It reports whether
// a running job was found.
func (s *JobStore) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, exists := s.cancels[jobID]
	if !exists {
		return false
	}
	cancel()
	delete(s.cancels, jobID)
	return true
}

// ClearCancel removes the cancel function without invoking it, once a job
// has finished on its own.
func (s *JobStore) ClearCancel(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, jobID)
}

func cloneJob(job *models.TranscriptionJob) models.TranscriptionJob {
	c := *job
	c.Pages = make([]models.PageItem, len(job.Pages))
	copy(c.Pages, job.Pages)
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		c.FinishedAt = &t
	}
	return c
}
