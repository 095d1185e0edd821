package jobs

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/models"
)

// Manager is the in-process registry of batch-ingestion jobs. All access is
// serialized by a single mutex; reads hand out deep copies so callers never
// observe a job mid-update. Jobs do not survive a restart.
type Manager struct {
	mu      sync.Mutex
	jobs    map[string]*models.BatchJob
	cancels map[string]context.CancelFunc

	retention time.Duration
}

func NewManager(retention time.Duration) *Manager {
	return &Manager{
		jobs:      make(map[string]*models.BatchJob),
		cancels:   make(map[string]context.CancelFunc),
		retention: retention,
	}
}

// Create registers a new queued job and returns its ID.
func (m *Manager) Create(collection string, totalDocuments int) string {
	id := uuid.NewString()
	job := &models.BatchJob{
		ID:             id,
		CollectionName: collection,
		Status:         models.JobQueued,
		CreatedAt:      time.Now().UTC(),
		TotalDocuments: totalDocuments,
		Results:        []models.JobResult{},
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return id
}

// RegisterCancel stores the cancel function the worker goroutine listens on.
func (m *Manager) RegisterCancel(jobID string, cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancels[jobID] = cancel
	m.mu.Unlock()
}

// MarkProcessing moves a queued job to processing and stamps StartedAt.
// Returns false if the job is missing or already left the queued state
// (e.g. cancelled before the worker picked it up).
func (m *Manager) MarkProcessing(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok || job.Status != models.JobQueued {
		return false
	}
	now := time.Now().UTC()
	job.Status = models.JobProcessing
	job.StartedAt = &now
	return true
}

// AddResult appends one per-document outcome and advances the progress
// counters.
func (m *Manager) AddResult(jobID string, result models.JobResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	job.Results = append(job.Results, result)
	job.ProcessedDocuments++
	if result.Status == "completed" {
		job.SuccessfulDocuments++
	} else {
		job.FailedDocuments++
	}
	if job.TotalDocuments > 0 {
		job.ProgressPercentage = float64(job.ProcessedDocuments) / float64(job.TotalDocuments) * 100
	}
}

// Complete moves a job to the completed terminal state. Per-document
// failures live in the counters and results; they never flip the job
// itself to failed.
func (m *Manager) Complete(jobID string) {
	m.finish(jobID, func(job *models.BatchJob) {
		job.Status = models.JobCompleted
	})
}

// Fail moves a job to the failed terminal state with a reason.
func (m *Manager) Fail(jobID, reason string) {
	m.finish(jobID, func(job *models.BatchJob) {
		job.Status = models.JobFailed
		job.ErrorMessage = reason
	})
}

// MarkCancelled records that the worker observed cancellation and stopped.
func (m *Manager) MarkCancelled(jobID string) {
	m.finish(jobID, func(job *models.BatchJob) {
		job.Status = models.JobCancelled
	})
}

func (m *Manager) finish(jobID string, apply func(*models.BatchJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	apply(job)
	now := time.Now().UTC()
	job.CompletedAt = &now
	delete(m.cancels, jobID)
}

// Cancel requests cooperative cancellation of a queued or processing job.
// A queued job is cancelled immediately; a processing job gets its context
// cancelled and the worker finishes the in-flight document before stopping.
// Already-terminal jobs return a ConflictError.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return &core.NotFoundError{Resource: "Job", Key: jobID}
	}
	if job.Status == models.JobCancelled {
		return &core.CancelledError{JobID: jobID}
	}
	if job.Status.Terminal() {
		return &core.ConflictError{Reason: "job already finished"}
	}

	if cancel, ok := m.cancels[jobID]; ok {
		cancel()
	}

	if job.Status == models.JobQueued {
		job.Status = models.JobCancelled
		now := time.Now().UTC()
		job.CompletedAt = &now
		delete(m.cancels, jobID)
	}
	// A processing job stays processing until its worker observes the
	// cancelled context and calls MarkCancelled.

	return nil
}

// Get returns a copy of the job, or a NotFoundError.
func (m *Manager) Get(jobID string) (*models.BatchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, &core.NotFoundError{Resource: "Job", Key: jobID}
	}
	return copyJob(job), nil
}

// List returns copies of the newest jobs first (created_at descending),
// optionally filtered by status and collection name and truncated to
// limit. Empty filter values match everything; a non-positive limit means
// no truncation.
func (m *Manager) List(status, collection string, limit int) []*models.BatchJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.BatchJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status != "" && string(job.Status) != status {
			continue
		}
		if collection != "" && job.CollectionName != collection {
			continue
		}
		out = append(out, copyJob(job))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Counts returns the number of jobs per status.
func (m *Manager) Counts() map[models.JobStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[models.JobStatus]int)
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts
}

// Cleanup drops terminal jobs older than the retention window. Returns the
// number removed. In-flight jobs are never touched.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-m.retention)
	removed := 0
	for id, job := range m.jobs {
		if !job.Status.Terminal() || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("JobManager: cleaned up %d finished jobs", removed)
	}
	return removed
}

func copyJob(job *models.BatchJob) *models.BatchJob {
	cp := *job
	cp.Results = make([]models.JobResult, len(job.Results))
	copy(cp.Results, job.Results)
	return &cp
}
