package utils

import (
	"sync"
	"time"

	"mercato-backend/dtos"

	"github.com/google/uuid"
)

// JobStore tracks billing runs in memory. Runs are short-lived bookkeeping,
// not durable state: the billing records themselves land in the database,
// the job entry only answers "how far along is it" while an admin polls.
type JobStore struct {
	jobs map[uuid.UUID]*dtos.BillingJob
	mu   sync.RWMutex
}

// Store is the process-wide job store instance.
var Store = &JobStore{
	jobs: make(map[uuid.UUID]*dtos.BillingJob),
}

// CleanupOldJobs removes finished jobs older than 1 hour.
func (js *JobStore) CleanupOldJobs() {
	js.mu.Lock()
	defer js.mu.Unlock()

	cutoff := time.Now().Add(-1 * time.Hour)
	for id, job := range js.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(js.jobs, id)
		}
	}
}

// CreateJob registers a new billing run over the given number of stores.
func (js *JobStore) CreateJob(period string, totalStores int) *dtos.BillingJob {
	js.CleanupOldJobs()

	js.mu.Lock()
	defer js.mu.Unlock()

	job := &dtos.BillingJob{
		ID:        uuid.New(),
		Period:    period,
		Status:    dtos.JobStatusPending,
		Total:     totalStores,
		Errors:    []dtos.JobError{},
		StartedAt: time.Now(),
	}

	js.jobs[job.ID] = job
	return job
}

// GetJob retrieves a job by ID.
func (js *JobStore) GetJob(id uuid.UUID) (*dtos.BillingJob, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	job, exists := js.jobs[id]
	return job, exists
}

// UpdateJob applies a mutation to a job under the store's lock.
func (js *JobStore) UpdateJob(id uuid.UUID, update func(*dtos.BillingJob)) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		update(job)
	}
}

// CompleteJob marks a job finished with the given terminal status.
func (js *JobStore) CompleteJob(id uuid.UUID, status dtos.JobStatus) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		now := time.Now()
		job.Status = status
		job.CompletedAt = &now
	}
}
