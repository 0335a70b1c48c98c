package dtos

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobError records one store the billing run could not process.
type JobError struct {
	StoreID uuid.UUID `json:"store_id"`
	Message string    `json:"message"`
}

// BillingJob tracks the progress of one asynchronous billing run across all
// active stores for a period.
type BillingJob struct {
	ID          uuid.UUID  `json:"id"`
	Period      string     `json:"period"` // YYYY-MM
	Status      JobStatus  `json:"status"`
	Total       int        `json:"total"` // stores to process
	Processed   int        `json:"processed"`
	Generated   int        `json:"generated"` // new billing records written
	Skipped     int        `json:"skipped"`   // stores already billed for the period
	Failed      int        `json:"failed"`
	Errors      []JobError `json:"errors,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
