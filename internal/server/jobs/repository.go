// Package jobs records every analysis attempt: the storage location, the
// stage it ended in, the backend status and whether the uploaded object was
// compensated. The ledger is written best effort by the orchestrator and read
// by GET /api/analysis/{requestId}.
package jobs

import (
	"context"
	"time"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one ledger row. Attempts counts how many times the same requestId
// was started.
type Job struct {
	RequestID     string    `json:"requestId"`
	Provider      string    `json:"provider"`
	Bucket        string    `json:"bucket"`
	Path          string    `json:"path"`
	FileName      string    `json:"fileName,omitempty"`
	SourceType    string    `json:"sourceType,omitempty"`
	Status        Status    `json:"status"`
	FailedStage   string    `json:"failedStage,omitempty"`
	Code          string    `json:"code,omitempty"`
	BackendStatus int       `json:"backendStatus,omitempty"`
	SHA256        string    `json:"sha256,omitempty"`
	Compensated   bool      `json:"compensated"`
	Attempts      int       `json:"attempts"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Outcome is the terminal state of an attempt.
type Outcome struct {
	Status        Status
	FailedStage   string
	Code          string
	BackendStatus int
	SHA256        string
	Compensated   bool
}

type Repository interface {
	// Start inserts a running job or, for a known requestId, resets it to
	// running and bumps Attempts.
	Start(ctx context.Context, job *Job) error
	// Finish stores the outcome and appends an event row. Unknown ids yield
	// common.ErrorNotFound.
	Finish(ctx context.Context, requestID string, out Outcome) error
	Get(ctx context.Context, requestID string) (*Job, error)
}
