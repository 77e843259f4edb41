package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
)

var timeNow = time.Now

// InMemoryRepository is the ledger used when no database DSN is configured.
type InMemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{jobs: make(map[string]*Job)}
}

func (r *InMemoryRepository) Start(ctx context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := timeNow()
	if existing, ok := r.jobs[job.RequestID]; ok {
		existing.Status = StatusRunning
		existing.FailedStage = ""
		existing.Code = ""
		existing.BackendStatus = 0
		existing.Compensated = false
		existing.Attempts++
		existing.UpdatedAt = now
		return nil
	}

	j := *job
	j.Status = StatusRunning
	j.Attempts = 1
	j.CreatedAt = now
	j.UpdatedAt = now
	r.jobs[j.RequestID] = &j

	return nil
}

func (r *InMemoryRepository) Finish(ctx context.Context, requestID string, out Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[requestID]
	if !ok {
		return common.ErrorNotFound
	}

	j.Status = out.Status
	j.FailedStage = out.FailedStage
	j.Code = out.Code
	j.BackendStatus = out.BackendStatus
	if out.SHA256 != "" {
		j.SHA256 = out.SHA256
	}
	j.Compensated = out.Compensated
	j.UpdatedAt = timeNow()

	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, requestID string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[requestID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *j
	return &cp, nil
}
