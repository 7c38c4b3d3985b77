package repo

import (
	"context"
	"fmt"
	"sync"

	"server/internal/domain"
)

// JobRepositoryMemory is an in-process domain.JobRepository used when no
// database is configured and in tests. Reads and writes exchange deep copies,
// so a stored record is never aliased by callers.
type JobRepositoryMemory struct {
	mu   sync.RWMutex
	jobs map[string]*domain.GenerationJob
}

func NewJobRepositoryMemory() *JobRepositoryMemory {
	return &JobRepositoryMemory{jobs: make(map[string]*domain.GenerationJob)}
}

func (r *JobRepositoryMemory) Create(ctx context.Context, job *domain.GenerationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ScenarioID]; exists {
		return fmt.Errorf("job %s already exists", job.ScenarioID)
	}
	r.jobs[job.ScenarioID] = job.Clone()
	return nil
}

func (r *JobRepositoryMemory) GetByID(ctx context.Context, scenarioID string) (*domain.GenerationJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[scenarioID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (r *JobRepositoryMemory) Update(ctx context.Context, job *domain.GenerationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ScenarioID]; !ok {
		return domain.ErrNotFound
	}
	r.jobs[job.ScenarioID] = job.Clone()
	return nil
}

var _ domain.JobRepository = (*JobRepositoryMemory)(nil)
var _ domain.JobRepository = (*JobRepositoryPG)(nil)
