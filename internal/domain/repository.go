package domain

import "context"

// JobRepository is the persistence collaborator for generation jobs. The core
// requires only create, read by id, and update; storage technology is the
// implementation's concern. Writes to any one scenario id come from exactly
// one orchestration task, reads may be concurrent, and returned records are
// snapshots the caller may freely mutate.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, scenarioID string) (*GenerationJob, error)
	Update(ctx context.Context, job *GenerationJob) error
}
