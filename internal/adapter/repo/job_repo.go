package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. The variable
// parts of the record (images, anchor, validation) are stored as JSONB so the
// schema stays stable while the record evolves.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// EnsureSchema creates the jobs table when it does not exist yet. Single-table
// bootstrap keeps deployment to a connection string.
func (r *JobRepositoryPG) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS generation_jobs (
  scenario_id      TEXT PRIMARY KEY,
  status           TEXT NOT NULL,
  total_images     INT  NOT NULL,
  completed_images INT  NOT NULL DEFAULT 0,
  failed_images    INT  NOT NULL DEFAULT 0,
  images           JSONB,
  anchor_image     JSONB,
  thinking_text    TEXT NOT NULL DEFAULT '',
  error_message    TEXT NOT NULL DEFAULT '',
  validation       JSONB,
  created_at       TIMESTAMPTZ NOT NULL,
  updated_at       TIMESTAMPTZ NOT NULL
);
`
	_, err := r.pool.Exec(ctx, query)
	return err
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	images, anchor, validation, err := marshalJobBlobs(job)
	if err != nil {
		return err
	}
	query := `
INSERT INTO generation_jobs
  (scenario_id, status, total_images, completed_images, failed_images,
   images, anchor_image, thinking_text, error_message, validation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`
	_, err = r.pool.Exec(ctx, query,
		job.ScenarioID,
		job.Status,
		job.TotalImages,
		job.CompletedImages,
		job.FailedImages,
		images,
		anchor,
		job.ThinkingText,
		job.ErrorMessage,
		validation,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// Update overwrites the stored record with the caller's snapshot. The caller
// is the job's single writer, so last-write-wins is safe.
func (r *JobRepositoryPG) Update(ctx context.Context, job *domain.GenerationJob) error {
	images, anchor, validation, err := marshalJobBlobs(job)
	if err != nil {
		return err
	}
	query := `
UPDATE generation_jobs
SET status = $2,
    completed_images = $3,
    failed_images = $4,
    images = $5,
    anchor_image = $6,
    thinking_text = $7,
    error_message = $8,
    validation = $9,
    updated_at = $10
WHERE scenario_id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		job.ScenarioID,
		job.Status,
		job.CompletedImages,
		job.FailedImages,
		images,
		anchor,
		job.ThinkingText,
		job.ErrorMessage,
		validation,
		job.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a job snapshot by scenario id.
func (r *JobRepositoryPG) GetByID(ctx context.Context, scenarioID string) (*domain.GenerationJob, error) {
	query := `
SELECT scenario_id, status, total_images, completed_images, failed_images,
       images, anchor_image, thinking_text, error_message, validation, created_at, updated_at
FROM generation_jobs
WHERE scenario_id = $1;
`
	row := r.pool.QueryRow(ctx, query, scenarioID)
	var job domain.GenerationJob
	var images, anchor, validation []byte
	if err := row.Scan(
		&job.ScenarioID,
		&job.Status,
		&job.TotalImages,
		&job.CompletedImages,
		&job.FailedImages,
		&images,
		&anchor,
		&job.ThinkingText,
		&job.ErrorMessage,
		&validation,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := unmarshalJobBlobs(&job, images, anchor, validation); err != nil {
		return nil, err
	}
	return &job, nil
}

func marshalJobBlobs(job *domain.GenerationJob) (images, anchor, validation []byte, err error) {
	images, err = json.Marshal(job.Images)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	if job.AnchorImage != nil {
		anchor, err = json.Marshal(job.AnchorImage)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal anchor: %w", err)
		}
	}
	if job.Validation != nil {
		validation, err = json.Marshal(job.Validation)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal validation: %w", err)
		}
	}
	return images, anchor, validation, nil
}

func unmarshalJobBlobs(job *domain.GenerationJob, images, anchor, validation []byte) error {
	if len(images) > 0 {
		if err := json.Unmarshal(images, &job.Images); err != nil {
			return fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if job.Images == nil {
		job.Images = []domain.GeneratedImage{}
	}
	if len(anchor) > 0 {
		job.AnchorImage = &domain.GeneratedImage{}
		if err := json.Unmarshal(anchor, job.AnchorImage); err != nil {
			return fmt.Errorf("unmarshal anchor: %w", err)
		}
	}
	if len(validation) > 0 {
		job.Validation = &domain.ConsistencyValidationResult{}
		if err := json.Unmarshal(validation, job.Validation); err != nil {
			return fmt.Errorf("unmarshal validation: %w", err)
		}
	}
	return nil
}
