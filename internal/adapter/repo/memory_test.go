package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"server/internal/domain"
)

func sampleJob(id string) *domain.GenerationJob {
	now := time.Now().UTC()
	return &domain.GenerationJob{
		ScenarioID:  id,
		Status:      domain.JobStatusPending,
		TotalImages: 2,
		Images:      []domain.GeneratedImage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryRepoCreateAndGet(t *testing.T) {
	r := NewJobRepositoryMemory()
	ctx := context.Background()

	if err := r.Create(ctx, sampleJob("a")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := r.Create(ctx, sampleJob("a")); err == nil {
		t.Fatal("duplicate create should fail")
	}

	job, err := r.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if job.ScenarioID != "a" || job.Status != domain.JobStatusPending {
		t.Fatalf("job = %+v", job)
	}

	if _, err := r.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryRepoUpdate(t *testing.T) {
	r := NewJobRepositoryMemory()
	ctx := context.Background()

	if err := r.Update(ctx, sampleJob("ghost")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	job := sampleJob("a")
	if err := r.Create(ctx, job); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	job.Status = domain.JobStatusInProgress
	job.CompletedImages = 1
	job.Images = append(job.Images, domain.GeneratedImage{Viewpoint: domain.ViewpointAerial, Ref: "r"})
	if err := r.Update(ctx, job); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	stored, err := r.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Status != domain.JobStatusInProgress || stored.CompletedImages != 1 || len(stored.Images) != 1 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestMemoryRepoSnapshotsDoNotAlias(t *testing.T) {
	r := NewJobRepositoryMemory()
	ctx := context.Background()

	job := sampleJob("a")
	job.Images = append(job.Images, domain.GeneratedImage{Viewpoint: domain.ViewpointAerial, Ref: "r"})
	if err := r.Create(ctx, job); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Mutations after Create must not reach the store.
	job.Images[0].Ref = "tampered"
	job.Status = domain.JobStatusFailed

	stored, err := r.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Images[0].Ref != "r" || stored.Status != domain.JobStatusPending {
		t.Fatalf("caller mutation leaked into store: %+v", stored)
	}

	// And mutations of a snapshot must not either.
	stored.Images[0].Ref = "tampered"
	again, err := r.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if again.Images[0].Ref != "r" {
		t.Fatalf("snapshot mutation leaked into store: %+v", again)
	}
}
