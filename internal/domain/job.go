package domain

import "time"

// JobStatus enumerates the generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// GeneratedImage is one successfully produced viewpoint image. Immutable once
// appended to a job.
type GeneratedImage struct {
	Viewpoint Viewpoint     `json:"viewpoint"`
	Ref       string        `json:"ref"`
	Prompt    string        `json:"prompt"`
	Model     string        `json:"model"`
	Seed      *int64        `json:"seed,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// GenerationJob is the orchestrator's central record for one scenario,
// keyed by ScenarioID. Single writer (the owning orchestration task),
// any number of readers through repository snapshots.
type GenerationJob struct {
	ScenarioID      string                       `json:"scenario_id"`
	Status          JobStatus                    `json:"status"`
	TotalImages     int                          `json:"total_images"`
	CompletedImages int                          `json:"completed_images"`
	FailedImages    int                          `json:"failed_images"`
	Images          []GeneratedImage             `json:"images"`
	AnchorImage     *GeneratedImage              `json:"anchor_image,omitempty"`
	ThinkingText    string                       `json:"thinking_text,omitempty"`
	ErrorMessage    string                       `json:"error,omitempty"`
	Validation      *ConsistencyValidationResult `json:"validation,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// Clone returns a deep copy so repository snapshots never alias the live record.
func (j *GenerationJob) Clone() *GenerationJob {
	cp := *j
	if j.Images != nil {
		cp.Images = make([]GeneratedImage, len(j.Images))
		copy(cp.Images, j.Images)
	}
	if j.AnchorImage != nil {
		anchor := *j.AnchorImage
		cp.AnchorImage = &anchor
	}
	if j.Validation != nil {
		cp.Validation = j.Validation.Clone()
	}
	return &cp
}
