// Package orchestrator turns one scenario request into a tracked, resumable,
// partially observable background generation job.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"server/internal/consistency"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/prompt"
	"server/internal/providers/image"
)

// ImageStore persists rendered image bytes under a storage key.
type ImageStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Options tunes how generation jobs are driven.
type Options struct {
	// Concurrency bounds the fan-out of non-anchor viewpoints.
	Concurrency int
	// Retries is the number of extra attempts per viewpoint after a failure.
	Retries int
	// CallTimeout bounds one generation call.
	CallTimeout time.Duration
	// JobTimeout bounds the whole job so pollers always reach a terminal state.
	JobTimeout time.Duration
	// Store, when set, persists rendered bytes and rewrites image refs to the
	// resulting storage keys. Without it refs stay provider-issued.
	Store ImageStore
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 2 * time.Minute
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 30 * time.Minute
	}
	return o
}

// Orchestrator owns generation job records. It is the single writer for every
// job it starts; pollers read snapshots through the repository.
type Orchestrator struct {
	repo      domain.JobRepository
	generator image.Generator
	logger    infra.Logger
	opts      Options
	wg        sync.WaitGroup
}

func New(repo domain.JobRepository, generator image.Generator, logger infra.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		generator: generator,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

// StartGeneration validates the request, composes the prompt set, records the
// job, and kicks off the background generation task. It returns as soon as the
// job is accepted; execution is asynchronous.
//
// A prompt safety violation still allocates a scenario id: the job record is
// created already failed so the violation stays inspectable, and the error is
// returned to the caller alongside the id.
func (o *Orchestrator) StartGeneration(ctx context.Context, req domain.ScenarioRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	scenarioID := uuid.NewString()
	set, err := prompt.BuildPromptSet(req)
	if err != nil {
		now := time.Now().UTC()
		failed := &domain.GenerationJob{
			ScenarioID:   scenarioID,
			Status:       domain.JobStatusFailed,
			TotalImages:  len(req.RequestedViews),
			Images:       []domain.GeneratedImage{},
			ErrorMessage: err.Error(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if createErr := o.repo.Create(ctx, failed); createErr != nil {
			o.logger.Error().Err(createErr).Str("scenario_id", scenarioID).
				Msg("orchestrator: failed to record safety-rejected job")
		}
		return scenarioID, err
	}

	now := time.Now().UTC()
	job := &domain.GenerationJob{
		ScenarioID:  scenarioID,
		Status:      domain.JobStatusPending,
		TotalImages: len(req.RequestedViews),
		Images:      []domain.GeneratedImage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.repo.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), o.opts.JobTimeout)
		defer cancel()
		o.run(runCtx, job, req, set)
	}()

	return scenarioID, nil
}

// GetStatus returns a point-in-time snapshot of the job.
func (o *Orchestrator) GetStatus(ctx context.Context, scenarioID string) (*domain.GenerationJob, error) {
	return o.repo.GetByID(ctx, scenarioID)
}

// GetResults returns the finished job. It fails with domain.ErrJobNotTerminal
// while generation is still running.
func (o *Orchestrator) GetResults(ctx context.Context, scenarioID string) (*domain.GenerationJob, error) {
	job, err := o.repo.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if !job.Status.Terminal() {
		return nil, domain.ErrJobNotTerminal
	}
	return job, nil
}

// Wait blocks until every in-flight job has reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run drives one job to a terminal state. The job value is owned exclusively
// by this task; every mutation goes through writeThrough so pollers observe
// progress immediately and counter updates stay linearizable.
func (o *Orchestrator) run(ctx context.Context, job *domain.GenerationJob, req domain.ScenarioRequest, set *domain.PromptSet) {
	var mu sync.Mutex

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("scenario_id", job.ScenarioID).Interface("panic", r).
				Msg("orchestrator: generation task panicked")
			mu.Lock()
			defer mu.Unlock()
			if !job.Status.Terminal() {
				job.Status = domain.JobStatusFailed
				job.ErrorMessage = fmt.Sprintf("internal error: %v", r)
				o.writeThrough(job)
			}
		}
	}()

	mu.Lock()
	job.Status = domain.JobStatusInProgress
	o.writeThrough(job)
	mu.Unlock()

	// The anchor viewpoint runs strictly first so every later viewpoint has a
	// stylistic reference to condition on.
	anchorView := req.RequestedViews[0]
	anchorResult := o.generateViewpoint(ctx, job.ScenarioID, set, anchorView, nil, nil)
	var reference *image.Reference
	var sharedSeed *int64
	mu.Lock()
	o.recordOutcome(job, anchorView, anchorResult)
	if anchorResult.err == nil {
		anchor := job.Images[0]
		job.AnchorImage = &anchor
		sharedSeed = anchorResult.result.Seed
		if len(anchorResult.result.Data) > 0 {
			reference = &image.Reference{
				Ref:  anchorResult.result.Ref,
				MIME: anchorResult.result.Format,
				Data: anchorResult.result.Data,
			}
		}
		o.writeThrough(job)
	}
	mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.opts.Concurrency)
	for _, viewpoint := range req.RequestedViews[1:] {
		viewpoint := viewpoint
		group.Go(func() error {
			outcome := o.generateViewpoint(groupCtx, job.ScenarioID, set, viewpoint, reference, sharedSeed)
			mu.Lock()
			o.recordOutcome(job, viewpoint, outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	mu.Lock()
	defer mu.Unlock()
	o.finalize(job, req)
}

type viewpointOutcome struct {
	result   image.Result
	duration time.Duration
	prompt   string
	err      error
}

// generateViewpoint runs one viewpoint with the per-call timeout and retry
// budget. All failures are per-viewpoint; nothing here aborts the job.
func (o *Orchestrator) generateViewpoint(ctx context.Context, scenarioID string, set *domain.PromptSet, viewpoint domain.Viewpoint, reference *image.Reference, seed *int64) viewpointOutcome {
	generated, ok := set.ForViewpoint(viewpoint)
	if !ok {
		return viewpointOutcome{err: fmt.Errorf("no prompt composed for viewpoint %q", viewpoint)}
	}

	var lastErr error
	start := time.Now()
	for attempt := 0; attempt <= o.opts.Retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
		result, err := o.generator.Generate(callCtx, image.GenerateRequest{
			Prompt:     generated.Text,
			ScenarioID: scenarioID,
			Viewpoint:  viewpoint,
			Reference:  reference,
			Seed:       seed,
		})
		cancel()
		if err == nil {
			o.persistRender(ctx, scenarioID, viewpoint, &result)
			return viewpointOutcome{
				result:   result,
				duration: time.Since(start),
				prompt:   generated.Text,
			}
		}
		lastErr = err
		o.logger.Warn().Err(err).
			Str("scenario_id", scenarioID).
			Str("viewpoint", string(viewpoint)).
			Int("attempt", attempt+1).
			Msg("orchestrator: viewpoint generation attempt failed")
		if ctx.Err() != nil {
			break
		}
	}
	return viewpointOutcome{duration: time.Since(start), prompt: generated.Text, err: lastErr}
}

// persistRender writes the image bytes through the configured store and swaps
// the image ref for the durable storage key. Persistence failures keep the
// provider ref; the render itself already succeeded.
func (o *Orchestrator) persistRender(ctx context.Context, scenarioID string, viewpoint domain.Viewpoint, result *image.Result) {
	if o.opts.Store == nil || len(result.Data) == 0 {
		return
	}
	key := fmt.Sprintf("scenarios/%s/%s%s", scenarioID, viewpoint, formatExtension(result.Format))
	stored, err := o.opts.Store.Write(ctx, key, result.Data)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("scenario_id", scenarioID).
			Str("viewpoint", string(viewpoint)).
			Msg("orchestrator: persist render failed, keeping provider ref")
		return
	}
	result.Ref = stored
}

func formatExtension(format string) string {
	switch format {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// recordOutcome applies one viewpoint result to the job. Callers hold the
// run's mutex, so counter updates are serialized and each viewpoint is
// counted exactly once.
func (o *Orchestrator) recordOutcome(job *domain.GenerationJob, viewpoint domain.Viewpoint, outcome viewpointOutcome) {
	if outcome.err != nil {
		job.FailedImages++
		o.logger.Warn().Err(outcome.err).
			Str("scenario_id", job.ScenarioID).
			Str("viewpoint", string(viewpoint)).
			Msg("orchestrator: viewpoint failed")
	} else {
		job.Images = append(job.Images, domain.GeneratedImage{
			Viewpoint: viewpoint,
			Ref:       outcome.result.Ref,
			Prompt:    outcome.prompt,
			Model:     outcome.result.Model,
			Seed:      outcome.result.Seed,
			Duration:  outcome.duration,
		})
		job.CompletedImages++
		if outcome.result.Thinking != "" {
			// Last value wins; thinkingText is a snapshot, not a history.
			job.ThinkingText = outcome.result.Thinking
		}
	}
	o.writeThrough(job)
}

// finalize resolves the terminal state: completed with a consistency result
// when at least one viewpoint succeeded, failed otherwise.
func (o *Orchestrator) finalize(job *domain.GenerationJob, req domain.ScenarioRequest) {
	if job.CompletedImages == 0 {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = "all viewpoint generations failed"
		o.writeThrough(job)
		o.logger.Error().Str("scenario_id", job.ScenarioID).Msg("orchestrator: job failed")
		return
	}

	sortByRequestOrder(job.Images, req.RequestedViews)
	validation := consistency.Validate(job.Images, req.Inputs, job.AnchorImage)
	job.Validation = &validation
	job.Status = domain.JobStatusCompleted
	o.writeThrough(job)

	o.logger.Info().
		Str("scenario_id", job.ScenarioID).
		Int("completed", job.CompletedImages).
		Int("failed", job.FailedImages).
		Int("consistency_score", validation.Score).
		Msg("orchestrator: job completed")
}

// writeThrough persists the current job state. A persistence hiccup must not
// strand the job, so failures are logged and the task keeps going; the next
// mutation retries implicitly.
func (o *Orchestrator) writeThrough(job *domain.GenerationJob) {
	job.UpdatedAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.repo.Update(ctx, job); err != nil {
		o.logger.Error().Err(err).Str("scenario_id", job.ScenarioID).
			Msg("orchestrator: persist job update failed")
	}
}

// sortByRequestOrder arranges images in viewpoint-request order for results.
func sortByRequestOrder(images []domain.GeneratedImage, order []domain.Viewpoint) {
	position := make(map[domain.Viewpoint]int, len(order))
	for i, v := range order {
		position[v] = i
	}
	for i := 1; i < len(images); i++ {
		for j := i; j > 0 && position[images[j].Viewpoint] < position[images[j-1].Viewpoint]; j-- {
			images[j], images[j-1] = images[j-1], images[j]
		}
	}
}
