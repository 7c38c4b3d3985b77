package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/providers/image"
	"server/internal/storage"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []image.GenerateRequest
	fail  map[domain.Viewpoint]bool
}

func (f *fakeGenerator) Generate(ctx context.Context, req image.GenerateRequest) (image.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fail[req.Viewpoint] {
		return image.Result{}, errors.New("model unreachable")
	}
	seed := int64(42)
	return image.Result{
		Ref:      "ref-" + string(req.Viewpoint),
		Model:    "test-model",
		Seed:     &seed,
		Format:   "image/png",
		Data:     []byte{0x89, 0x50},
		Thinking: "rendering " + string(req.Viewpoint),
	}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestOrchestrator(gen image.Generator) (*Orchestrator, *repo.JobRepositoryMemory) {
	jobs := repo.NewJobRepositoryMemory()
	orc := New(jobs, gen, zerolog.Nop(), Options{
		Concurrency: 2,
		Retries:     0,
		CallTimeout: time.Second,
		JobTimeout:  10 * time.Second,
	})
	return orc, jobs
}

func validRequest(views ...domain.Viewpoint) domain.ScenarioRequest {
	if len(views) == 0 {
		views = []domain.Viewpoint{domain.ViewpointAerial}
	}
	return domain.ScenarioRequest{
		Perimeter: domain.Perimeter{
			Points: []domain.LatLng{
				{Lat: -33.70, Lng: 150.30},
				{Lat: -33.71, Lng: 150.32},
				{Lat: -33.72, Lng: 150.29},
			},
			AreaHectares:       120,
			ExtentNorthSouthKm: 1.5,
			ExtentEastWestKm:   1.1,
		},
		Inputs: domain.FireInputs{
			WindSpeedKmh:  25,
			WindDirection: domain.SouthWest,
			TemperatureC:  34,
			HumidityPct:   18,
			TimeOfDay:     domain.TimeMorning,
			Intensity:     domain.IntensityHigh,
			Stage:         domain.StageDeveloping,
		},
		GeoContext: domain.GeoContext{
			VegetationType: "woodland",
			ElevationM:     410,
			SlopeMeanDeg:   9,
			SlopeMaxDeg:    15,
		},
		RequestedViews: views,
	}
}

func TestStartGenerationHappyPath(t *testing.T) {
	gen := &fakeGenerator{}
	orc, _ := newTestOrchestrator(gen)
	views := []domain.Viewpoint{
		domain.ViewpointAerial,
		domain.ViewpointGroundNorth,
		domain.ViewpointHelicopterAbove,
	}

	scenarioID, err := orc.StartGeneration(context.Background(), validRequest(views...))
	if err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	job, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, want completed", job.Status)
	}
	if job.TotalImages != 3 || job.CompletedImages != 3 || job.FailedImages != 0 {
		t.Fatalf("counters = %d/%d/%d, want 3/3/0", job.TotalImages, job.CompletedImages, job.FailedImages)
	}
	if job.AnchorImage == nil || job.AnchorImage.Viewpoint != domain.ViewpointAerial {
		t.Fatalf("AnchorImage = %+v, want the first requested viewpoint", job.AnchorImage)
	}
	if job.Validation == nil {
		t.Fatal("completed job must carry a validation result")
	}
	if job.ThinkingText == "" {
		t.Fatal("thinking text should have been captured")
	}
	for i, viewpoint := range views {
		if job.Images[i].Viewpoint != viewpoint {
			t.Fatalf("Images[%d] = %s, want request order %s", i, job.Images[i].Viewpoint, viewpoint)
		}
	}
}

func TestAnchorRunsFirstAndSeedsReferences(t *testing.T) {
	gen := &fakeGenerator{}
	orc, _ := newTestOrchestrator(gen)
	views := []domain.Viewpoint{
		domain.ViewpointGroundSouth,
		domain.ViewpointAerial,
		domain.ViewpointRidge,
	}

	if _, err := orc.StartGeneration(context.Background(), validRequest(views...)); err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(gen.calls))
	}
	first := gen.calls[0]
	if first.Viewpoint != domain.ViewpointGroundSouth {
		t.Fatalf("first call viewpoint = %s, want the anchor", first.Viewpoint)
	}
	if first.Reference != nil {
		t.Fatal("anchor call must not carry a reference")
	}
	for _, call := range gen.calls[1:] {
		if call.Reference == nil || call.Reference.Ref != "ref-"+string(domain.ViewpointGroundSouth) {
			t.Fatalf("non-anchor call missing anchor reference: %+v", call.Reference)
		}
		if call.Seed == nil || *call.Seed != 42 {
			t.Fatalf("non-anchor call should reuse the anchor seed, got %v", call.Seed)
		}
	}
}

func TestAllViewpointsFail(t *testing.T) {
	gen := &fakeGenerator{fail: map[domain.Viewpoint]bool{
		domain.ViewpointAerial:      true,
		domain.ViewpointGroundNorth: true,
	}}
	orc, _ := newTestOrchestrator(gen)

	scenarioID, err := orc.StartGeneration(context.Background(),
		validRequest(domain.ViewpointAerial, domain.ViewpointGroundNorth))
	if err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	job, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s, want failed", job.Status)
	}
	if len(job.Images) != 0 {
		t.Fatalf("Images = %d, want none", len(job.Images))
	}
	if job.AnchorImage != nil {
		t.Fatal("failed job must not carry an anchor")
	}
	if job.Validation != nil {
		t.Fatal("failed job must not carry a validation result")
	}
	if job.ErrorMessage == "" {
		t.Fatal("failed job must explain itself")
	}
}

func TestPartialFailureCompletes(t *testing.T) {
	gen := &fakeGenerator{fail: map[domain.Viewpoint]bool{domain.ViewpointAerial: true}}
	orc, _ := newTestOrchestrator(gen)

	scenarioID, err := orc.StartGeneration(context.Background(),
		validRequest(domain.ViewpointAerial, domain.ViewpointGroundNorth))
	if err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	job, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, want completed when one viewpoint succeeded", job.Status)
	}
	if job.CompletedImages != 1 || job.FailedImages != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", job.CompletedImages, job.FailedImages)
	}
	if job.CompletedImages+job.FailedImages > job.TotalImages {
		t.Fatal("resolved count exceeds total")
	}
	if job.AnchorImage != nil {
		t.Fatal("anchor failed, so no anchor image may be recorded")
	}
	if job.Validation == nil {
		t.Fatal("completed job must carry a validation result")
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	gen := &fakeGenerator{fail: map[domain.Viewpoint]bool{domain.ViewpointAerial: true}}
	jobs := repo.NewJobRepositoryMemory()
	orc := New(jobs, gen, zerolog.Nop(), Options{Retries: 2, CallTimeout: time.Second, JobTimeout: 10 * time.Second})

	if _, err := orc.StartGeneration(context.Background(), validRequest(domain.ViewpointAerial)); err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	if got := gen.callCount(); got != 3 {
		t.Fatalf("calls = %d, want 1 attempt + 2 retries", got)
	}
}

func TestSafetyViolationFailsBeforeGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	orc, _ := newTestOrchestrator(gen)

	req := validRequest(domain.ViewpointAerial)
	req.GeoContext.NearbyFeatures = []string{"casualties"}

	scenarioID, err := orc.StartGeneration(context.Background(), req)
	if err == nil {
		t.Fatal("expected safety violation")
	}
	var safety *domain.PromptSafetyError
	if !errors.As(err, &safety) {
		t.Fatalf("error = %T, want *domain.PromptSafetyError", err)
	}
	if scenarioID == "" {
		t.Fatal("safety-rejected jobs still get a scenario id")
	}
	if got := gen.callCount(); got != 0 {
		t.Fatalf("generator calls = %d, want zero side effects", got)
	}

	job, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s, want failed", job.Status)
	}
	if len(job.Images) != 0 {
		t.Fatal("safety-rejected job must have no images")
	}
}

func TestInvalidRequestRejectedWithoutJob(t *testing.T) {
	gen := &fakeGenerator{}
	orc, _ := newTestOrchestrator(gen)

	cases := []domain.ScenarioRequest{
		func() domain.ScenarioRequest {
			r := validRequest()
			r.RequestedViews = nil
			return r
		}(),
		func() domain.ScenarioRequest {
			r := validRequest()
			r.RequestedViews = make([]domain.Viewpoint, 11)
			for i := range r.RequestedViews {
				r.RequestedViews[i] = domain.ViewpointAerial
			}
			return r
		}(),
		func() domain.ScenarioRequest {
			r := validRequest()
			r.Perimeter.Points = r.Perimeter.Points[:2]
			return r
		}(),
		func() domain.ScenarioRequest {
			r := validRequest()
			r.GeoContext = domain.GeoContext{}
			return r
		}(),
	}
	for i, req := range cases {
		scenarioID, err := orc.StartGeneration(context.Background(), req)
		if !errors.Is(err, domain.ErrInvalidScenario) {
			t.Fatalf("case %d: err = %v, want ErrInvalidScenario", i, err)
		}
		if scenarioID != "" {
			t.Fatalf("case %d: no scenario id may be issued, got %q", i, scenarioID)
		}
	}
	if got := gen.callCount(); got != 0 {
		t.Fatalf("generator calls = %d, want 0", got)
	}
}

func TestGetStatusSnapshotsAreStable(t *testing.T) {
	gen := &fakeGenerator{}
	orc, _ := newTestOrchestrator(gen)
	scenarioID, err := orc.StartGeneration(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	first, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	second, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if first.Status != second.Status || first.CompletedImages != second.CompletedImages ||
		first.FailedImages != second.FailedImages || len(first.Images) != len(second.Images) ||
		!first.UpdatedAt.Equal(second.UpdatedAt) {
		t.Fatalf("repeated polls differ: %+v vs %+v", first, second)
	}

	// Mutating a snapshot must not leak into the store.
	first.Images = nil
	reread, err := orc.GetStatus(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetStatus returned error: %v", err)
	}
	if len(reread.Images) != 1 {
		t.Fatalf("snapshot mutation leaked into store: %+v", reread.Images)
	}
}

func TestGetResults(t *testing.T) {
	gen := &fakeGenerator{}
	orc, jobs := newTestOrchestrator(gen)

	if _, err := orc.GetResults(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	pending := &domain.GenerationJob{
		ScenarioID:  "in-flight",
		Status:      domain.JobStatusInProgress,
		TotalImages: 1,
	}
	if err := jobs.Create(context.Background(), pending); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if _, err := orc.GetResults(context.Background(), "in-flight"); !errors.Is(err, domain.ErrJobNotTerminal) {
		t.Fatalf("err = %v, want ErrJobNotTerminal", err)
	}

	scenarioID, err := orc.StartGeneration(context.Background(),
		validRequest(domain.ViewpointAerial, domain.ViewpointRidge))
	if err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	job, err := orc.GetResults(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetResults returned error: %v", err)
	}
	if len(job.Images) != 2 {
		t.Fatalf("Images = %d, want 2", len(job.Images))
	}
	if job.Validation == nil {
		t.Fatal("results must include the validation")
	}
}

func TestStartGenerationPersistsRenders(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	jobs := repo.NewJobRepositoryMemory()
	orc := New(jobs, &fakeGenerator{}, zerolog.Nop(), Options{
		Concurrency: 2,
		CallTimeout: time.Second,
		JobTimeout:  10 * time.Second,
		Store:       store,
	})

	scenarioID, err := orc.StartGeneration(context.Background(),
		validRequest(domain.ViewpointAerial, domain.ViewpointRidge))
	if err != nil {
		t.Fatalf("StartGeneration returned error: %v", err)
	}
	orc.Wait()

	job, err := jobs.GetByID(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if len(job.Images) != 2 {
		t.Fatalf("Images = %d, want 2", len(job.Images))
	}
	for _, img := range job.Images {
		want := "scenarios/" + scenarioID + "/" + string(img.Viewpoint) + ".png"
		if img.Ref != want {
			t.Fatalf("Ref = %q, want %q", img.Ref, want)
		}
		data, err := store.Read(context.Background(), img.Ref)
		if err != nil {
			t.Fatalf("Read(%q) returned error: %v", img.Ref, err)
		}
		if len(data) == 0 {
			t.Fatalf("stored render %q is empty", img.Ref)
		}
	}
}
