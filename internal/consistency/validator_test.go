package consistency

import (
	"strings"
	"testing"

	"server/internal/domain"
)

func fireInputs() domain.FireInputs {
	return domain.FireInputs{
		WindDirection: domain.NorthWest,
		TimeOfDay:     domain.TimeAfternoon,
		Intensity:     domain.IntensityHigh,
	}
}

const consistentPrompt = "bushfire scene, wind 35 km/h blowing from the nw, warm late-afternoon sun"

func imageSet(n int, model string, seed *int64, viewpoints ...domain.Viewpoint) []domain.GeneratedImage {
	images := make([]domain.GeneratedImage, n)
	for i := range images {
		viewpoint := domain.ViewpointAerial
		if i < len(viewpoints) {
			viewpoint = viewpoints[i]
		}
		images[i] = domain.GeneratedImage{
			Viewpoint: viewpoint,
			Ref:       "ref",
			Prompt:    consistentPrompt,
			Model:     model,
			Seed:      seed,
		}
	}
	return images
}

func checkByName(t *testing.T, result domain.ConsistencyValidationResult, name string) domain.ConsistencyCheck {
	t.Helper()
	for _, c := range result.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q missing from %+v", name, result.Checks)
	return domain.ConsistencyCheck{}
}

func TestValidateFullyConsistentSet(t *testing.T) {
	seed := int64(42)
	images := imageSet(5, "test-model", &seed,
		domain.ViewpointAerial,
		domain.ViewpointGroundNorth,
		domain.ViewpointGroundSouth,
		domain.ViewpointAerial,
		domain.ViewpointGroundWest,
	)
	anchor := images[0]

	result := Validate(images, fireInputs(), &anchor)

	if !result.Passed {
		t.Fatalf("Passed = false, score %d", result.Score)
	}
	if result.Score != 100 {
		t.Fatalf("Score = %d, want 100", result.Score)
	}
	if got := checkByName(t, result, "Color Palette Similarity"); got.Score != 100 || !got.Passed {
		t.Fatalf("color check = %+v, want score 100 pass", got)
	}
	if got := checkByName(t, result, "Fire Size Proportionality"); got.Score != 100 || !got.Passed {
		t.Fatalf("size check = %+v, want score 100 pass", got)
	}
	if len(result.Recommendations) != 0 {
		t.Fatalf("Recommendations = %v, want none", result.Recommendations)
	}
}

func TestValidateScoresStayInRange(t *testing.T) {
	seed := int64(7)
	images := imageSet(3, "test-model", &seed, domain.ViewpointAerial, domain.ViewpointRidge)
	result := Validate(images, fireInputs(), nil)
	if result.Score < 0 || result.Score > 100 {
		t.Fatalf("overall score %d out of range", result.Score)
	}
	for _, c := range result.Checks {
		if c.Score < 0 || c.Score > 100 {
			t.Fatalf("check %s score %d out of range", c.Name, c.Score)
		}
	}
	if len(result.Checks) != 4 {
		t.Fatalf("checks = %d, want 4", len(result.Checks))
	}
}

func TestValidateWeightedAggregate(t *testing.T) {
	// Smoke and lighting match fully, seeds differ (color 80), two categories
	// with no anchor (size 70): 100*0.30 + 100*0.25 + 80*0.25 + 70*0.20 = 89.
	seedA, seedB := int64(1), int64(2)
	images := imageSet(2, "test-model", nil, domain.ViewpointAerial, domain.ViewpointGroundNorth)
	images[0].Seed = &seedA
	images[1].Seed = &seedB

	result := Validate(images, fireInputs(), nil)
	if result.Score != 89 {
		t.Fatalf("Score = %d, want 89", result.Score)
	}
	if !result.Passed {
		t.Fatal("score 89 should pass")
	}
}

func TestValidateSameModelDifferentSeeds(t *testing.T) {
	seedA, seedB := int64(1), int64(2)
	images := imageSet(2, "test-model", nil)
	images[0].Seed = &seedA
	images[1].Seed = &seedB
	result := Validate(images, fireInputs(), nil)
	if got := checkByName(t, result, "Color Palette Similarity"); got.Score != 80 {
		t.Fatalf("color score = %d, want 80", got.Score)
	}
}

func TestValidateMixedModels(t *testing.T) {
	images := imageSet(2, "model-a", nil)
	images[1].Model = "model-b"
	result := Validate(images, fireInputs(), nil)
	got := checkByName(t, result, "Color Palette Similarity")
	if got.Score != 60 || got.Passed {
		t.Fatalf("color check = %+v, want score 60 fail", got)
	}
	if !contains(result.Recommendations, "apply color grading") {
		t.Fatalf("Recommendations = %v, want color grading advice", result.Recommendations)
	}
}

func TestValidateSmokeFailureRecommendsWindReview(t *testing.T) {
	images := imageSet(2, "test-model", nil)
	images[0].Prompt = "a calm landscape at afternoon sun"
	images[1].Prompt = "a calm landscape at afternoon sun"
	result := Validate(images, fireInputs(), nil)
	if got := checkByName(t, result, "Smoke Direction Consistency"); got.Passed {
		t.Fatalf("smoke check should fail, got %+v", got)
	}
	if !contains(result.Recommendations, "review wind parameter") {
		t.Fatalf("Recommendations = %v, want wind review advice", result.Recommendations)
	}
}

func TestValidateDegenerateEmptySet(t *testing.T) {
	result := Validate(nil, fireInputs(), nil)
	if result.Passed {
		t.Fatal("empty set must fail")
	}
	if len(result.Checks) != 4 {
		t.Fatalf("checks = %d, want fully populated result", len(result.Checks))
	}
	if result.Score < 0 || result.Score > 100 {
		t.Fatalf("score %d out of range", result.Score)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("empty set should carry a warning")
	}
	if !contains(result.Recommendations, "regenerate with a different seed") {
		t.Fatalf("Recommendations = %v, want regenerate advice", result.Recommendations)
	}
}

func contains(values []string, substr string) bool {
	for _, v := range values {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}
