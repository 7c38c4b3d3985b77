// Package consistency scores whether a finished image set agrees with the
// request and with itself. Validate is pure, never errors, and runs exactly
// once per completed job.
package consistency

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
)

// Check weights sum to 1.0; the overall score is the weighted, rounded
// aggregate and passes at 70.
const (
	weightSmoke    = 0.30
	weightLighting = 0.25
	weightColor    = 0.25
	weightSize     = 0.20

	passOverall   = 70
	passFraction  = 80
	passHeuristic = 70
)

var titleCaser = cases.Title(language.Und)

// Validate scores the image set against the scenario inputs. A degenerate set
// (zero images) degrades to a failing, fully populated result.
func Validate(images []domain.GeneratedImage, inputs domain.FireInputs, anchor *domain.GeneratedImage) domain.ConsistencyValidationResult {
	var warnings []string
	if len(images) == 0 {
		warnings = append(warnings, "no images available to validate")
	}

	smoke := checkSmokeDirection(images, inputs)
	size := checkFireSize(images, anchor)
	lighting := checkLighting(images, inputs)
	color := checkColorPalette(images)

	if !smoke.Passed {
		warnings = append(warnings, fmt.Sprintf("smoke direction cues missing from %d of %d prompts",
			len(images)-promptMatchCount(images, smokeTokens(inputs)), len(images)))
	}
	if !lighting.Passed {
		warnings = append(warnings, "lighting description varies across the image set")
	}

	score := int(math.Round(
		float64(smoke.Score)*weightSmoke +
			float64(lighting.Score)*weightLighting +
			float64(color.Score)*weightColor +
			float64(size.Score)*weightSize))

	var recommendations []string
	if score < passOverall {
		recommendations = append(recommendations, "regenerate with a different seed")
	}
	if !smoke.Passed {
		recommendations = append(recommendations, "review wind parameter")
	}
	if !color.Passed {
		recommendations = append(recommendations, "apply color grading")
	}

	return domain.ConsistencyValidationResult{
		Passed:          score >= passOverall,
		Score:           score,
		Checks:          []domain.ConsistencyCheck{smoke, size, lighting, color},
		Warnings:        warnings,
		Recommendations: recommendations,
	}
}

func smokeTokens(inputs domain.FireInputs) []string {
	return []string{strings.ToLower(string(inputs.WindDirection)), "wind"}
}

// checkSmokeDirection scores the fraction of prompts mentioning the expected
// wind direction or the wind itself.
func checkSmokeDirection(images []domain.GeneratedImage, inputs domain.FireInputs) domain.ConsistencyCheck {
	score := fractionScore(images, smokeTokens(inputs))
	return domain.ConsistencyCheck{
		Name:   titleCaser.String("smoke direction consistency"),
		Passed: score >= passFraction,
		Score:  score,
	}
}

// checkFireSize is a heuristic on viewpoint coverage: multiple vantage
// categories plus a style anchor gives the model enough cross-reference to
// keep the fire footprint proportionate.
func checkFireSize(images []domain.GeneratedImage, anchor *domain.GeneratedImage) domain.ConsistencyCheck {
	categories := map[string]bool{}
	for _, img := range images {
		categories[img.Viewpoint.Category()] = true
	}
	score := 50
	switch {
	case len(categories) > 1 && anchor != nil:
		score = 100
	case len(categories) > 1:
		score = 70
	}
	return domain.ConsistencyCheck{
		Name:   titleCaser.String("fire size proportionality"),
		Passed: score >= passHeuristic,
		Score:  score,
	}
}

func checkLighting(images []domain.GeneratedImage, inputs domain.FireInputs) domain.ConsistencyCheck {
	tokens := []string{strings.ToLower(string(inputs.TimeOfDay)), "lighting", "sun"}
	score := fractionScore(images, tokens)
	return domain.ConsistencyCheck{
		Name:   titleCaser.String("lighting consistency"),
		Passed: score >= passFraction,
		Score:  score,
	}
}

// checkColorPalette scores palette similarity from generation metadata: a
// shared model and seed is the strongest continuity signal available without
// pixel inspection.
func checkColorPalette(images []domain.GeneratedImage) domain.ConsistencyCheck {
	score := 60
	if sameModel(images) && len(images) > 0 {
		if sameSeed(images) {
			score = 100
		} else {
			score = 80
		}
	}
	return domain.ConsistencyCheck{
		Name:   titleCaser.String("color palette similarity"),
		Passed: score >= passHeuristic,
		Score:  score,
	}
}

func sameModel(images []domain.GeneratedImage) bool {
	for _, img := range images {
		if img.Model != images[0].Model {
			return false
		}
	}
	return true
}

// sameSeed holds when every image carries the same seed, or none carries one.
func sameSeed(images []domain.GeneratedImage) bool {
	first := images[0].Seed
	for _, img := range images {
		switch {
		case first == nil && img.Seed == nil:
		case first != nil && img.Seed != nil && *first == *img.Seed:
		default:
			return false
		}
	}
	return true
}

func promptMatchCount(images []domain.GeneratedImage, tokens []string) int {
	count := 0
	for _, img := range images {
		lower := strings.ToLower(img.Prompt)
		for _, token := range tokens {
			if token != "" && strings.Contains(lower, token) {
				count++
				break
			}
		}
	}
	return count
}

func fractionScore(images []domain.GeneratedImage, tokens []string) int {
	if len(images) == 0 {
		return 0
	}
	matched := promptMatchCount(images, tokens)
	return int(math.Round(float64(matched) / float64(len(images)) * 100))
}
