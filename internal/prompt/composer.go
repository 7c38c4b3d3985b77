// Package prompt turns structured scenario data into viewpoint-specific
// natural-language generation instructions. Composition is pure and
// deterministic for identical inputs; the template version participates in
// prompt-set identity.
package prompt

import (
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
)

// TemplateVersion identifies the narrative template in use.
const TemplateVersion = "bushfire-v1"

// Compose builds the full prompt for one viewpoint: style framing, scene
// grounding, fire behaviour, atmosphere, camera framing, and the trailing
// safety clause, joined with single-space normalization. A blocked-term match
// fails composition with a *domain.PromptSafetyError.
func Compose(req domain.ScenarioRequest, viewpoint domain.Viewpoint) (string, error) {
	segments := []string{
		styleFraming,
		sceneGrounding(req.GeoContext),
		fireBehaviour(req.Inputs, req.Perimeter),
		atmosphere(req.Inputs),
		cameraFraming(viewpoint),
		safetyClause,
	}
	text := normalize(strings.Join(segments, " "))
	if terms := scanBlockedTerms(text); len(terms) > 0 {
		return "", &domain.PromptSafetyError{Viewpoint: viewpoint, Terms: terms}
	}
	return text, nil
}

// BuildPromptSet composes one prompt per requested viewpoint. Any composition
// failure fails the whole set; a partial set is never returned.
func BuildPromptSet(req domain.ScenarioRequest) (*domain.PromptSet, error) {
	set := &domain.PromptSet{
		ID:              uuid.NewString(),
		TemplateVersion: TemplateVersion,
		Prompts:         make([]domain.GeneratedPrompt, 0, len(req.RequestedViews)),
	}
	for _, viewpoint := range req.RequestedViews {
		text, err := Compose(req, viewpoint)
		if err != nil {
			return nil, err
		}
		set.Prompts = append(set.Prompts, domain.GeneratedPrompt{
			SetID:     set.ID,
			Viewpoint: viewpoint,
			Text:      text,
		})
	}
	return set, nil
}

const styleFraming = "Photorealistic on-location photography of an active bushfire. " +
	"Depict the mapped terrain exactly as described, as a faithful record of a real landscape, " +
	"not an artistic interpretation."

const safetyClause = "The scene is uninhabited wilderness containing only terrain, vegetation, fire, and smoke."

// normalize collapses whitespace runs to single spaces and trims the ends.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
