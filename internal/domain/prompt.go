package domain

// GeneratedPrompt is the final natural-language instruction for one viewpoint.
type GeneratedPrompt struct {
	SetID     string    `json:"set_id"`
	Viewpoint Viewpoint `json:"viewpoint"`
	Text      string    `json:"text"`
}

// PromptSet is the full collection of per-viewpoint prompts for one job.
// Creation is atomic: a set either covers every requested viewpoint with
// safety-checked text, or it does not exist. Immutable after creation.
type PromptSet struct {
	ID              string            `json:"id"`
	TemplateVersion string            `json:"template_version"`
	Prompts         []GeneratedPrompt `json:"prompts"`
}

// ForViewpoint returns the prompt for the given viewpoint, if present.
func (s *PromptSet) ForViewpoint(v Viewpoint) (GeneratedPrompt, bool) {
	for _, p := range s.Prompts {
		if p.Viewpoint == v {
			return p, true
		}
	}
	return GeneratedPrompt{}, false
}
