package image

import (
	"context"

	"server/internal/domain"
)

// GenerateRequest is the normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt     string
	ScenarioID string
	Viewpoint  domain.Viewpoint
	// Reference carries the anchor image for style continuity on non-anchor
	// viewpoints. Nil for the anchor itself.
	Reference *Reference
	// Seed pins the model's sampling when continuity across viewpoints matters.
	Seed *int64
}

// Reference is the conditioning image handed to the model.
type Reference struct {
	Ref  string
	MIME string
	Data []byte
}

// Result is one generated image plus its provenance metadata.
type Result struct {
	Ref      string
	Model    string
	Seed     *int64
	Format   string
	Data     []byte
	Thinking string
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Result, error)
}
