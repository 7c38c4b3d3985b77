package image

import (
	"context"

	"server/internal/providers/genai"
)

// GeminiGenerator adapts the Gemini client to the Generator contract.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	imageReq := genai.ImageRequest{
		Prompt:    req.Prompt,
		RequestID: req.ScenarioID + "/" + string(req.Viewpoint),
		Seed:      req.Seed,
	}
	if req.Reference != nil {
		imageReq.Reference = req.Reference.Data
		imageReq.ReferenceMIME = req.Reference.MIME
	}
	asset, err := g.client.GenerateImage(ctx, imageReq)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Ref:      asset.Ref,
		Model:    g.client.Model(),
		Seed:     asset.Seed,
		Format:   asset.Format,
		Data:     asset.Data,
		Thinking: asset.Thinking,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
