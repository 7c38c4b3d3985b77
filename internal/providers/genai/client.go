package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"server/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
	// Limiter throttles outbound generation calls. Nil disables throttling.
	Limiter *rate.Limiter
}

// Client is a lightweight facade over the Gemini generateContent API. Without
// an API key it synthesizes deterministic placeholder images, so the whole
// scenario pipeline stays runnable in local and CI environments while keeping
// the extension points for the real integration.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	limiter    *rate.Limiter
}

// ImageRequest carries one viewpoint's generation call.
type ImageRequest struct {
	Prompt    string
	RequestID string
	// Reference conditions the model on the anchor image for style continuity.
	Reference []byte
	// ReferenceMIME defaults to image/png when Reference is set.
	ReferenceMIME string
	// Seed, when set, is passed through for reproducible palettes.
	Seed *int64
}

// ImageAsset is the normalized result of one generation call.
type ImageAsset struct {
	Ref      string
	Format   string
	Data     []byte
	Seed     *int64
	Thinking string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount int    `json:"candidateCount,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. A nil HTTP client
// gets a reusable one with a generation-sized timeout.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		limiter:    opts.Limiter,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateImage produces one image for the request. Without an API key the
// asset is synthesized deterministically from the prompt and seed.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return ImageAsset{}, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return ImageAsset{}, err
		}
	}

	if c.apiKey == "" {
		return c.syntheticImage(req), nil
	}
	return c.remoteGenerateImage(ctx, req)
}

func (c *Client) syntheticImage(req ImageRequest) ImageAsset {
	seed := req.Seed
	if seed == nil {
		derived := derivedSeed(req.Prompt, req.RequestID)
		seed = &derived
	}
	key := syntheticKey(c.model, req.Prompt, *seed)
	asset := ImageAsset{
		Ref:      key,
		Format:   "image/png",
		Data:     renderSyntheticImage(1024, 768, *seed),
		Seed:     seed,
		Thinking: fmt.Sprintf("Rendering scene locally with seed %d.", *seed),
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int64("seed", *seed).
		Msg("genai: generated synthetic image asset")

	return asset
}

func (c *Client) remoteGenerateImage(ctx context.Context, req ImageRequest) (ImageAsset, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	if len(req.Reference) > 0 {
		mime := req.ReferenceMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.Reference),
		}})
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount: 1,
			Seed:           req.Seed,
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invokeGemini(ctx, path, payload, &response); err != nil {
		return ImageAsset{}, err
	}

	asset := ImageAsset{Seed: req.Seed}
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && asset.Thinking == "" {
				asset.Thinking = part.Text
			}
			if part.InlineData == nil || part.InlineData.Data == "" || len(asset.Data) > 0 {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return ImageAsset{}, fmt.Errorf("decode inline data: %w", err)
			}
			asset.Data = data
			asset.Format = firstNonEmpty(part.InlineData.MimeType, "image/png")
		}
	}
	if len(asset.Data) == 0 {
		return ImageAsset{}, fmt.Errorf("no image content returned")
	}
	asset.Ref = remoteKey(c.model, req.RequestID, asset.Data)

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("bytes", len(asset.Data)).
		Msg("genai: generated remote image asset")

	return asset, nil
}

func (c *Client) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// derivedSeed hashes the prompt and request id into a stable non-negative seed.
func derivedSeed(prompt, requestID string) int64 {
	sum := sha256.Sum256([]byte(prompt + "|" + requestID))
	v := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	return v
}

func syntheticKey(model, prompt string, seed int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", model, prompt, seed)))
	return fmt.Sprintf("synthetic/%s/%s.png", url.PathEscape(model), hex.EncodeToString(sum[:8]))
}

func remoteKey(model, requestID string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("generated/%s/%s-%s.png", url.PathEscape(model), requestID, hex.EncodeToString(sum[:8]))
}

// renderSyntheticImage paints a seed-derived gradient with stripe accents so
// placeholder sets are visually distinguishable per viewpoint.
func renderSyntheticImage(width, height int, seed int64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := height / 10
	if stripeHeight < 24 {
		stripeHeight = 24
	}
	for y := 0; y < height; y += stripeHeight * 2 {
		bottom := y + stripeHeight
		if bottom > height {
			bottom = height
		}
		draw.Draw(img, image.Rect(0, y, width, bottom), &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed int64, shift int) color.RGBA {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(seed))
	sum := sha256.Sum256(append(b[:], byte(shift)))
	return color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
