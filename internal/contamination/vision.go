package contamination

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxImageBytes bounds how much of a hosted image is downloaded.
const maxImageBytes = 15 << 20

// Generator runs one multimodal prompt and returns the raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// VisionProvider asks a generative vision model to grade the image against a
// fixed rubric. The model's label is only used when it returns no score; the
// label is otherwise re-derived from the bucket table.
type VisionProvider struct {
	gen    Generator
	client *http.Client
}

func NewVisionProvider(gen Generator, client *http.Client) *VisionProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &VisionProvider{gen: gen, client: client}
}

func (p *VisionProvider) Name() string { return "vision" }

func (p *VisionProvider) Score(ctx context.Context, img Image, meta Context) (Result, error) {
	if img.empty() {
		return Result{}, ErrNoImage
	}
	data, mime := img.Data, img.MIMEType
	if img.URL != "" {
		var err error
		data, mime, err = p.fetch(ctx, img.URL)
		if err != nil {
			return Result{}, err
		}
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}

	text, err := p.gen.Generate(ctx, rubricPrompt(meta), data, mime)
	if err != nil {
		return Result{}, err
	}
	return parseVisionReply(text)
}

func (p *VisionProvider) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetch image: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: fetch image: HTTP %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image: %v", ErrUpstreamUnavailable, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func rubricPrompt(meta Context) string {
	location := meta.Location
	if location == "" {
		location = "unknown"
	}
	wasteType := string(meta.WasteType)
	if wasteType == "" {
		wasteType = "unspecified"
	}
	return fmt.Sprintf(`You are inspecting a photo of a household or business waste pickup.
Declared waste type: %s. Location: %s.

Rate how contaminated the load is for its declared stream on a strict integer scale of 1 to 10:
1-2 Clean: only the declared material, no visible foreign items.
3-4 Low: a few small foreign items or light food residue.
5-7 Moderate: clearly mixed streams, bagged general waste or liquids present.
8-10 High: mostly non-recyclable or hazardous material, the load should be rejected.

Reply with JSON only, no markdown:
{"score": <integer 1-10>, "label": "Clean|Low|Moderate|High", "rationale": "<one sentence>"}`,
		wasteType, location)
}

type visionReply struct {
	Score     *float64 `json:"score"`
	Label     string   `json:"label"`
	Rationale string   `json:"rationale"`
}

// parseVisionReply decodes the model text, tolerating markdown code fences.
func parseVisionReply(text string) (Result, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var reply visionReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if reply.Score != nil {
		score := ClampScore(*reply.Score)
		return Result{Score: score, Label: LabelFor(score), Rationale: reply.Rationale}, nil
	}
	if label, ok := ParseLabel(reply.Label); ok {
		return Result{Score: label.floorScore(), Label: label, Rationale: reply.Rationale}, nil
	}
	return Result{}, fmt.Errorf("%w: reply carries neither score nor label", ErrMalformedResponse)
}
