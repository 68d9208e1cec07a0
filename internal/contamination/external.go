package contamination

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ExternalProvider posts the image to a configurable inference endpoint. The
// endpoint may answer on a 0–1, 1–10 or 0–100 scale; NormalizeExternal
// brings the score onto the rubric scale.
type ExternalProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewExternalProvider(endpoint, apiKey string, client *http.Client) *ExternalProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &ExternalProvider{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (p *ExternalProvider) Name() string { return "external" }

type externalRequest struct {
	ImageURL    string `json:"imageUrl,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	WasteType   string `json:"wasteType,omitempty"`
	Location    string `json:"location,omitempty"`
}

// scoreKeys are the response fields checked for a score, in order.
var scoreKeys = []string{"score", "contaminationScore", "contamination_score"}

func (p *ExternalProvider) Score(ctx context.Context, img Image, meta Context) (Result, error) {
	if img.empty() {
		return Result{}, ErrNoImage
	}
	payload := externalRequest{
		WasteType: string(meta.WasteType),
		Location:  meta.Location,
	}
	if img.URL != "" {
		payload.ImageURL = img.URL
	} else {
		payload.ImageBase64 = base64.StdEncoding.EncodeToString(img.Data)
		payload.MIMEType = img.MIMEType
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read reply: %v", ErrUpstreamUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return Result{}, fmt.Errorf("%w: HTTP %d: %s", ErrMalformedResponse, resp.StatusCode, truncate(raw, 200))
	}
	return parseExternalReply(raw)
}

func parseExternalReply(raw []byte) (Result, error) {
	var reply map[string]any
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var (
		value float64
		found bool
	)
	for _, key := range scoreKeys {
		if v, ok := reply[key].(float64); ok {
			value, found = v, true
			break
		}
	}
	var res Result
	switch label, labelled := parseReplyLabel(reply); {
	case found:
		// The stored label always follows the bucket of the stored score.
		score := NormalizeExternal(value)
		res = Result{Score: score, Label: LabelFor(score)}
	case labelled:
		res = Result{Score: label.floorScore(), Label: label}
	default:
		return Result{}, fmt.Errorf("%w: reply carries neither score nor label", ErrMalformedResponse)
	}
	if s, ok := reply["rationale"].(string); ok {
		res.Rationale = s
	}
	return res, nil
}

func parseReplyLabel(reply map[string]any) (Label, bool) {
	s, ok := reply["label"].(string)
	if !ok {
		return "", false
	}
	return ParseLabel(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
