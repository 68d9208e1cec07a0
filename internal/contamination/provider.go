package contamination

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/models"
)

// Image is the input of one scoring attempt: either a hosted URL or raw
// bytes. When both are set a provider uses the URL.
type Image struct {
	URL      string
	Data     []byte
	MIMEType string
}

func (i Image) empty() bool { return i.URL == "" && len(i.Data) == 0 }

// Context is the metadata sent alongside the image.
type Context struct {
	WasteType models.WasteType
	Location  string
}

// Result is a provider answer on the 1–10 rubric scale.
type Result struct {
	Score     int    `json:"score"`
	Label     Label  `json:"label"`
	Rationale string `json:"rationale,omitempty"`
}

// Provider scores one image. Implementations wrap transport problems in
// ErrUpstreamUnavailable and unparseable replies in ErrMalformedResponse.
type Provider interface {
	Name() string
	Score(ctx context.Context, img Image, meta Context) (Result, error)
}

// NewProvider builds the strategy named by cfg.Provider. It is called once
// at startup; call sites only ever see the Provider interface.
func NewProvider(ctx context.Context, cfg config.ScoringConfig) (Provider, error) {
	client := &http.Client{Timeout: cfg.Timeout + 5*time.Second}
	switch cfg.Provider {
	case config.ProviderVision:
		gen, err := NewGenAIGenerator(ctx, cfg.Vision.APIKey, cfg.Vision.Model)
		if err != nil {
			return nil, err
		}
		return NewVisionProvider(gen, client), nil
	case config.ProviderExternal:
		return NewExternalProvider(cfg.External.Endpoint, cfg.External.APIKey, client), nil
	default:
		return nil, fmt.Errorf("unknown scoring provider %q", cfg.Provider)
	}
}
