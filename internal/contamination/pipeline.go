package contamination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const defaultTimeout = 20 * time.Second

// Source is everything the caller holds about an uploaded image.
type Source struct {
	URL      string
	Data     []byte
	MIMEType string
}

// Mode records which attempt produced a score.
type Mode string

const (
	ModeURL    Mode = "url"
	ModeBuffer Mode = "buffer"
)

// Evaluation is a successful pipeline run.
type Evaluation struct {
	Result
	Mode     Mode
	Provider string
}

// Pipeline calls a Provider with the URL-first, buffer-fallback convention.
// Each attempt is bounded by the timeout; there is at most one fallback.
type Pipeline struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

func NewPipeline(provider Provider, timeout time.Duration, logger *slog.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{provider: provider, timeout: timeout, logger: logger}
}

// Evaluate scores src. Failures are reported as ErrScoringFailure, also
// wrapping the cause of every attempt.
func (p *Pipeline) Evaluate(ctx context.Context, src Source, meta Context) (Evaluation, error) {
	if src.URL == "" && len(src.Data) == 0 {
		return Evaluation{}, fmt.Errorf("%w: %w", ErrScoringFailure, ErrNoImage)
	}

	var attemptErrs []error
	if src.URL != "" {
		res, err := p.attempt(ctx, Image{URL: src.URL}, meta)
		if err == nil {
			return Evaluation{Result: res, Mode: ModeURL, Provider: p.provider.Name()}, nil
		}
		attemptErrs = append(attemptErrs, fmt.Errorf("url attempt: %w", err))
		if len(src.Data) == 0 {
			return Evaluation{}, fmt.Errorf("%w: %w", ErrScoringFailure, errors.Join(attemptErrs...))
		}
		p.logger.Warn("contamination: url scoring failed, retrying with image bytes",
			"provider", p.provider.Name(),
			"err", err,
		)
	}

	res, err := p.attempt(ctx, Image{Data: src.Data, MIMEType: src.MIMEType}, meta)
	if err == nil {
		return Evaluation{Result: res, Mode: ModeBuffer, Provider: p.provider.Name()}, nil
	}
	attemptErrs = append(attemptErrs, fmt.Errorf("buffer attempt: %w", err))
	return Evaluation{}, fmt.Errorf("%w: %w", ErrScoringFailure, errors.Join(attemptErrs...))
}

func (p *Pipeline) attempt(ctx context.Context, img Image, meta Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.provider.Score(ctx, img, meta)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		return Result{}, err
	}
	if res.Score < MinScore || res.Score > MaxScore {
		return Result{}, fmt.Errorf("%w: score %d outside %d..%d", ErrMalformedResponse, res.Score, MinScore, MaxScore)
	}
	if res.Label == "" {
		res.Label = LabelFor(res.Score)
	}
	return res, nil
}
