package contamination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// scriptedProvider answers each call from a list of outcomes and records
// the images it was given.
type scriptedProvider struct {
	outcomes []outcome
	calls    []Image
}

type outcome struct {
	res Result
	err error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Score(ctx context.Context, img Image, _ Context) (Result, error) {
	p.calls = append(p.calls, img)
	if len(p.calls) > len(p.outcomes) {
		return Result{}, fmt.Errorf("unexpected call %d", len(p.calls))
	}
	o := p.outcomes[len(p.calls)-1]
	return o.res, o.err
}

func TestPipeline_URLSuccess(t *testing.T) {
	prov := &scriptedProvider{outcomes: []outcome{{res: Result{Score: 9, Label: LabelHigh}}}}
	ev, err := NewPipeline(prov, time.Second, nil).Evaluate(context.Background(),
		Source{URL: "https://cdn/x.jpg", Data: []byte("x")}, Context{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Mode != ModeURL || ev.Score != 9 || ev.Label != LabelHigh {
		t.Errorf("evaluation = %+v", ev)
	}
	if len(prov.calls) != 1 || prov.calls[0].URL == "" {
		t.Errorf("calls = %+v, want a single URL call", prov.calls)
	}
}

func TestPipeline_FallsBackToBufferOnce(t *testing.T) {
	prov := &scriptedProvider{outcomes: []outcome{
		{err: fmt.Errorf("%w: timeout", ErrUpstreamUnavailable)},
		{res: Result{Score: 4}},
	}}
	ev, err := NewPipeline(prov, time.Second, nil).Evaluate(context.Background(),
		Source{URL: "https://cdn/x.jpg", Data: []byte("bytes"), MIMEType: "image/png"}, Context{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Mode != ModeBuffer || ev.Score != 4 || ev.Label != LabelLow {
		t.Errorf("evaluation = %+v", ev)
	}
	if len(prov.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(prov.calls))
	}
	second := prov.calls[1]
	if second.URL != "" || string(second.Data) != "bytes" || second.MIMEType != "image/png" {
		t.Errorf("fallback call = %+v", second)
	}
}

func TestPipeline_BothAttemptsFail(t *testing.T) {
	prov := &scriptedProvider{outcomes: []outcome{
		{err: fmt.Errorf("%w: refused", ErrUpstreamUnavailable)},
		{err: fmt.Errorf("%w: refused", ErrUpstreamUnavailable)},
	}}
	_, err := NewPipeline(prov, time.Second, nil).Evaluate(context.Background(),
		Source{URL: "https://cdn/x.jpg", Data: []byte("x")}, Context{})
	if !errors.Is(err, ErrScoringFailure) {
		t.Fatalf("err = %v, want ErrScoringFailure", err)
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want cause ErrUpstreamUnavailable", err)
	}
	if len(prov.calls) != 2 {
		t.Errorf("calls = %d, want exactly 2 (no indefinite retry)", len(prov.calls))
	}
}

func TestPipeline_URLOnlyFailureHasNoFallback(t *testing.T) {
	prov := &scriptedProvider{outcomes: []outcome{{err: ErrMalformedResponse}}}
	_, err := NewPipeline(prov, time.Second, nil).Evaluate(context.Background(),
		Source{URL: "https://cdn/x.jpg"}, Context{})
	if !errors.Is(err, ErrScoringFailure) || !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v", err)
	}
	if len(prov.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(prov.calls))
	}
}

func TestPipeline_BufferOnly(t *testing.T) {
	prov := &scriptedProvider{outcomes: []outcome{{res: Result{Score: 1}}}}
	ev, err := NewPipeline(prov, time.Second, nil).Evaluate(context.Background(),
		Source{Data: []byte("x")}, Context{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Mode != ModeBuffer || ev.Label != LabelClean {
		t.Errorf("evaluation = %+v", ev)
	}
}

func TestPipeline_RejectsOutOfRangeProviderScore(t *testing.T) {
	prov := &scriptedProvider{outcomes: []outcome{{res: Result{Score: 0}}}}
	_, err := NewPipeline(prov, time.Second, nil).Evaluate(context.Background(),
		Source{Data: []byte("x")}, Context{})
	if !errors.Is(err, ErrScoringFailure) {
		t.Fatalf("err = %v, want ErrScoringFailure", err)
	}
}

func TestPipeline_NoImage(t *testing.T) {
	_, err := NewPipeline(&scriptedProvider{}, time.Second, nil).Evaluate(context.Background(), Source{}, Context{})
	if !errors.Is(err, ErrScoringFailure) || !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v", err)
	}
}

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Score(ctx context.Context, _ Image, _ Context) (Result, error) {
	<-ctx.Done()
	return Result{}, ctx.Err()
}

func TestPipeline_TimeoutIsUpstreamUnavailable(t *testing.T) {
	start := time.Now()
	_, err := NewPipeline(slowProvider{}, 20*time.Millisecond, nil).Evaluate(context.Background(),
		Source{URL: "https://cdn/x.jpg", Data: []byte("x")}, Context{})
	if !errors.Is(err, ErrUpstreamUnavailable) || !errors.Is(err, ErrScoringFailure) {
		t.Fatalf("err = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}
