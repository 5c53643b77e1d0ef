package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/threatpulse/internal/observability"
	"github.com/kalambet/threatpulse/internal/threat"
)

const batchConcurrency = 4

// ErrNoProviders is returned by Analyze when the orchestrator has nothing to try.
var ErrNoProviders = errors.New("no analysis providers configured")

// Orchestrator tries each Provider in order and returns the first success.
// It holds no per-call state and is safe for concurrent use.
type Orchestrator struct {
	providers []Provider
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used to time provider attempts.
func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// New creates an Orchestrator over providers, tried in the given order.
func New(m *observability.Metrics, providers []Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		metrics:   m,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze assesses a single report. It fails only when every provider fails,
// returning the last provider's error.
func (o *Orchestrator) Analyze(ctx context.Context, report, location string) (threat.Analysis, error) {
	in := Input{Report: report, Location: location}

	lastErr := ErrNoProviders
	for _, p := range o.providers {
		a, err := o.attempt(ctx, p, in)
		if err == nil {
			o.metrics.Analyses.WithLabelValues("success").Inc()
			return threat.Clamp(a), nil
		}
		slog.Warn("analysis provider failed", "provider", p.Name(), "error", err)
		lastErr = fmt.Errorf("%s: %w", p.Name(), err)
	}

	o.metrics.Analyses.WithLabelValues("error").Inc()
	return threat.Analysis{}, fmt.Errorf("analyzing report: %w", lastErr)
}

func (o *Orchestrator) attempt(ctx context.Context, p Provider, in Input) (threat.Analysis, error) {
	start := o.clock.Now()
	a, err := p.Attempt(ctx, in)
	o.metrics.ProviderDuration.WithLabelValues(p.Name()).Observe(o.clock.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	o.metrics.ProviderAttempts.WithLabelValues(p.Name(), outcome).Inc()
	return a, err
}

// AnalyzeBatch analyzes reports concurrently. Results are in input order. The
// first hard failure cancels the remaining work and is returned.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, inputs []Input) ([]threat.Analysis, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	results := make([]threat.Analysis, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, in := range inputs {
		g.Go(func() error {
			a, err := o.Analyze(gCtx, in.Report, in.Location)
			if err != nil {
				return fmt.Errorf("report %d: %w", i, err)
			}
			results[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
