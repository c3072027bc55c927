// Package pipeline runs one measurement: extract requirements, collect test
// results, and calculate coverage.
package pipeline

import (
	"context"
	"time"

	"github.com/dusk-indust/spectrace/internal/collect"
	"github.com/dusk-indust/spectrace/internal/config"
	"github.com/dusk-indust/spectrace/internal/coverage"
	"github.com/dusk-indust/spectrace/internal/extract"
	"github.com/dusk-indust/spectrace/internal/logging"
	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

type options struct {
	logger *log.Logger
	policy coverage.Policy
}

// Option configures a measurement.
type Option func(*options)

// WithLogger routes diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPolicy overrides the configuration's coverage policy.
func WithPolicy(p coverage.Policy) Option {
	return func(o *options) { o.policy = p }
}

// Measure runs the pipeline for cfg, which must already be prepared (see
// config.Load and Config.Prepare). Requirement extraction and result
// collection run concurrently. Any returned error means no result: a
// partial run is never reported.
func Measure(ctx context.Context, cfg *config.Config, opts ...Option) (*trace.CoverageResult, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrDiscard(o.logger)
	policy := o.policy
	if policy == "" {
		policy = coverage.Policy(cfg.CoveragePolicy)
	}

	start := time.Now()
	var (
		requirements []trace.Requirement
		results      []trace.TestResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requirements, err = extract.New(logger).Extract(gctx, cfg.Requirements, cfg.BaseDir)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = collect.New(logger).Collect(gctx, cfg.Tests, cfg.BaseDir)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, key := range coverage.DuplicateRequirementKeys(requirements) {
		logger.Warn().Str("requirement", key).Msg("requirement id declared more than once in one document")
	}
	for _, key := range coverage.DuplicateKeys(results) {
		logger.Warn().Str("test", key).Msg("duplicate test result, keeping the last one")
	}

	res := coverage.Calculate(requirements, results, coverage.WithPolicy(policy))
	logger.Info().
		Int("requirements", res.Summary.TotalRequirements).
		Int("covered", res.Summary.CoveredRequirements).
		Int("results", len(results)).
		Str("policy", string(policy)).
		Dur("elapsed", time.Since(start)).
		Msg("coverage measured")
	return &res, nil
}

// MeasureFile loads the configuration at path and measures it.
func MeasureFile(ctx context.Context, path string, opts ...Option) (*trace.CoverageResult, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return Measure(ctx, cfg, opts...)
}
