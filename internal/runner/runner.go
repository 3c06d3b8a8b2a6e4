// Package runner loads and scores threat models, one platform at a time or
// several concurrently.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/buemura/threatscore/internal/score"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
	"go.uber.org/zap"
)

// Options holds execution parameters for multi-platform runs.
type Options struct {
	Concurrency int
	Timeout     time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Concurrency: len(types.Platforms()),
		Timeout:     30 * time.Second,
	}
}

// Request describes which checks are inactive.
type Request struct {
	Inactive    threatmodel.Checks
	AllInactive bool
}

// Runner scores platforms using the loaders of a registry.
type Runner struct {
	registry *Registry
	log      *zap.Logger
}

// NewRunner creates a runner backed by the given registry.
func NewRunner(registry *Registry, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{registry: registry, log: log}
}

// Registry returns the loader registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// RunOne loads and scores a single platform.
func (r *Runner) RunOne(ctx context.Context, platform types.Platform, req Request) (*types.PlatformReport, error) {
	doc, err := r.registry.Load(ctx, platform)
	if err != nil {
		return nil, fmt.Errorf("loading threat model for %s: %w", platform, err)
	}
	return r.Score(platform, doc, req)
}

// Score computes the report of an already loaded document.
func (r *Runner) Score(platform types.Platform, doc *threatmodel.Document, req Request) (*types.PlatformReport, error) {
	result, err := score.Compute(doc, req.Inactive, req.AllInactive)
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", platform, err)
	}

	report := &types.PlatformReport{Platform: platform, Result: result}

	if !req.AllInactive {
		report.Unknown = threatmodel.UnknownNames(doc, req.Inactive)
		if len(report.Unknown) > 0 {
			r.log.Warn("unknown threat names (ignored)",
				zap.String("platform", string(platform)),
				zap.Strings("names", report.Unknown))
		}
	}

	if result.DroppedMetrics > 0 {
		r.log.Warn("metrics with an unrecognized dimension were left out of the score",
			zap.String("platform", string(platform)),
			zap.Int("count", result.DroppedMetrics))
	}

	r.log.Debug("scored",
		zap.String("platform", string(platform)),
		zap.Int("overall", result.Overall),
		zap.Int("metrics", result.TotalMetrics))

	return report, nil
}

// RunAll scores the given platforms concurrently, bounded by opts.Concurrency.
// Reports come back in the order of platforms; failures are recorded in the
// report's Error field.
func (r *Runner) RunAll(ctx context.Context, platforms []types.Platform, req Request, opts Options) []types.PlatformReport {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	reports := make([]types.PlatformReport, len(platforms))
	var wg sync.WaitGroup

	for i, p := range platforms {
		wg.Add(1)
		go func(i int, platform types.Platform) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				reports[i] = types.PlatformReport{Platform: platform, Error: ctx.Err().Error()}
				return
			}

			runCtx := ctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}

			report, err := r.RunOne(runCtx, platform, req)
			if err != nil {
				r.log.Error("platform failed", zap.String("platform", string(platform)), zap.Error(err))
				reports[i] = types.PlatformReport{Platform: platform, Error: err.Error()}
				return
			}
			reports[i] = *report
		}(i, p)
	}

	wg.Wait()
	return reports
}
