package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cellcluster/pkg/cache"
	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/histogram"
	"github.com/matzehuels/cellcluster/pkg/layer"
	"github.com/matzehuels/cellcluster/pkg/observability"
	"github.com/matzehuels/cellcluster/pkg/simulate"
)

const cacheKeyBaseline = "baseline"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Observation is the outcome of the observe and stratify stages.
type Observation struct {
	Bounds   cell.Bounds
	Bands    []layer.Band
	Observed histogram.Histogram
	Seeds    int
}

// Execute runs the complete observe → simulate → correct → render pipeline.
func (r *Runner) Execute(ctx context.Context, cells []cell.Cell, opts Options) (*Result, error) {
	result := &Result{
		RunID:   uuid.NewString(),
		Created: time.Now(),
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// A picked seed is recorded in the result but never used as a cache key.
	simOpts := opts
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
		simOpts.Seed = opts.Seed
		simOpts.Refresh = true
		r.Logger.Info("picked random seed", "seed", opts.Seed)
	}
	result.Options = opts
	result.Stats.CellCount = len(cells)

	// Stage 1: Observe
	obsStart := time.Now()
	obs, err := r.Observe(cells, opts)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	result.Bounds = obs.Bounds
	result.Bands = obs.Bands
	result.Observed = obs.Observed
	result.Stats.SeedCount = obs.Seeds
	result.Stats.ObservedTime = time.Since(obsStart)
	observability.Pipeline().OnObservedComplete(ctx, len(cells), obs.Seeds, result.Stats.ObservedTime)

	r.Logger.Info("observed histogram",
		"pair", opts.Pair(),
		"cells", len(cells),
		"seeds", obs.Seeds,
		"pairs", obs.Observed.Total(),
		"duration", result.Stats.ObservedTime)
	if obs.Seeds == 0 {
		r.Logger.Warn("no seed cells clear the edge exclusion; the ratio will be empty",
			"exclude_dist", opts.ExcludeDist)
	}

	// Stage 2: Simulate
	simStart := time.Now()
	baseline, hit, err := r.BaselineWithCacheInfo(ctx, cells, obs, simOpts)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	result.Baseline = baseline
	result.Stats.SimulationTime = time.Since(simStart)
	result.CacheInfo.BaselineHit = hit

	r.Logger.Info("simulated baseline",
		"runs", opts.SimRunNum,
		"seed", opts.Seed,
		"cached", hit,
		"duration", result.Stats.SimulationTime)

	// Stage 3: Correct
	ratio, err := histogram.Correct(result.Observed, result.Baseline)
	if err != nil {
		return nil, fmt.Errorf("correct: %w", err)
	}
	result.Ratio = ratio
	observability.Pipeline().OnCorrectionComplete(ctx, len(ratio), ratio.Defined())

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, err := Render(result, opts.Formats)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"defined_bins", ratio.Defined(),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Observe annotates cells, derives the layer bands, and accumulates the
// observed histogram.
func (r *Runner) Observe(cells []cell.Cell, opts Options) (Observation, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Observation{}, err
	}
	annotated, bounds, err := cell.Annotate(cells)
	if err != nil {
		return Observation{}, err
	}

	var bands []layer.Band
	if opts.IgnoreLayers {
		bands = layer.Single(bounds)
	} else {
		bands, err = layer.Stratify(cells, bounds, opts.LayerNum)
		if err != nil {
			return Observation{}, err
		}
		for _, b := range bands {
			r.Logger.Debug("layer band", "layer", b.Layer, "y_low", b.Low, "y_high", b.High)
		}
	}

	p := opts.Params()
	seeds := histogram.Seeds(annotated, opts.Cell1, p)
	if !opts.SameType() {
		seeds += histogram.Seeds(annotated, opts.Cell2, p)
	}

	return Observation{
		Bounds:   bounds,
		Bands:    bands,
		Observed: histogram.Pair(annotated, opts.Cell1, opts.Cell2, p),
		Seeds:    seeds,
	}, nil
}

// BaselineWithCacheInfo returns the simulated baseline for an observation,
// from cache when possible, and whether it was a cache hit.
func (r *Runner) BaselineWithCacheInfo(ctx context.Context, cells []cell.Cell, obs Observation, opts Options) (histogram.Histogram, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	cellsData, err := json.Marshal(cells)
	if err != nil {
		return nil, false, fmt.Errorf("serialize cells for cache key: %w", err)
	}
	cacheKey := r.Keyer.BaselineKey(cache.Hash(cellsData), opts.BaselineKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached histogram.Histogram
			if err := json.Unmarshal(data, &cached); err == nil && len(cached) == opts.Params().Len() {
				observability.Cache().OnCacheHit(ctx, cacheKeyBaseline)
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, cacheKeyBaseline)
	}

	// Unstratified runs pass no bands so every y is drawn over the ROI.
	bands := obs.Bands
	if opts.IgnoreLayers {
		bands = nil
	}
	baseline, err := simulate.Run(ctx, simulate.Config{
		Runs:    opts.SimRunNum,
		Workers: opts.Workers,
		Seed:    opts.Seed,
		TypeA:   opts.Cell1,
		TypeB:   opts.Cell2,
		Params:  opts.Params(),
		Logger:  opts.Logger,
	}, cells, obs.Bounds, bands)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if !opts.Refresh {
		if data, err := json.Marshal(baseline); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLBaseline); err != nil {
				r.Logger.Warn("cache baseline", "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, cacheKeyBaseline, len(data))
			}
		}
	}

	return baseline, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
