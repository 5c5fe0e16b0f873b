package simulate

import (
	"context"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/histogram"
	"github.com/matzehuels/cellcluster/pkg/layer"
	"github.com/matzehuels/cellcluster/pkg/observability"
)

// Config controls a batch of simulation runs.
type Config struct {
	// Runs is the number of randomized layouts to average.
	Runs int
	// Workers bounds the number of concurrent runs. Zero uses GOMAXPROCS.
	Workers int
	// Seed selects the random streams. Run i uses PCG(Seed, i).
	Seed uint64
	// TypeA and TypeB are the population pair; equal values analyze one
	// population against itself.
	TypeA, TypeB int
	// Params must match the parameters of the observed histogram.
	Params histogram.Params
	// Logger receives per-run debug lines. Nil uses log.Default().
	Logger *log.Logger
}

func (c Config) validate() error {
	if err := errors.ValidatePositive("sim_run_num", c.Runs); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "workers must not be negative, got %d", c.Workers)
	}
	return c.Params.Validate()
}

func (c Config) workers() int {
	w := c.Workers
	if w == 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return min(w, c.Runs)
}

// Run generates cfg.Runs null-model layouts of cells, annotates each against
// the observed bounds, and returns the bin-wise mean of their pair
// histograms. An empty bands slice runs the unstratified model.
//
// The context is checked before every run; on cancellation Run stops
// scheduling new runs and returns the context error.
func Run(ctx context.Context, cfg Config, cells []cell.Cell, bounds cell.Bounds, bands []layer.Band) (histogram.Histogram, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "no cells to simulate")
	}
	if len(bands) > 0 {
		if err := CheckBands(cells, bands); err != nil {
			return nil, err
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	hooks := observability.Pipeline()
	hooks.OnSimulationStart(ctx, cfg.Runs)
	start := time.Now()

	workers := cfg.workers()
	partials := make([]histogram.Histogram, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			sum := histogram.New(cfg.Params)
			for run := w; run < cfg.Runs; run += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				runStart := time.Now()

				layout, err := Generate(cells, bounds, bands, rand.NewPCG(cfg.Seed, uint64(run)))
				if err != nil {
					return err
				}
				h := histogram.Pair(cell.AnnotateWithin(layout, bounds), cfg.TypeA, cfg.TypeB, cfg.Params)
				floats.Add(sum, h)

				elapsed := time.Since(runStart)
				logger.Debug("simulation run", "run", run+1, "of", cfg.Runs, "worker", w, "duration", elapsed)
				hooks.OnSimulationRun(gctx, run+1, cfg.Runs, elapsed)
			}
			partials[w] = sum
			return nil
		})
	}

	err := g.Wait()
	hooks.OnSimulationComplete(ctx, cfg.Runs, time.Since(start), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	// Entries are integers or halves, so the combined sum is exact.
	total := partials[0]
	for _, p := range partials[1:] {
		floats.Add(total, p)
	}
	n := float64(cfg.Runs)
	for i := range total {
		total[i] /= n
	}
	return total, nil
}
