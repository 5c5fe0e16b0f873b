package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/cellcluster/pkg/errors"
	pkgio "github.com/matzehuels/cellcluster/pkg/io"
	"github.com/matzehuels/cellcluster/pkg/pipeline"
	"github.com/matzehuels/cellcluster/pkg/store"
)

// analyzeOpts holds the flags of the analyze command that are not analysis
// options.
type analyzeOpts struct {
	config    string
	output    string
	formats   string
	cache     cacheOpts
	dbPath    string
	noHistory bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var ao analyzeOpts
	flags := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "analyze [cells.tsv]",
		Short: "Measure clustering of a cell population pair",
		Long: `Measure clustering of a cell population pair.

The input is a tab-separated table with a header row and the columns
cell type, x, y and layer. The observed cumulative radial histogram is
divided by the mean histogram of simulated layouts that keep each cell's x
and draw y uniformly within its layer. A ratio above 1 at some distance
means more neighbors than chance at that range.

Options are read from --config when given; flags override the file.
Baselines are cached when a seed is fixed, so rerunning with new output
formats does not repeat the simulation.`,
		Example: `  cellcluster analyze cells.tsv --cell1 1 --cell2 3 --layers 6 --seed 7
  cellcluster analyze cells.tsv --config analysis.toml -f xlsx,svg -o results/run1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(ao.config, cmd.Flags(), flags)
			if err != nil {
				return err
			}
			if f := parseFormats(ao.formats); f != nil {
				opts.Formats = f
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), args[0], opts, ao)
		},
	}

	cmd.Flags().StringVarP(&ao.config, "config", "c", "", "analysis file (TOML); flags override its values")
	cmd.Flags().StringVarP(&ao.output, "output", "o", "", "base path for outputs (default: input path without extension)")
	cmd.Flags().StringVarP(&ao.formats, "format", "f", "", "output format(s): xlsx (default), tsv, json, svg, png (comma-separated)")
	cmd.Flags().BoolVar(&ao.cache.noCache, "no-cache", false, "disable the baseline cache")
	cmd.Flags().StringVar(&ao.cache.redisURL, "redis-url", os.Getenv("CELLCLUSTER_REDIS_URL"), "cache baselines in Redis instead of the local cache directory")
	cmd.Flags().StringVar(&ao.dbPath, "db", "", "run history database (default: data directory)")
	cmd.Flags().BoolVar(&ao.noHistory, "no-history", false, "do not record the run in the history database")

	cmd.Flags().IntVar(&flags.Cell1, "cell1", flags.Cell1, "seed population cell type")
	cmd.Flags().IntVar(&flags.Cell2, "cell2", flags.Cell2, "compare population cell type")
	cmd.Flags().IntVar(&flags.LayerNum, "layers", flags.LayerNum, "number of layers labeled in the input")
	cmd.Flags().BoolVar(&flags.IgnoreLayers, "ignore-layers", false, "simulate over the whole region, ignoring layers")
	cmd.Flags().Float64Var(&flags.ExcludeDist, "exclude", flags.ExcludeDist, "edge exclusion margin for seed cells")
	cmd.Flags().IntVar(&flags.AnalysisDist, "distance", flags.AnalysisDist, "maximum analysis distance")
	cmd.Flags().IntVar(&flags.IntervalNum, "intervals", flags.IntervalNum, "number of distance intervals")
	cmd.Flags().IntVar(&flags.SimRunNum, "runs", flags.SimRunNum, "number of simulated layouts")
	cmd.Flags().Uint64Var(&flags.Seed, "seed", 0, "simulation seed (0 picks a random seed)")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "concurrent simulation workers (0 uses all CPUs)")

	return cmd
}

// optionFlags maps flag names to the analysis option they set.
var optionFlags = map[string]func(dst *pipeline.Options, src pipeline.Options){
	"cell1":         func(d *pipeline.Options, s pipeline.Options) { d.Cell1 = s.Cell1 },
	"cell2":         func(d *pipeline.Options, s pipeline.Options) { d.Cell2 = s.Cell2 },
	"layers":        func(d *pipeline.Options, s pipeline.Options) { d.LayerNum = s.LayerNum },
	"ignore-layers": func(d *pipeline.Options, s pipeline.Options) { d.IgnoreLayers = s.IgnoreLayers },
	"exclude":       func(d *pipeline.Options, s pipeline.Options) { d.ExcludeDist = s.ExcludeDist },
	"distance":      func(d *pipeline.Options, s pipeline.Options) { d.AnalysisDist = s.AnalysisDist },
	"intervals":     func(d *pipeline.Options, s pipeline.Options) { d.IntervalNum = s.IntervalNum },
	"runs":          func(d *pipeline.Options, s pipeline.Options) { d.SimRunNum = s.SimRunNum },
	"seed":          func(d *pipeline.Options, s pipeline.Options) { d.Seed = s.Seed },
	"workers":       func(d *pipeline.Options, s pipeline.Options) { d.Workers = s.Workers },
}

// resolveOptions loads the analysis file, if any, and applies the flags the
// user set on top of it. Without a file the flag values are used as is.
func resolveOptions(path string, fs *pflag.FlagSet, flags pipeline.Options) (pipeline.Options, error) {
	if path == "" {
		return flags, nil
	}
	opts, err := pipeline.LoadOptions(path)
	if err != nil {
		return pipeline.Options{}, err
	}
	for name, apply := range optionFlags {
		if fs.Changed(name) {
			apply(&opts, flags)
		}
	}
	return opts, nil
}

// runAnalyze loads the cells, runs the pipeline, writes the outputs and
// records the run.
func (c *CLI) runAnalyze(ctx context.Context, input string, opts pipeline.Options, ao analyzeOpts) error {
	logger := loggerFromContext(ctx)

	prog := newProgress(logger)
	cells, err := pkgio.ImportCells(input, pkgio.ReadOptions{LayerOptional: opts.IgnoreLayers})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %d cells from %s", len(cells), filepath.Base(input)))

	runner, err := c.newRunner(ctx, ao.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Input = filepath.Base(input)
	opts.Logger = logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s", opts.Pair()))
	spinner.Start()

	var result *pipeline.Result
	err = withProgress(spinner, func() error {
		var err error
		result, err = runner.Execute(ctx, cells, opts)
		return err
	})
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Analysis failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Analyzed %s in %s", result.Options.Pair(), result.Stats.Total().Round(time.Millisecond)))
	printStats(result.Stats.CellCount, result.Stats.SeedCount, result.CacheInfo.BaselineHit)

	if err := writeArtifacts(result.Artifacts, basePath(ao.output, input)); err != nil {
		return err
	}

	if !ao.noHistory {
		if err := recordRun(ctx, ao.dbPath, result); err != nil {
			// The outputs are already written; a history failure is not fatal.
			logger.Warn("record run", "error", err)
		}
	}

	printNewline()
	printRatioTable(result.Observed, result.Baseline, result.Ratio)
	printKeyValue("Run", shortID(result.RunID))
	printKeyValue("Seed", strconv.FormatUint(result.Options.Seed, 10))
	if ao.noHistory {
		return nil
	}
	printNewline()
	printNextStep("Show this run again", fmt.Sprintf("%s history show %s", appName, shortID(result.RunID)))
	return nil
}

// basePath derives the base output path from the output and input paths.
// An empty output strips the extension from input; a known format extension
// on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each artifact to base.<key> in a stable order.
func writeArtifacts(artifacts map[string][]byte, base string) error {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", dir)
		}
	}
	keys := make([]string, 0, len(artifacts))
	for k := range artifacts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		path := base + "." + k
		if err := os.WriteFile(path, artifacts[k], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		printFile(path)
	}
	return nil
}

// recordRun stores the run summary and its JSON report in the history database.
func recordRun(ctx context.Context, dbPath string, res *pipeline.Result) error {
	s, err := openHistory(ctx, dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := res.Report()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(report, &buf); err != nil {
		return err
	}
	return s.SaveRun(ctx, runSummary(res), buf.Bytes())
}

// runSummary converts a pipeline result into a history row.
func runSummary(res *pipeline.Result) store.Run {
	layers := res.Options.LayerNum
	if res.Options.IgnoreLayers {
		layers = 0
	}
	return store.Run{
		ID:       res.RunID,
		Created:  res.Created,
		Input:    res.Options.Input,
		Cell1:    res.Options.Cell1,
		Cell2:    res.Options.Cell2,
		LayerNum: layers,
		SimRuns:  res.Options.SimRunNum,
		Seed:     res.Options.Seed,
		Cells:    res.Stats.CellCount,
		Seeds:    res.Stats.SeedCount,
		Bins:     len(res.Ratio),
		Defined:  res.Ratio.Defined(),
		Duration: res.Stats.Total(),
	}
}

// openHistory opens the database at path, or the default one when path is empty.
func openHistory(ctx context.Context, path string) (*store.Store, error) {
	if path == "" {
		p, err := historyPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "locate history database")
		}
		path = p
	}
	return store.Open(ctx, path)
}

// shortID returns the first block of a run id, enough to select it in history.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
