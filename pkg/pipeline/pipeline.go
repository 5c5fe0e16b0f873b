// Package pipeline runs the complete clustering analysis for cellcluster.
//
// The pipeline turns a cell table into a density-corrected clustering ratio.
// It is the single place that wires the analysis packages together, so the
// CLI and tests see identical behavior.
//
// # Stages
//
//  1. Observe: compute the ROI, annotate edge distances, and accumulate the
//     observed histogram for the population pair
//  2. Stratify: derive per-layer y bands (or a single band when layers are
//     ignored)
//  3. Simulate: average the histograms of Options.SimRunNum null-model
//     layouts into the baseline
//  4. Correct: divide observed by baseline bin by bin
//  5. Render: encode the result in the requested output formats
//
// The baseline is the expensive stage. When a seed is fixed it is a pure
// function of the cells and options and is cached through the Runner's
// [cache.Cache].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Cell1, opts.Cell2 = 1, 3
//	opts.Formats = []string{"xlsx", "svg"}
//	result, err := runner.Execute(ctx, cells, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	xlsx := result.Artifacts["xlsx"]
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellcluster/pkg/cache"
	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/histogram"
	"github.com/matzehuels/cellcluster/pkg/layer"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultCell1        = 1
	DefaultCell2        = 3
	DefaultLayerNum     = 6
	DefaultExcludeDist  = 100.0
	DefaultAnalysisDist = 100
	DefaultIntervalNum  = 100
	DefaultSimRunNum    = 5
)

// Format constants for output formats.
const (
	FormatXLSX = "xlsx"
	FormatTSV  = "tsv"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatXLSX: true,
	FormatTSV:  true,
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Analysis Configuration
// =============================================================================

// Options contains all configuration for one analysis. The toml keys are the
// names used in analysis files.
type Options struct {
	// Population pair. Equal codes analyze one population against itself.
	Cell1 int `toml:"cell1" json:"cell1"`
	Cell2 int `toml:"cell2" json:"cell2"`

	// LayerNum is the number of layers labeled in the input.
	LayerNum int `toml:"layer_num" json:"layer_num"`
	// IgnoreLayers draws simulated y positions over the whole ROI.
	IgnoreLayers bool `toml:"ignore_layers" json:"ignore_layers,omitempty"`

	ExcludeDist  float64 `toml:"exclude_dist" json:"exclude_dist"`
	AnalysisDist int     `toml:"analysis_dist" json:"analysis_dist"`
	IntervalNum  int     `toml:"interval_num" json:"interval_num"`

	SimRunNum int `toml:"sim_run_num" json:"sim_run_num"`
	// Seed fixes the simulation streams. Zero picks a random seed per run.
	Seed uint64 `toml:"seed" json:"seed,omitempty"`
	// Workers bounds concurrent simulation runs. Zero uses all CPUs.
	Workers int `toml:"workers" json:"workers,omitempty"`

	Formats []string `toml:"formats" json:"formats,omitempty"`

	// Runtime options (not serialized)
	Input   string      `toml:"-" json:"-"` // Name of the cell table, for reports
	Refresh bool        `toml:"-" json:"-"`
	Logger  *log.Logger `toml:"-" json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns the options used when an analysis file or flag does
// not say otherwise.
func DefaultOptions() Options {
	return Options{
		Cell1:        DefaultCell1,
		Cell2:        DefaultCell2,
		LayerNum:     DefaultLayerNum,
		ExcludeDist:  DefaultExcludeDist,
		AnalysisDist: DefaultAnalysisDist,
		IntervalNum:  DefaultIntervalNum,
		SimRunNum:    DefaultSimRunNum,
		Formats:      []string{FormatXLSX},
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this run in the history store.
	RunID   string
	Created time.Time

	// Options is the validated option set. Options.Seed holds the seed
	// actually used, also when a random one was picked.
	Options Options

	Bounds cell.Bounds
	// Bands holds one band per layer, or the single ROI band when layers are
	// ignored.
	Bands []layer.Band

	Observed histogram.Histogram
	Baseline histogram.Histogram
	Ratio    histogram.Ratio

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CellCount      int
	SeedCount      int
	ObservedTime   time.Duration
	SimulationTime time.Duration
	RenderTime     time.Duration
}

// Total returns the summed stage durations.
func (s Stats) Total() time.Duration {
	return s.ObservedTime + s.SimulationTime + s.RenderTime
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BaselineHit bool // Whether the baseline came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: xlsx, tsv, json, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every parameter and fills runtime defaults.
// Analysis parameters are not defaulted here: a zero sim_run_num is an error,
// not a request for the default. Start from [DefaultOptions] instead.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Params().Validate(); err != nil {
		return err
	}
	if err := errors.ValidatePositive("sim_run_num", o.SimRunNum); err != nil {
		return err
	}
	if !o.IgnoreLayers {
		if err := errors.ValidatePositive("layer_num", o.LayerNum); err != nil {
			return err
		}
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "workers must not be negative, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatXLSX}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Params returns the histogram parameters.
func (o *Options) Params() histogram.Params {
	return histogram.Params{
		AnalysisDist: o.AnalysisDist,
		IntervalNum:  o.IntervalNum,
		ExcludeDist:  o.ExcludeDist,
	}
}

// SameType reports whether a single population is analyzed.
func (o *Options) SameType() bool {
	return o.Cell1 == o.Cell2
}

// Pair returns a display label for the population pair, e.g. "1 vs 3".
func (o *Options) Pair() string {
	return fmt.Sprintf("%d vs %d", o.Cell1, o.Cell2)
}

// BaselineKeyOpts returns cache key options for the simulated baseline.
func (o *Options) BaselineKeyOpts() cache.BaselineKeyOpts {
	layers := o.LayerNum
	if o.IgnoreLayers {
		layers = 0
	}
	return cache.BaselineKeyOpts{
		TypeA:        o.Cell1,
		TypeB:        o.Cell2,
		LayerNum:     layers,
		Stratified:   !o.IgnoreLayers,
		ExcludeDist:  o.ExcludeDist,
		AnalysisDist: o.AnalysisDist,
		IntervalNum:  o.IntervalNum,
		Runs:         o.SimRunNum,
		Seed:         o.Seed,
	}
}
