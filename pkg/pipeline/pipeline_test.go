package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellcluster/pkg/cache"
	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
	pkgio "github.com/matzehuels/cellcluster/pkg/io"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"xlsx", false},
		{"tsv", false},
		{"json", false},
		{"svg", false},
		{"png", false},
		{"xls", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Positive(t, opts.Workers, "workers default to the CPU count")
	assert.NotNil(t, opts.Logger)

	// Idempotent
	require.NoError(t, opts.ValidateAndSetDefaults())
}

func TestValidateAndSetDefaultsRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
		code   errors.Code
	}{
		{"zero runs", func(o *Options) { o.SimRunNum = 0 }, errors.ErrCodeInvalidParameter},
		{"negative runs", func(o *Options) { o.SimRunNum = -1 }, errors.ErrCodeInvalidParameter},
		{"zero distance", func(o *Options) { o.AnalysisDist = 0 }, errors.ErrCodeInvalidParameter},
		{"zero intervals", func(o *Options) { o.IntervalNum = 0 }, errors.ErrCodeInvalidParameter},
		{"zero layers", func(o *Options) { o.LayerNum = 0 }, errors.ErrCodeInvalidParameter},
		{"negative exclusion", func(o *Options) { o.ExcludeDist = -5 }, errors.ErrCodeInvalidParameter},
		{"negative workers", func(o *Options) { o.Workers = -2 }, errors.ErrCodeInvalidParameter},
		{"bad format", func(o *Options) { o.Formats = []string{"pdf"} }, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.ValidateAndSetDefaults()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestIgnoreLayersSkipsLayerCount(t *testing.T) {
	opts := DefaultOptions()
	opts.LayerNum = 0
	opts.IgnoreLayers = true
	assert.NoError(t, opts.ValidateAndSetDefaults())
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(`
cell1 = 2
cell2 = 2
exclude_dist = 50.5
sim_run_num = 200
seed = 7
formats = ["tsv", "svg"]
`)
	require.NoError(t, err)

	assert.Equal(t, 2, opts.Cell1)
	assert.Equal(t, 2, opts.Cell2)
	assert.Equal(t, 50.5, opts.ExcludeDist)
	assert.Equal(t, 200, opts.SimRunNum)
	assert.Equal(t, uint64(7), opts.Seed)
	assert.Equal(t, []string{"tsv", "svg"}, opts.Formats)
	// Untouched keys keep their defaults
	assert.Equal(t, DefaultLayerNum, opts.LayerNum)
	assert.Equal(t, DefaultAnalysisDist, opts.AnalysisDist)
}

func TestParseOptionsErrors(t *testing.T) {
	_, err := ParseOptions("sim_runs = 10\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidParameter))
	assert.Contains(t, err.Error(), "sim_runs")

	_, err = ParseOptions("cell1 = \n")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidParameter), "malformed toml: %v", err)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "missing file: %v", err)
}

func TestWriteOptionsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOptions(&buf, DefaultOptions()))
	assert.True(t, strings.HasPrefix(buf.String(), "# cellcluster analysis options"))

	got, err := ParseOptions(buf.String())
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultOptions(), got, cmpopts.IgnoreUnexported(Options{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// layeredCells returns 90 cells in three horizontal layers of a 300x300 ROI,
// alternating between types 1 and 3.
func layeredCells() []cell.Cell {
	cells := make([]cell.Cell, 90)
	for i := range cells {
		l := 1 + i%3
		typ := 1
		if i%2 == 1 {
			typ = 3
		}
		cells[i] = cell.Cell{
			Type:  typ,
			X:     float64((i * 37) % 300),
			Y:     float64(300-l*100) + float64((i*53)%97) + 1,
			Layer: l,
		}
	}
	return cells
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.LayerNum = 3
	opts.ExcludeDist = 20
	opts.AnalysisDist = 50
	opts.IntervalNum = 50
	opts.SimRunNum = 4
	opts.Workers = 2
	opts.Seed = 11
	opts.Formats = []string{FormatTSV, FormatJSON, FormatSVG}
	return opts
}

func TestExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	opts := testOptions()
	opts.Input = "layers.txt"
	res, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, uint64(11), res.Options.Seed)
	assert.Len(t, res.Bands, 3)
	assert.Len(t, res.Observed, 51)
	assert.Len(t, res.Baseline, 51)
	assert.Len(t, res.Ratio, 51)
	assert.Equal(t, 90, res.Stats.CellCount)
	assert.Positive(t, res.Stats.SeedCount)
	assert.False(t, res.CacheInfo.BaselineHit)

	for _, key := range []string{FormatTSV, FormatJSON, FormatSVG, HistogramArtifact(FormatSVG)} {
		assert.NotEmpty(t, res.Artifacts[key], "artifact %s", key)
	}

	report, err := pkgio.ReadJSON(bytes.NewReader(res.Artifacts[FormatJSON]))
	require.NoError(t, err)
	assert.Equal(t, res.RunID, report.RunID)
	assert.Equal(t, "layers.txt", report.Input)
	if diff := cmp.Diff([]float64(res.Ratio), []float64(report.Ratio), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("ratio in JSON report (-want +got):\n%s", diff)
	}
}

func TestExecuteDeterministicWithSeed(t *testing.T) {
	runner := NewRunner(nil, nil, nil)

	opts := testOptions()
	a, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)

	opts.Workers = 3
	b, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)

	if diff := cmp.Diff([]float64(a.Ratio), []float64(b.Ratio), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("same seed gave different ratios (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestExecuteRandomSeed(t *testing.T) {
	runner := NewRunner(nil, nil, nil)

	opts := testOptions()
	opts.Seed = 0
	res, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)
	assert.NotZero(t, res.Options.Seed, "the picked seed is reported")
}

func TestExecuteCachesBaseline(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	runner := NewRunner(fc, nil, nil)

	opts := testOptions()
	first, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.BaselineHit)

	second, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.BaselineHit)
	assert.Equal(t, first.Baseline, second.Baseline)

	opts.Refresh = true
	third, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.BaselineHit, "refresh bypasses the cache")

	opts.Refresh = false
	opts.Seed = 0
	random, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)
	assert.False(t, random.CacheInfo.BaselineHit, "random seeds are never cached")

	opts.SimRunNum = 5
	opts.Seed = 11
	changed, err := runner.Execute(context.Background(), layeredCells(), opts)
	require.NoError(t, err)
	assert.False(t, changed.CacheInfo.BaselineHit, "different options miss")
}

func TestExecuteErrors(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := runner.Execute(ctx, nil, testOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyDataset), "no cells: %v", err)

	// Layer 2 is declared but has no cells.
	sparse := []cell.Cell{
		{Type: 1, X: 0, Y: 100, Layer: 1},
		{Type: 3, X: 50, Y: 0, Layer: 3},
	}
	_, err = runner.Execute(ctx, sparse, testOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeLayerData), "empty layer: %v", err)

	opts := testOptions()
	opts.IgnoreLayers = true
	_, err = runner.Execute(ctx, sparse, opts)
	assert.NoError(t, err, "layers are not checked when ignored")

	opts = testOptions()
	opts.SimRunNum = 0
	_, err = runner.Execute(ctx, layeredCells(), opts)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidParameter), "zero runs: %v", err)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil, nil).Execute(ctx, layeredCells(), testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserveThreeCellsOnTheEdge(t *testing.T) {
	// Bounds derived from three collinear cells put every cell on the y
	// edge, so none of them can be a seed.
	cells := []cell.Cell{
		{Type: 1, X: 0, Y: 0, Layer: 1},
		{Type: 1, X: 10, Y: 0, Layer: 1},
		{Type: 1, X: 50, Y: 0, Layer: 1},
	}
	opts := DefaultOptions()
	opts.Cell1, opts.Cell2 = 1, 1
	opts.LayerNum = 1
	opts.ExcludeDist = 0
	opts.AnalysisDist, opts.IntervalNum = 20, 20

	obs, err := NewRunner(nil, nil, nil).Observe(cells, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, obs.Seeds)
	assert.Equal(t, 0.0, obs.Observed.Total())
}
