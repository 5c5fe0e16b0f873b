package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellcluster/pkg/errors"
	pkgio "github.com/matzehuels/cellcluster/pkg/io"
	"github.com/matzehuels/cellcluster/pkg/pipeline"
	"github.com/matzehuels/cellcluster/pkg/store"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "data/cells.tsv", "data/cells"},
		{"", "cells", "cells"},
		{"out/run1", "cells.tsv", "out/run1"},
		{"out/run1.xlsx", "cells.tsv", "out/run1"},
		{"out/run1.v2", "cells.tsv", "out/run1.v2"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2a1b4c-0000-4000-8000-000000000000"); got != "3f2a1b4c" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("plain"); got != "plain" {
		t.Errorf("shortID() = %q", got)
	}
}

func TestParseFormats(t *testing.T) {
	assert.Nil(t, parseFormats(""))
	assert.Equal(t, []string{"xlsx", "svg"}, parseFormats("xlsx, svg,"))
}

func TestResolveOptionsFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.toml")
	require.NoError(t, os.WriteFile(path, []byte("cell1 = 2\ncell2 = 2\nsim_run_num = 9\nseed = 5\n"), 0o644))

	cmd := (&CLI{Logger: newLogger(io.Discard, LogInfo)}).analyzeCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--runs", "3", "--layers", "4"}))

	flags := pipeline.DefaultOptions()
	flags.SimRunNum = 3
	flags.LayerNum = 4

	got, err := resolveOptions(path, cmd.Flags(), flags)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Cell1, "file value kept")
	assert.Equal(t, 2, got.Cell2, "file value kept")
	assert.Equal(t, uint64(5), got.Seed, "file value kept")
	assert.Equal(t, 3, got.SimRunNum, "flag overrides file")
	assert.Equal(t, 4, got.LayerNum, "flag overrides default")
}

func TestResolveOptionsWithoutFile(t *testing.T) {
	cmd := (&CLI{Logger: newLogger(io.Discard, LogInfo)}).analyzeCommand()
	flags := pipeline.DefaultOptions()
	flags.Cell1 = 7

	got, err := resolveOptions("", cmd.Flags(), flags)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Cell1)
}

func TestResolveOptionsMissingFile(t *testing.T) {
	cmd := (&CLI{Logger: newLogger(io.Discard, LogInfo)}).analyzeCommand()
	_, err := resolveOptions(filepath.Join(t.TempDir(), "nope.toml"), cmd.Flags(), pipeline.DefaultOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "run")
	artifacts := map[string][]byte{
		"tsv":            []byte("a\tb\n"),
		"histograms.svg": []byte("<svg/>"),
	}

	require.NoError(t, writeArtifacts(artifacts, base))

	for k, want := range artifacts {
		got, err := os.ReadFile(base + "." + k)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

// writeCells writes a two-layer table of 80 cells, types 1 and 2 alternating.
// Layer 1 is the upper half of the section.
func writeCells(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("type\tx\ty\tlayer\n")
	for i := range 80 {
		layer := 1 + i%2
		x := float64(i%10)*20 + 5
		y := float64(i/10)*12 + 2
		if layer == 1 {
			y += 100
		}
		fmt.Fprintf(&b, "%d\t%g\t%g\t%d\n", 1+(i/2)%2, x, y, layer)
	}
	path := filepath.Join(dir, "cells.tsv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestAnalyzeCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	input := writeCells(t, dir)
	db := filepath.Join(dir, "runs.sqlite")
	out := filepath.Join(dir, "out", "pair")

	err := runCLI(t, "analyze", input,
		"--cell1", "1", "--cell2", "2", "--layers", "2",
		"--exclude", "10", "--distance", "40", "--intervals", "40",
		"--runs", "3", "--seed", "17", "--workers", "2",
		"-f", "json,tsv,svg", "-o", out, "--db", db)
	require.NoError(t, err)

	for _, ext := range []string{"json", "tsv", "svg", "histograms.svg"} {
		_, err := os.Stat(out + "." + ext)
		assert.NoError(t, err, "artifact %s", ext)
	}

	f, err := os.Open(out + ".json")
	require.NoError(t, err)
	defer f.Close()
	report, err := pkgio.ReadJSON(f)
	require.NoError(t, err)
	assert.Len(t, report.Ratio, 41)
	assert.Equal(t, uint64(17), report.Seed)

	s, err := store.Open(context.Background(), db)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, 80, runs[0].Cells)
	assert.Equal(t, 2, runs[0].LayerNum)

	// The stored report re-exports without rerunning the analysis.
	again := filepath.Join(dir, "again")
	require.NoError(t, runCLI(t, "history", "show", shortID(runs[0].ID), "--db", db, "-f", "tsv", "-o", again))
	want, err := os.ReadFile(out + ".tsv")
	require.NoError(t, err)
	got, err := os.ReadFile(again + ".tsv")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	require.NoError(t, runCLI(t, "history", "delete", runs[0].ID, "--db", db))
	err = runCLI(t, "history", "show", runs[0].ID, "--db", db)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeCells(t, dir)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing input", []string{"analyze", filepath.Join(dir, "none.tsv"), "--no-cache", "--no-history"}, errors.ErrCodeFileNotFound},
		{"bad format", []string{"analyze", input, "-f", "pdf", "--no-cache", "--no-history"}, errors.ErrCodeInvalidFormat},
		{"zero runs", []string{"analyze", input, "--runs", "0", "--layers", "2", "--no-cache", "--no-history"}, errors.ErrCodeInvalidParameter},
		{"layer out of range", []string{"analyze", input, "--layers", "1", "--no-cache", "--no-history"}, errors.ErrCodeLayerData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v, want %s", err, tt.code)
		})
	}
}
