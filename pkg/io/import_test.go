package io

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
)

const table = "type\tx\ty\tlayer\tarea\n" +
	"1\t12.5\t300\t2\t88\n" +
	"3\t40\t288.1\t2\t90\n" +
	"\n" +
	"1\t-3.25\t10\t6\t71\n"

func TestReadCells(t *testing.T) {
	cells, err := ReadCells(strings.NewReader(table), ReadOptions{})
	require.NoError(t, err)

	want := []cell.Cell{
		{Type: 1, X: 12.5, Y: 300, Layer: 2},
		{Type: 3, X: 40, Y: 288.1, Layer: 2},
		{Type: 1, X: -3.25, Y: 10, Layer: 6},
	}
	assert.Equal(t, want, cells)
}

func TestReadCellsCRLFAndSpaces(t *testing.T) {
	in := "type\tx\ty\tlayer\r\n 2 \t 1.5\t2.5 \t 1\r\n"
	cells, err := ReadCells(strings.NewReader(in), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []cell.Cell{{Type: 2, X: 1.5, Y: 2.5, Layer: 1}}, cells)
}

func TestReadCellsErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     ReadOptions
		wantCode errors.Code
		wantLine string
	}{
		{"header only", "type\tx\ty\tlayer\n", ReadOptions{}, errors.ErrCodeEmptyDataset, ""},
		{"empty", "", ReadOptions{}, errors.ErrCodeEmptyDataset, ""},
		{"bad type", "h\n1\t1\t1\t1\nx\t1\t1\t1\n", ReadOptions{}, errors.ErrCodeInputFormat, "line 3"},
		{"bad x", "h\n1\tabc\t1\t1\n", ReadOptions{}, errors.ErrCodeInputFormat, "line 2"},
		{"infinite y", "h\n1\t1\tInf\t1\n", ReadOptions{}, errors.ErrCodeInputFormat, "line 2"},
		{"missing layer", "h\n1\t1\t1\n", ReadOptions{}, errors.ErrCodeInputFormat, "line 2"},
		{"fractional layer", "h\n1\t1\t1\t1.5\n", ReadOptions{}, errors.ErrCodeInputFormat, "line 2"},
		{"too few columns", "h\n1\t1\n", ReadOptions{LayerOptional: true}, errors.ErrCodeInputFormat, "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCells(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			if tt.wantLine != "" {
				assert.Contains(t, errors.UserMessage(err), tt.wantLine)
			}
		})
	}
}

func TestReadCellsLayerOptional(t *testing.T) {
	in := "type\tx\ty\n1\t1\t2\n2\t3\t4\t\n3\t5\t6\t4\n"
	cells, err := ReadCells(strings.NewReader(in), ReadOptions{LayerOptional: true})
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, 1, cells[0].Layer)
	assert.Equal(t, 1, cells[1].Layer)
	assert.Equal(t, 4, cells[2].Layer, "a present layer is still read")
}

func TestImportCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.txt")
	require.NoError(t, os.WriteFile(path, []byte(table), 0644))

	cells, err := ImportCells(path, ReadOptions{})
	require.NoError(t, err)
	assert.Len(t, cells, 3)

	_, err = ImportCells(filepath.Join(t.TempDir(), "missing.txt"), ReadOptions{})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	_, err = ImportCells("", ReadOptions{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath), "got %v", err)
}
