package io

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
)

// ReadOptions controls how a cell table is parsed.
type ReadOptions struct {
	// LayerOptional accepts rows without a layer column and assigns layer 1.
	LayerOptional bool
}

// ReadCells decodes a tab-delimited cell table from r. The first row is a
// header and is skipped. ReadCells does not close r.
func ReadCells(r io.Reader, opts ReadOptions) ([]cell.Cell, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var cells []cell.Cell
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if stderrors.As(err, &pe) {
				return nil, errors.Wrap(errors.ErrCodeInputFormat, err, "line %d: malformed row", pe.Line)
			}
			return nil, errors.Wrap(errors.ErrCodeInputFormat, err, "read cell table")
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}

		c, err := parseRow(rec, opts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInputFormat, err, "line %d", line)
		}
		cells = append(cells, c)
	}

	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "cell table has no data rows")
	}
	return cells, nil
}

func parseRow(rec []string, opts ReadOptions) (cell.Cell, error) {
	need := 4
	if opts.LayerOptional {
		need = 3
	}
	if len(rec) < need {
		return cell.Cell{}, fmt.Errorf("expected at least %d columns, got %d", need, len(rec))
	}

	var (
		c   cell.Cell
		err error
	)
	if c.Type, err = strconv.Atoi(strings.TrimSpace(rec[0])); err != nil {
		return cell.Cell{}, fmt.Errorf("type %q is not an integer", rec[0])
	}
	if c.X, err = parseCoord(rec[1]); err != nil {
		return cell.Cell{}, fmt.Errorf("x: %w", err)
	}
	if c.Y, err = parseCoord(rec[2]); err != nil {
		return cell.Cell{}, fmt.Errorf("y: %w", err)
	}

	var layer string
	if len(rec) > 3 {
		layer = strings.TrimSpace(rec[3])
	}
	if layer == "" && opts.LayerOptional {
		c.Layer = 1
		return c, nil
	}
	if c.Layer, err = strconv.Atoi(layer); err != nil {
		return cell.Cell{}, fmt.Errorf("layer %q is not an integer", layer)
	}
	return c, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

// ImportCells reads the cell table at path.
//
// A missing file is reported as FILE_NOT_FOUND; parse failures carry the
// same codes as [ReadCells].
func ImportCells(path string, opts ReadOptions) ([]cell.Cell, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCells(f, opts)
}
