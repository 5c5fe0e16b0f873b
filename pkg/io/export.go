package io

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names used by [WriteXLSX].
const (
	SheetClustering = "Clustering"
	SheetHistograms = "Histograms"
)

// WriteXLSX writes r as an Excel workbook.
func WriteXLSX(r Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetClustering); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeaders(f, SheetClustering, len(r.Ratio)); err != nil {
		return err
	}
	for i, v := range r.Ratio {
		if r.Ratio.Undefined(i) {
			continue
		}
		if err := setCell(f, SheetClustering, i, 2, v); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetHistograms); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writeHeaders(f, SheetHistograms, len(r.Observed)); err != nil {
		return err
	}
	for row, h := range map[int][]float64{2: r.Observed, 3: r.Baseline} {
		for i, v := range h {
			if err := setCell(f, SheetHistograms, i, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, n int) error {
	for i := range n {
		if err := setCell(f, sheet, i, 1, Header(i)); err != nil {
			return err
		}
	}
	return nil
}

// setCell writes v at zero-based column col of 1-based row.
func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, name, v); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, name, err)
	}
	return nil
}

// WriteTSV writes the header row and the ratio row of r, tab separated.
func WriteTSV(r Report, w io.Writer) error {
	headers := make([]string, len(r.Ratio))
	values := make([]string, len(r.Ratio))
	for i, v := range r.Ratio {
		headers[i] = Header(i)
		if !r.Ratio.Undefined(i) {
			values[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", strings.Join(headers, "\t"), strings.Join(values, "\t"))
	return err
}
