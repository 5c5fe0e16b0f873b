package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/histogram"
	"github.com/matzehuels/cellcluster/pkg/layer"
)

// Report is the outcome of one analysis run in writer-neutral form.
type Report struct {
	RunID   string
	Created time.Time
	Input   string
	Seed    uint64
	// Options is the encoded option set the run used.
	Options json.RawMessage

	Bounds cell.Bounds
	Bands  []layer.Band
	Cells  int
	Seeds  int

	Observed histogram.Histogram
	Baseline histogram.Histogram
	Ratio    histogram.Ratio
}

// Header returns the column header for bin i.
func Header(i int) string {
	return fmt.Sprintf("%d um", i)
}

type jsonReport struct {
	RunID    string              `json:"run_id"`
	Created  time.Time           `json:"created"`
	Input    string              `json:"input,omitempty"`
	Seed     uint64              `json:"seed"`
	Options  json.RawMessage     `json:"options,omitempty"`
	Bounds   cell.Bounds         `json:"bounds"`
	Bands    []layer.Band        `json:"bands"`
	Cells    int                 `json:"cells"`
	Seeds    int                 `json:"seeds"`
	Observed histogram.Histogram `json:"observed"`
	Baseline histogram.Histogram `json:"baseline"`
	Ratio    []*float64          `json:"ratio"`
}

// WriteJSON encodes r as indented JSON. Undefined ratio bins become null.
func WriteJSON(r Report, w io.Writer) error {
	out := jsonReport{
		RunID:    r.RunID,
		Created:  r.Created,
		Input:    r.Input,
		Seed:     r.Seed,
		Options:  r.Options,
		Bounds:   r.Bounds,
		Bands:    r.Bands,
		Cells:    r.Cells,
		Seeds:    r.Seeds,
		Observed: r.Observed,
		Baseline: r.Baseline,
		Ratio:    r.Ratio.Values(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a report written by [WriteJSON].
func ReadJSON(rd io.Reader) (Report, error) {
	var in jsonReport
	if err := json.NewDecoder(rd).Decode(&in); err != nil {
		return Report{}, fmt.Errorf("decode: %w", err)
	}
	ratio := make(histogram.Ratio, len(in.Ratio))
	for i, v := range in.Ratio {
		if v == nil {
			ratio[i] = math.NaN()
			continue
		}
		ratio[i] = *v
	}
	return Report{
		RunID:    in.RunID,
		Created:  in.Created,
		Input:    in.Input,
		Seed:     in.Seed,
		Options:  in.Options,
		Bounds:   in.Bounds,
		Bands:    in.Bands,
		Cells:    in.Cells,
		Seeds:    in.Seeds,
		Observed: in.Observed,
		Baseline: in.Baseline,
		Ratio:    ratio,
	}, nil
}
