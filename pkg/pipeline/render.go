package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	pkgio "github.com/matzehuels/cellcluster/pkg/io"
	"github.com/matzehuels/cellcluster/pkg/render"
)

// Render generates output artifacts in the requested formats, keyed by
// format. Chart formats add a second artifact, keyed "histograms.<format>",
// plotting the observed histogram over the baseline.
func Render(res *Result, formats []string) (map[string][]byte, error) {
	report, err := res.Report()
	if err != nil {
		return nil, err
	}
	return RenderReport(report, res.Options.Pair(), formats)
}

// RenderReport generates artifacts from a report, such as one read back from
// the run history. pair labels the chart titles.
func RenderReport(report pkgio.Report, pair string, formats []string) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var (
			buf bytes.Buffer
			err error
		)

		switch format {
		case FormatXLSX:
			err = pkgio.WriteXLSX(report, &buf)
		case FormatTSV:
			err = pkgio.WriteTSV(report, &buf)
		case FormatJSON:
			err = pkgio.WriteJSON(report, &buf)
		case FormatSVG, FormatPNG:
			var data []byte
			data, err = render.RatioChart(report.Ratio, format, render.ChartOptions{
				Title: "Clustering " + pair,
			})
			buf.Write(data)
			if err == nil {
				data, err = render.HistogramChart(report.Observed, report.Baseline, format, render.ChartOptions{
					Title: "Cumulative pairs " + pair,
				})
				artifacts[HistogramArtifact(format)] = data
			}
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = buf.Bytes()
	}

	return artifacts, nil
}

// HistogramArtifact returns the artifact key of the histogram chart in a
// chart format.
func HistogramArtifact(format string) string {
	return "histograms." + format
}

// Report converts the result into the writer-neutral report form.
func (res *Result) Report() (pkgio.Report, error) {
	opts, err := json.Marshal(res.Options)
	if err != nil {
		return pkgio.Report{}, fmt.Errorf("encode options: %w", err)
	}
	return pkgio.Report{
		RunID:    res.RunID,
		Created:  res.Created,
		Input:    res.Options.Input,
		Seed:     res.Options.Seed,
		Options:  opts,
		Bounds:   res.Bounds,
		Bands:    res.Bands,
		Cells:    res.Stats.CellCount,
		Seeds:    res.Stats.SeedCount,
		Observed: res.Observed,
		Baseline: res.Baseline,
		Ratio:    res.Ratio,
	}, nil
}
