package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/histogram"
)

// Chart formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Default chart size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var (
	ratioColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	baselineColor = color.RGBA{R: 127, G: 127, B: 127, A: 255}
	observedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// ChartOptions controls chart appearance. Zero values use the defaults.
type ChartOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (o ChartOptions) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w == 0 {
		w = DefaultWidth
	}
	if h == 0 {
		h = DefaultHeight
	}
	return w, h
}

// RatioChart renders the clustering ratio in the given format.
func RatioChart(r histogram.Ratio, format string, opts ChartOptions) ([]byte, error) {
	p := newPlot(opts.Title, "clustering ratio", len(r))

	for _, seg := range segments(r) {
		l, err := plotter.NewLine(seg)
		if err != nil {
			return nil, fmt.Errorf("ratio line: %w", err)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = ratioColor
		p.Add(l)
	}

	ref := plotter.NewFunction(func(float64) float64 { return 1 })
	ref.Color = baselineColor
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ref)
	p.Legend.Add("random", ref)

	return encode(p, format, opts)
}

// HistogramChart renders the observed histogram against the baseline.
func HistogramChart(observed, baseline histogram.Histogram, format string, opts ChartOptions) ([]byte, error) {
	p := newPlot(opts.Title, "cumulative pairs", len(observed))

	for _, s := range []struct {
		name  string
		h     histogram.Histogram
		color color.Color
	}{
		{"observed", observed, observedColor},
		{"baseline", baseline, baselineColor},
	} {
		l, err := plotter.NewLine(points(s.h))
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", s.name, err)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = s.color
		p.Add(l)
		p.Legend.Add(s.name, l)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return encode(p, format, opts)
}

func newPlot(title, ylabel string, bins int) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "distance (um)"
	p.Y.Label.Text = ylabel
	p.X.Min = 0
	p.X.Max = float64(max(bins-1, 1))
	p.Add(plotter.NewGrid())
	return p
}

// segments splits r into runs of defined bins.
func segments(r histogram.Ratio) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for i, v := range r {
		if r.Undefined(i) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i), Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func points(h histogram.Histogram) plotter.XYs {
	pts := make(plotter.XYs, len(h))
	for i, v := range h {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	return pts
}

func encode(p *plot.Plot, format string, opts ChartOptions) ([]byte, error) {
	if format != FormatSVG && format != FormatPNG {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported chart format %q (must be svg or png)", format)
	}
	w, h := opts.size()
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", format, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
