// Package simulate builds null-model layouts and averages their histograms
// into the random baseline.
//
// # Null model
//
// [Generate] keeps every cell's type and layer and redraws its position: x
// uniformly across the ROI width and y uniformly inside the cell's own layer
// band. Per-layer counts, and so per-layer density, are preserved while any
// spatial structure inside a layer is destroyed. With a single band spanning
// the ROI the model degenerates to complete spatial randomness over the box.
//
// # Orchestration
//
// [Run] repeats generation, annotation and accumulation Config.Runs times on
// a bounded pool of workers and returns the bin-wise mean. Run i draws from
// its own PCG stream keyed by (Seed, i), so a fixed seed gives the same
// baseline regardless of worker count or scheduling.
package simulate

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/layer"
)

// Generate returns a randomized layout index-aligned with cells. Each output
// cell has the input cell's type and layer, x drawn from [XMin, XMax] and y
// drawn from the band of its layer.
//
// An empty bands slice selects the unstratified model: every y is drawn from
// [YMin, YMax] whatever the cell's layer.
func Generate(cells []cell.Cell, bounds cell.Bounds, bands []layer.Band, src rand.Source) ([]cell.Cell, error) {
	if len(bands) == 0 {
		bands = layer.Single(bounds)
		return generate(cells, bands, bounds, src, func(cell.Cell) int { return 0 }), nil
	}
	if err := CheckBands(cells, bands); err != nil {
		return nil, err
	}
	return generate(cells, bands, bounds, src, func(c cell.Cell) int { return c.Layer - 1 }), nil
}

func generate(cells []cell.Cell, bands []layer.Band, bounds cell.Bounds, src rand.Source, bandOf func(cell.Cell) int) []cell.Cell {
	x := distuv.Uniform{Min: bounds.XMin, Max: bounds.XMax, Src: src}
	ys := make([]distuv.Uniform, len(bands))
	for i, b := range bands {
		ys[i] = distuv.Uniform{Min: b.Low, Max: b.High, Src: src}
	}

	out := make([]cell.Cell, len(cells))
	for i, c := range cells {
		out[i] = cell.Cell{
			Type:  c.Type,
			X:     x.Rand(),
			Y:     ys[bandOf(c)].Rand(),
			Layer: c.Layer,
		}
	}
	return out
}

// CheckBands verifies that every cell's layer has a band.
func CheckBands(cells []cell.Cell, bands []layer.Band) error {
	for _, c := range cells {
		if _, ok := layer.Lookup(bands, c.Layer); !ok {
			return errors.New(errors.ErrCodeLayerData,
				"cell at (%g, %g) has layer %d but only %d bands exist", c.X, c.Y, c.Layer, len(bands))
		}
	}
	return nil
}
