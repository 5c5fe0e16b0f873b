// Package cell defines labeled cell observations and the boundary calculator
// that annotates them with their distance to the edges of the region of
// interest.
//
// # Overview
//
// A [Cell] is an immutable point observation: a population type code, planar
// coordinates, and the layer it was counted in. The region of interest (ROI)
// is the axis-aligned box spanned by the observed cells, described by
// [Bounds]. Annotation never modifies cells; it returns [Annotated] copies
// carrying the four edge distances, so a single observed set can be shared by
// concurrent simulation workers.
//
// # Observed and simulated sets
//
// Observed cells are annotated with [Annotate], which computes the bounds
// from the cells themselves. Simulated layouts are annotated with
// [AnnotateWithin] against the observed bounds: a random layout almost never
// reaches the exact corners of the original ROI, and recomputing its own
// extrema would shrink the box and change which cells count as edge-safe.
package cell

import (
	"math"

	"github.com/matzehuels/cellcluster/pkg/errors"
)

// Cell is one labeled point observation.
type Cell struct {
	Type  int     `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Layer int     `json:"layer"`
}

// Bounds is the axis-aligned bounding box of a cell set.
type Bounds struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// Width returns the x extent of the box.
func (b Bounds) Width() float64 { return b.XMax - b.XMin }

// Height returns the y extent of the box.
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

// Annotated is a cell together with its distances to the four box edges.
type Annotated struct {
	Cell
	ToXMin float64
	ToXMax float64
	ToYMin float64
	ToYMax float64
}

// Interior reports whether all four edge distances strictly exceed margin.
// A cell exactly margin away from an edge is not interior.
func (a Annotated) Interior(margin float64) bool {
	return a.ToXMin > margin && a.ToXMax > margin &&
		a.ToYMin > margin && a.ToYMax > margin
}

// ComputeBounds returns the extrema of x and y over cells in one scan.
func ComputeBounds(cells []Cell) (Bounds, error) {
	if len(cells) == 0 {
		return Bounds{}, errors.New(errors.ErrCodeEmptyDataset, "no cells to bound")
	}
	b := Bounds{
		XMin: cells[0].X, XMax: cells[0].X,
		YMin: cells[0].Y, YMax: cells[0].Y,
	}
	for _, c := range cells[1:] {
		b.XMin = min(b.XMin, c.X)
		b.XMax = max(b.XMax, c.X)
		b.YMin = min(b.YMin, c.Y)
		b.YMax = max(b.YMax, c.Y)
	}
	return b, nil
}

// Annotate computes the bounds of cells and annotates every cell against them.
func Annotate(cells []Cell) ([]Annotated, Bounds, error) {
	b, err := ComputeBounds(cells)
	if err != nil {
		return nil, Bounds{}, err
	}
	return AnnotateWithin(cells, b), b, nil
}

// AnnotateWithin annotates cells against externally supplied bounds.
// The output is index-aligned with cells.
func AnnotateWithin(cells []Cell, b Bounds) []Annotated {
	out := make([]Annotated, len(cells))
	for i, c := range cells {
		out[i] = Annotated{
			Cell:   c,
			ToXMin: math.Abs(c.X - b.XMin),
			ToXMax: math.Abs(b.XMax - c.X),
			ToYMin: math.Abs(c.Y - b.YMin),
			ToYMax: math.Abs(b.YMax - c.Y),
		}
	}
	return out
}

// Strip returns the plain cells behind an annotated set.
func Strip(annotated []Annotated) []Cell {
	out := make([]Cell, len(annotated))
	for i, a := range annotated {
		out[i] = a.Cell
	}
	return out
}

// CountType returns how many cells carry the given type code.
func CountType(cells []Cell, typ int) int {
	n := 0
	for _, c := range cells {
		if c.Type == typ {
			n++
		}
	}
	return n
}
