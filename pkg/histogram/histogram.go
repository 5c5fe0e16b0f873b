// Package histogram implements the cumulative radial histogram and the
// density correction that turns it into a clustering ratio.
//
// # Cumulative radial histogram
//
// For every edge-safe seed cell of one population, [Accumulate] measures the
// distance to every cell of the compare population. A pair at distance d is
// mapped to bin ceil(d*AnalysisDist/IntervalNum) and counted in that bin and
// every farther bin up to AnalysisDist, so bin i holds the number of pairs
// at distance <= i units. Pairs at distance zero (a cell against itself or a
// duplicate location) and pairs beyond AnalysisDist are not counted.
//
// The histogram has AnalysisDist+1 bins, for distances 0..AnalysisDist
// inclusive. The same mapping is used for observed and simulated layouts.
//
// # Two populations
//
// When the seed and compare populations differ, edge exclusion selects a
// different seed set for each direction. [Pair] computes both directions and
// averages them bin by bin into one symmetric histogram.
//
// # Concurrency
//
// Accumulate only reads its input and writes a freshly allocated histogram,
// so any number of calls may run concurrently over the same cell slice.
package histogram

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
)

// Params controls distance binning and edge exclusion.
type Params struct {
	// AnalysisDist is the inclusive upper bound of the distance axis.
	AnalysisDist int
	// IntervalNum divides the analysis range into bins. Equal to
	// AnalysisDist gives one bin per distance unit.
	IntervalNum int
	// ExcludeDist is the margin a seed must strictly exceed on all four sides.
	ExcludeDist float64
}

// Validate checks that the parameters describe a usable histogram.
func (p Params) Validate() error {
	if err := errors.ValidatePositive("analysis_dist", p.AnalysisDist); err != nil {
		return err
	}
	if err := errors.ValidatePositive("interval_num", p.IntervalNum); err != nil {
		return err
	}
	return errors.ValidateNonNegative("exclude_dist", p.ExcludeDist)
}

// Len returns the number of bins.
func (p Params) Len() int { return p.AnalysisDist + 1 }

// Bin maps a positive in-range distance to its bin index. The result may
// exceed AnalysisDist when IntervalNum < AnalysisDist; such pairs fall
// outside the histogram.
func (p Params) Bin(d float64) int {
	return int(math.Ceil(d * float64(p.AnalysisDist) / float64(p.IntervalNum)))
}

// Histogram is a cumulative count per distance bin.
type Histogram []float64

// New returns a zeroed histogram sized for p.
func New(p Params) Histogram {
	return make(Histogram, p.Len())
}

// Clone returns an independent copy of h.
func (h Histogram) Clone() Histogram {
	out := make(Histogram, len(h))
	copy(out, h)
	return out
}

// Total returns the value of the last bin: every counted pair.
func (h Histogram) Total() float64 {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}

type point struct{ x, y float64 }

// Accumulate builds the cumulative radial histogram of seedType cells
// against compareType cells. p must satisfy Validate.
func Accumulate(cells []cell.Annotated, seedType, compareType int, p Params) Histogram {
	n := p.Len()
	hits := make([]float64, n)

	targets := make([]point, 0, len(cells))
	for _, c := range cells {
		if c.Type == compareType {
			targets = append(targets, point{c.X, c.Y})
		}
	}

	dist := float64(p.AnalysisDist)
	maxSq := dist * dist

	for _, seed := range cells {
		if seed.Type != seedType || !seed.Interior(p.ExcludeDist) {
			continue
		}
		sx, sy := seed.X, seed.Y
		for _, t := range targets {
			dx, dy := sx-t.x, sy-t.y
			sq := dx*dx + dy*dy
			if sq == 0 || sq > maxSq {
				continue
			}
			bin := p.Bin(math.Sqrt(sq))
			if bin < n {
				hits[bin]++
			}
		}
	}

	// A pair counted in bin b also counts in every bin after it.
	h := Histogram(hits)
	for i := 1; i < n; i++ {
		h[i] += h[i-1]
	}
	return h
}

// Seeds returns how many cells of seedType qualify as seeds under p.
func Seeds(cells []cell.Annotated, seedType int, p Params) int {
	count := 0
	for _, c := range cells {
		if c.Type == seedType && c.Interior(p.ExcludeDist) {
			count++
		}
	}
	return count
}

// Pair returns the histogram for a population pair. Equal types give the
// single-population histogram; different types give the bin-wise mean of
// both directions, computed concurrently.
func Pair(cells []cell.Annotated, typeA, typeB int, p Params) Histogram {
	if typeA == typeB {
		return Accumulate(cells, typeA, typeA, p)
	}

	var (
		wg      sync.WaitGroup
		reverse Histogram
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reverse = Accumulate(cells, typeB, typeA, p)
	}()
	forward := Accumulate(cells, typeA, typeB, p)
	wg.Wait()

	return mean2(forward, reverse)
}

// Mean returns the bin-wise arithmetic mean of equally sized histograms.
func Mean(hs ...Histogram) (Histogram, error) {
	if len(hs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "mean of zero histograms")
	}
	out := hs[0].Clone()
	for _, h := range hs[1:] {
		if len(h) != len(out) {
			return nil, errors.New(errors.ErrCodeInvalidParameter,
				"histogram lengths differ: %d and %d", len(out), len(h))
		}
		floats.Add(out, h)
	}
	floats.Scale(1/float64(len(hs)), out)
	return out, nil
}

// mean2 averages two histograms known to share a length.
func mean2(a, b Histogram) Histogram {
	out := a.Clone()
	floats.Add(out, b)
	floats.Scale(0.5, out)
	return out
}
