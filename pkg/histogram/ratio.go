package histogram

import (
	"math"

	"github.com/matzehuels/cellcluster/pkg/errors"
)

// Ratio is the density-corrected clustering curve. Values near 1 mean the
// observed pattern matches the random baseline, above 1 clustering, below 1
// dispersion. Bins whose baseline is zero carry no information and hold NaN.
type Ratio []float64

// Undefined reports whether bin i has no ratio.
func (r Ratio) Undefined(i int) bool {
	return math.IsNaN(r[i])
}

// Defined returns the number of bins that carry a ratio.
func (r Ratio) Defined() int {
	n := 0
	for i := range r {
		if !r.Undefined(i) {
			n++
		}
	}
	return n
}

// Values returns the ratio with undefined bins as nil, the shape JSON and
// spreadsheet writers expect.
func (r Ratio) Values() []*float64 {
	out := make([]*float64, len(r))
	for i, v := range r {
		if !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}

// Correct divides observed by baseline bin by bin.
func Correct(observed, baseline Histogram) (Ratio, error) {
	if len(observed) != len(baseline) {
		return nil, errors.New(errors.ErrCodeInvalidParameter,
			"observed has %d bins but baseline has %d", len(observed), len(baseline))
	}
	out := make(Ratio, len(observed))
	for i := range observed {
		if baseline[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = observed[i] / baseline[i]
	}
	return out, nil
}
