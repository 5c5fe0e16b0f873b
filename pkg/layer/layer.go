// Package layer partitions the region of interest into per-layer y bands.
//
// Layers are numbered from 1 at the top of the ROI (largest y) to layerNum at
// the bottom. Each band starts as the raw y extent of the cells counted in
// that layer; adjacent bands are then stitched at the midpoint between the
// upper layer's minimum and the lower layer's maximum, and the outermost
// edges are pinned to the ROI extrema. For layer-sorted input the bands tile
// [YMin, YMax] with no gap and no overlap. Input that is not sorted by layer
// is not corrected and may produce overlapping bands.
//
// A declared layer with no observed cells has no y extent. [Stratify]
// rejects such data with a LAYER_DATA error instead of inventing a band.
package layer

import (
	"github.com/matzehuels/cellcluster/pkg/cell"
	"github.com/matzehuels/cellcluster/pkg/errors"
)

// Band is the y interval a layer's simulated cells are drawn from.
type Band struct {
	High  float64 `json:"y_high"`
	Low   float64 `json:"y_low"`
	Layer int     `json:"layer"`
}

// Contains reports whether y lies within the closed band.
func (b Band) Contains(y float64) bool {
	return y >= b.Low && y <= b.High
}

// Span returns the band height.
func (b Band) Span() float64 { return b.High - b.Low }

// Stratify computes one band per layer, ordered by layer id ascending.
func Stratify(cells []cell.Cell, bounds cell.Bounds, layerNum int) ([]Band, error) {
	if err := errors.ValidatePositive("layer_num", layerNum); err != nil {
		return nil, err
	}

	bands := make([]Band, layerNum)
	seen := make([]bool, layerNum)
	for i := range bands {
		bands[i].Layer = i + 1
	}

	for _, c := range cells {
		if c.Layer < 1 || c.Layer > layerNum {
			return nil, errors.New(errors.ErrCodeLayerData,
				"cell at (%g, %g) has layer %d outside 1..%d", c.X, c.Y, c.Layer, layerNum)
		}
		b := &bands[c.Layer-1]
		if !seen[c.Layer-1] {
			b.High, b.Low = c.Y, c.Y
			seen[c.Layer-1] = true
			continue
		}
		b.High = max(b.High, c.Y)
		b.Low = min(b.Low, c.Y)
	}

	for i, ok := range seen {
		if !ok {
			return nil, errors.New(errors.ErrCodeLayerData, "layer %d has no cells", i+1)
		}
	}

	for k := 0; k < layerNum-1; k++ {
		mid := (bands[k].Low + bands[k+1].High) / 2
		bands[k].Low = mid
		bands[k+1].High = mid
	}
	bands[0].High = bounds.YMax
	bands[layerNum-1].Low = bounds.YMin

	return bands, nil
}

// Single returns one band spanning the whole ROI. Every cell is treated as
// belonging to it, which gives the unstratified null model.
func Single(bounds cell.Bounds) []Band {
	return []Band{{High: bounds.YMax, Low: bounds.YMin, Layer: 1}}
}

// Lookup returns the band for a layer id, or false when the id has none.
func Lookup(bands []Band, layerID int) (Band, bool) {
	if layerID < 1 || layerID > len(bands) {
		return Band{}, false
	}
	return bands[layerID-1], true
}
