package cell

import (
	"testing"

	"github.com/matzehuels/cellcluster/pkg/errors"
)

func TestComputeBounds(t *testing.T) {
	cells := []Cell{
		{Type: 1, X: 5, Y: -2, Layer: 1},
		{Type: 3, X: -1, Y: 7, Layer: 2},
		{Type: 1, X: 12, Y: 3, Layer: 2},
	}

	b, err := ComputeBounds(cells)
	if err != nil {
		t.Fatalf("ComputeBounds() error: %v", err)
	}

	want := Bounds{XMin: -1, XMax: 12, YMin: -2, YMax: 7}
	if b != want {
		t.Errorf("ComputeBounds() = %+v, want %+v", b, want)
	}
	if b.Width() != 13 || b.Height() != 9 {
		t.Errorf("Width/Height = %v/%v, want 13/9", b.Width(), b.Height())
	}
}

func TestComputeBoundsEmpty(t *testing.T) {
	_, err := ComputeBounds(nil)
	if !errors.Is(err, errors.ErrCodeEmptyDataset) {
		t.Errorf("ComputeBounds(nil) error = %v, want EMPTY_DATASET", err)
	}

	_, _, err = Annotate([]Cell{})
	if !errors.Is(err, errors.ErrCodeEmptyDataset) {
		t.Errorf("Annotate(empty) error = %v, want EMPTY_DATASET", err)
	}
}

func TestAnnotateDistances(t *testing.T) {
	cells := []Cell{
		{Type: 1, X: 0, Y: 0, Layer: 1},
		{Type: 1, X: 10, Y: 4, Layer: 1},
		{Type: 1, X: 3, Y: 1, Layer: 1},
	}

	annotated, b, err := Annotate(cells)
	if err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}
	if len(annotated) != len(cells) {
		t.Fatalf("len = %d, want %d", len(annotated), len(cells))
	}

	mid := annotated[2]
	if mid.ToXMin != 3 || mid.ToXMax != 7 || mid.ToYMin != 1 || mid.ToYMax != 3 {
		t.Errorf("edge distances = %+v", mid)
	}

	for i, a := range annotated {
		if a.Cell != cells[i] {
			t.Errorf("cell %d changed: %+v != %+v", i, a.Cell, cells[i])
		}
		if a.ToXMin < 0 || a.ToXMax < 0 || a.ToYMin < 0 || a.ToYMax < 0 {
			t.Errorf("cell %d has a negative edge distance: %+v", i, a)
		}
		if a.X < b.XMin || a.X > b.XMax || a.Y < b.YMin || a.Y > b.YMax {
			t.Errorf("cell %d outside its own bounds", i)
		}
	}
}

func TestAnnotateWithinUsesSuppliedBounds(t *testing.T) {
	b := Bounds{XMin: 0, XMax: 100, YMin: 0, YMax: 50}
	sim := []Cell{{Type: 1, X: 40, Y: 20, Layer: 1}}

	got := AnnotateWithin(sim, b)[0]
	if got.ToXMin != 40 || got.ToXMax != 60 || got.ToYMin != 20 || got.ToYMax != 30 {
		t.Errorf("AnnotateWithin distances = %+v", got)
	}
}

func TestInteriorIsStrict(t *testing.T) {
	b := Bounds{XMin: 0, XMax: 100, YMin: 0, YMax: 100}
	const margin = 10.0

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"exactly on margin", 10, 50, false},
		{"just inside margin", 10 + 1e-9, 50, true},
		{"center", 50, 50, true},
		{"near top", 50, 95, false},
		{"on corner", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnnotateWithin([]Cell{{X: tt.x, Y: tt.y}}, b)[0]
			if got := a.Interior(margin); got != tt.want {
				t.Errorf("Interior(%v) at (%v,%v) = %v, want %v", margin, tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestStripAndCountType(t *testing.T) {
	cells := []Cell{{Type: 1}, {Type: 3, X: 1}, {Type: 1, Y: 2}}
	annotated, _, err := Annotate(cells)
	if err != nil {
		t.Fatal(err)
	}
	stripped := Strip(annotated)
	for i := range cells {
		if stripped[i] != cells[i] {
			t.Errorf("Strip()[%d] = %+v, want %+v", i, stripped[i], cells[i])
		}
	}
	if n := CountType(cells, 1); n != 2 {
		t.Errorf("CountType(1) = %d, want 2", n)
	}
	if n := CountType(cells, 7); n != 0 {
		t.Errorf("CountType(7) = %d, want 0", n)
	}
}
