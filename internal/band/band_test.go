package band

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestResolutionIsValid(t *testing.T) {
	t.Parallel()

	if !ResolutionLow.IsValid() || !ResolutionHigh.IsValid() {
		t.Error("expected low and high to be valid resolution classes")
	}
	if Resolution("medium").IsValid() {
		t.Error("expected unknown resolution class to be invalid")
	}
}

func TestGeometryBundleValidate(t *testing.T) {
	t.Parallel()

	t.Run("matching shape passes", func(t *testing.T) {
		t.Parallel()
		g := uniformBundle(4, 4, 30)
		if err := g.Validate(4, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("coarser shape with integer factor passes", func(t *testing.T) {
		t.Parallel()
		g := uniformBundle(2, 2, 30)
		if err := g.Validate(4, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("finer geometry rejected", func(t *testing.T) {
		t.Parallel()
		g := uniformBundle(8, 8, 30)
		if err := g.Validate(4, 4); err == nil {
			t.Fatal("expected error for geometry finer than band")
		}
	})

	t.Run("non-integer factor rejected", func(t *testing.T) {
		t.Parallel()
		g := uniformBundle(3, 3, 30)
		if err := g.Validate(4, 4); err == nil {
			t.Fatal("expected error for non-divisible geometry shape")
		}
	})

	t.Run("missing grid rejected", func(t *testing.T) {
		t.Parallel()
		g := uniformBundle(4, 4, 30)
		g.Latitude = nil
		if err := g.Validate(4, 4); err == nil {
			t.Fatal("expected error for missing latitude grid")
		}
	})

	t.Run("mismatched grid shapes rejected", func(t *testing.T) {
		t.Parallel()
		g := uniformBundle(4, 4, 30)
		g.SolarAzimuth = NewFilled(2, 2, 0)
		if err := g.Validate(4, 4); err == nil {
			t.Fatal("expected error for mixed geometry shapes")
		}
	})
}

func TestGeometryAtCoarseMapping(t *testing.T) {
	t.Parallel()

	// 2x2 geometry under a 4x4 band: each geometry cell covers a 2x2
	// block of band pixels.
	g := uniformBundle(2, 2, 0)
	g.SolarZenith = mat.NewDense(2, 2, []float64{
		10, 20,
		30, 40,
	})

	cases := []struct {
		r, c int
		want float64
	}{
		{0, 0, 10},
		{1, 1, 10},
		{0, 3, 20},
		{3, 0, 30},
		{2, 2, 40},
		{3, 3, 40},
	}
	for _, tc := range cases {
		_, _, sunZen, _, _, _ := g.GeometryAt(tc.r, tc.c, 4, 4)
		if sunZen != tc.want {
			t.Errorf("GeometryAt(%d,%d) solar zenith = %v, want %v", tc.r, tc.c, sunZen, tc.want)
		}
	}
}

func TestBandValidate(t *testing.T) {
	t.Parallel()

	b := &Band{
		Name:       "m05",
		Resolution: ResolutionLow,
		Data:       NewFilled(4, 4, 0.2),
		Geometry:   uniformBundle(4, 4, 30),
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := *b
	bad.Resolution = "medium"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown resolution class")
	}
}

func TestWithDataSharesGeometry(t *testing.T) {
	t.Parallel()

	b := &Band{
		Name:       "m05",
		Resolution: ResolutionLow,
		Data:       NewFilled(2, 2, 1),
		Geometry:   uniformBundle(2, 2, 0),
	}
	next := b.WithData(NewFilled(2, 2, 2))
	if next.Geometry != b.Geometry {
		t.Error("expected geometry bundle to be shared")
	}
	if next.Data.At(0, 0) != 2 || b.Data.At(0, 0) != 1 {
		t.Error("expected data grids to be independent")
	}
}

func TestValidFraction(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(2, 2, []float64{1, Invalid(), 3, Invalid()})
	if got := ValidFraction(m); got != 0.5 {
		t.Errorf("ValidFraction = %v, want 0.5", got)
	}
}

func TestBilinearResample(t *testing.T) {
	t.Parallel()

	t.Run("same shape is identity", func(t *testing.T) {
		t.Parallel()
		src := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
		out, err := BilinearResample(src, 2, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !mat.Equal(src, out) {
			t.Errorf("identity resample changed values: got %v", mat.Formatted(out))
		}
	})

	t.Run("2x2 to 3x3 interpolates midpoints", func(t *testing.T) {
		t.Parallel()
		src := mat.NewDense(2, 2, []float64{0, 2, 2, 4})
		out, err := BilinearResample(src, 3, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := out.At(1, 1); got != 2 {
			t.Errorf("center = %v, want 2", got)
		}
		if got := out.At(0, 1); got != 1 {
			t.Errorf("top mid = %v, want 1", got)
		}
		if got := out.At(2, 2); got != 4 {
			t.Errorf("corner = %v, want 4", got)
		}
	})

	t.Run("masked source masks output", func(t *testing.T) {
		t.Parallel()
		src := mat.NewDense(2, 2, []float64{0, Invalid(), 2, 4})
		out, err := BilinearResample(src, 3, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !math.IsNaN(out.At(0, 2)) {
			t.Error("expected pixel under masked corner to be masked")
		}
	})

	t.Run("invalid target shape rejected", func(t *testing.T) {
		t.Parallel()
		src := mat.NewDense(2, 2, nil)
		if _, err := BilinearResample(src, 0, 3); err == nil {
			t.Fatal("expected error for zero target dimension")
		}
	})
}

func uniformBundle(rows, cols int, sunZen float64) *GeometryBundle {
	return &GeometryBundle{
		SatelliteZenith:  NewFilled(rows, cols, 10),
		SatelliteAzimuth: NewFilled(rows, cols, 90),
		SolarZenith:      NewFilled(rows, cols, sunZen),
		SolarAzimuth:     NewFilled(rows, cols, 180),
		Latitude:         NewFilled(rows, cols, 45),
		Longitude:        NewFilled(rows, cols, -90),
	}
}
