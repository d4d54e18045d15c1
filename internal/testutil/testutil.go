// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files: grid construction, uniform geometry bundles and a
// zero-coefficient Rayleigh table.
package testutil

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/meridian-obs/composite.engine/internal/ancillary"
	"github.com/meridian-obs/composite.engine/internal/band"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Grid builds a rows x cols grid from row-major values.
func Grid(t *testing.T, rows, cols int, values ...float64) *mat.Dense {
	t.Helper()
	if len(values) != rows*cols {
		t.Fatalf("grid wants %d values, got %d", rows*cols, len(values))
	}
	return mat.NewDense(rows, cols, values)
}

// UniformGeometry builds a geometry bundle with every grid constant:
// useful for pixel-math tests where only the solar zenith matters.
func UniformGeometry(rows, cols int, satZen, satAzi, sunZen, sunAzi, lat, lon float64) *band.GeometryBundle {
	return &band.GeometryBundle{
		SatelliteZenith:  band.NewFilled(rows, cols, satZen),
		SatelliteAzimuth: band.NewFilled(rows, cols, satAzi),
		SolarZenith:      band.NewFilled(rows, cols, sunZen),
		SolarAzimuth:     band.NewFilled(rows, cols, sunAzi),
		Latitude:         band.NewFilled(rows, cols, lat),
		Longitude:        band.NewFilled(rows, cols, lon),
	}
}

// UniformBand builds a band with constant data and uniform geometry.
func UniformBand(name string, res band.Resolution, rows, cols int, value, sunZen float64) *band.Band {
	return &band.Band{
		Name:       name,
		Resolution: res,
		Data:       band.NewFilled(rows, cols, value),
		Geometry:   UniformGeometry(rows, cols, 10, 90, sunZen, 180, 45, -90),
	}
}

// FlatDEM builds a small global DEM with constant elevation.
func FlatDEM(t *testing.T, elevation float64) *ancillary.DEM {
	t.Helper()
	dem, err := ancillary.NewDEM(band.NewFilled(18, 36, elevation))
	if err != nil {
		t.Fatalf("build flat dem: %v", err)
	}
	return dem
}

// ZeroRayleighTable builds a coefficient table returning zero path
// reflectance for every geometry.
func ZeroRayleighTable() *ancillary.RayleighTable {
	return ConstantRayleighTable(0)
}

// ConstantRayleighTable builds a coefficient table returning v everywhere.
func ConstantRayleighTable(v float64) *ancillary.RayleighTable {
	values := make([]float64, 2*2*2*2)
	for i := range values {
		values[i] = v
	}
	return &ancillary.RayleighTable{
		SunZenith:  []float64{0, 90},
		SatZenith:  []float64{0, 90},
		RelAzimuth: []float64{0, 180},
		Elevation:  []float64{0, 9000},
		Values:     values,
	}
}

// StaticAncillary builds a provider over a flat DEM and a constant table.
func StaticAncillary(t *testing.T, elevation, coefficient float64) *ancillary.Provider {
	t.Helper()
	return ancillary.NewStaticProvider(FlatDEM(t, elevation), ConstantRayleighTable(coefficient))
}
