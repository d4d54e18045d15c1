// Package band defines the core raster types shared by the correction and
// composition layers: calibrated spectral bands, their viewing/illumination
// geometry, and grid utilities.
//
// All 2-D rasters are gonum *mat.Dense with row = scan line, column = pixel.
// Invalid pixels (night side, bad geometry, fill) are carried as NaN so that
// masks survive arithmetic without a separate bitmap.
package band

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Resolution classifies a band's native grid.
type Resolution string

const (
	// ResolutionLow is the moderate-resolution grid (e.g. VIIRS M-bands).
	ResolutionLow Resolution = "low"

	// ResolutionHigh is the imagery-resolution grid (e.g. VIIRS I-bands).
	ResolutionHigh Resolution = "high"
)

// String returns the string representation of the resolution class.
func (r Resolution) String() string {
	return string(r)
}

// IsValid returns true if the resolution is a known valid value.
func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionLow, ResolutionHigh:
		return true
	default:
		return false
	}
}

// GeometryBundle carries the per-pixel viewing and illumination geometry for
// one band, plus the navigation lat/lon grids used for ancillary lookups.
// All angles are degrees. The geometry grids may be the same shape as the
// band or coarser; GeometryAt maps band pixel coordinates onto them.
type GeometryBundle struct {
	SatelliteZenith  *mat.Dense
	SatelliteAzimuth *mat.Dense
	SolarZenith      *mat.Dense
	SolarAzimuth     *mat.Dense
	Latitude         *mat.Dense
	Longitude        *mat.Dense
}

// Validate checks that all six grids are present and share one shape, and
// that the shape evenly maps onto a band of bandRows x bandCols (equal or
// coarser by an integer factor).
func (g *GeometryBundle) Validate(bandRows, bandCols int) error {
	grids := map[string]*mat.Dense{
		"satellite_zenith":  g.SatelliteZenith,
		"satellite_azimuth": g.SatelliteAzimuth,
		"solar_zenith":      g.SolarZenith,
		"solar_azimuth":     g.SolarAzimuth,
		"latitude":          g.Latitude,
		"longitude":         g.Longitude,
	}
	rows, cols := -1, -1
	for name, grid := range grids {
		if grid == nil {
			return fmt.Errorf("geometry bundle missing %s grid", name)
		}
		r, c := grid.Dims()
		if rows == -1 {
			rows, cols = r, c
			continue
		}
		if r != rows || c != cols {
			return fmt.Errorf("geometry grid %s is %dx%d, want %dx%d", name, r, c, rows, cols)
		}
	}
	if rows > bandRows || cols > bandCols {
		return fmt.Errorf("geometry grid %dx%d is finer than band grid %dx%d", rows, cols, bandRows, bandCols)
	}
	if bandRows%rows != 0 || bandCols%cols != 0 {
		return fmt.Errorf("geometry grid %dx%d does not evenly divide band grid %dx%d", rows, cols, bandRows, bandCols)
	}
	return nil
}

// geometryIndex maps a band pixel coordinate onto a (possibly coarser)
// geometry grid by integer decimation.
func geometryIndex(bandIdx, bandDim, geomDim int) int {
	if bandDim == geomDim {
		return bandIdx
	}
	return bandIdx / (bandDim / geomDim)
}

// GeometryAt returns the four geometry angles and the navigation coordinates
// for band pixel (r, c) on a band of shape bandRows x bandCols.
func (g *GeometryBundle) GeometryAt(r, c, bandRows, bandCols int) (satZen, satAzi, sunZen, sunAzi, lat, lon float64) {
	gr, gc := g.SolarZenith.Dims()
	ri := geometryIndex(r, bandRows, gr)
	ci := geometryIndex(c, bandCols, gc)
	satZen = g.SatelliteZenith.At(ri, ci)
	satAzi = g.SatelliteAzimuth.At(ri, ci)
	sunZen = g.SolarZenith.At(ri, ci)
	sunAzi = g.SolarAzimuth.At(ri, ci)
	lat = g.Latitude.At(ri, ci)
	lon = g.Longitude.At(ri, ci)
	return
}

// Band is one calibrated spectral band as delivered by a band provider.
// Immutable once fetched: correction steps allocate new data grids rather
// than mutating the original.
type Band struct {
	Name       string
	Resolution Resolution
	Data       *mat.Dense
	Geometry   *GeometryBundle
}

// Dims returns the band grid shape.
func (b *Band) Dims() (rows, cols int) {
	return b.Data.Dims()
}

// WithData returns a copy of the band referencing a new data grid. The
// geometry bundle is shared; it is read-only for the band's lifetime.
func (b *Band) WithData(data *mat.Dense) *Band {
	return &Band{
		Name:       b.Name,
		Resolution: b.Resolution,
		Data:       data,
		Geometry:   b.Geometry,
	}
}

// Validate checks the band for internal consistency.
func (b *Band) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("band has empty name")
	}
	if !b.Resolution.IsValid() {
		return fmt.Errorf("band %s: unknown resolution class %q", b.Name, b.Resolution)
	}
	if b.Data == nil {
		return fmt.Errorf("band %s: nil data grid", b.Name)
	}
	if b.Geometry == nil {
		return fmt.Errorf("band %s: nil geometry bundle", b.Name)
	}
	rows, cols := b.Data.Dims()
	if err := b.Geometry.Validate(rows, cols); err != nil {
		return fmt.Errorf("band %s: %w", b.Name, err)
	}
	return nil
}

// Invalid is the fill value for masked pixels.
func Invalid() float64 { return math.NaN() }

// IsInvalid reports whether v is a masked pixel.
func IsInvalid(v float64) bool { return math.IsNaN(v) }

// NewFilled returns a rows x cols grid with every element set to v.
func NewFilled(rows, cols int, v float64) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, v)
		}
	}
	return m
}

// ValidFraction returns the fraction of pixels in m that are not masked.
// Returns 0 for an empty grid.
func ValidFraction(m *mat.Dense) float64 {
	rows, cols := m.Dims()
	total := rows * cols
	if total == 0 {
		return 0
	}
	valid := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !IsInvalid(m.At(r, c)) {
				valid++
			}
		}
	}
	return float64(valid) / float64(total)
}
