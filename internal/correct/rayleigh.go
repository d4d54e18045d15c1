package correct

import (
	"github.com/meridian-obs/composite.engine/internal/ancillary"
	"github.com/meridian-obs/composite.engine/internal/band"
	"gonum.org/v1/gonum/mat"
)

// RayleighCorrector removes the atmospheric path-reflectance contribution
// from a sun-zenith-normalized band. Per pixel: look up the surface
// elevation from the DEM at the pixel's lat/lon, interpolate a path
// reflectance from the coefficient table for the viewing geometry, and
// subtract it, clamping at zero.
//
// The chain must have run sun-zenith normalization first; the registry
// enforces that ordering at load time.
type RayleighCorrector struct {
	name string
}

// Name returns the configured modifier name.
func (c *RayleighCorrector) Name() string { return c.name }

// Apply subtracts interpolated path reflectance from every valid pixel.
// Pixels with unusable geometry or navigation are masked; an ancillary
// load failure aborts the whole band.
func (c *RayleighCorrector) Apply(b *band.Band, anc *ancillary.Provider) (*mat.Dense, error) {
	rows, cols := b.Dims()
	out := mat.NewDense(rows, cols, nil)

	usableGeometry := 0
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			v := b.Data.At(r, col)
			if band.IsInvalid(v) {
				out.Set(r, col, band.Invalid())
				continue
			}
			satZen, satAzi, sunZen, sunAzi, lat, lon := b.Geometry.GeometryAt(r, col, rows, cols)
			if anyInvalid(satZen, satAzi, sunZen, sunAzi, lat, lon) || satZen < 0 || sunZen < 0 {
				out.Set(r, col, band.Invalid())
				continue
			}

			elevation, err := anc.Elevation(lat, lon)
			if err != nil {
				if IsAncillaryFailure(err) {
					return nil, err
				}
				// Out-of-range navigation: mask the pixel.
				out.Set(r, col, band.Invalid())
				continue
			}
			pathRefl, err := anc.RayleighCoefficient(satZen, satAzi, sunZen, sunAzi, elevation)
			if err != nil {
				if IsAncillaryFailure(err) {
					return nil, err
				}
				out.Set(r, col, band.Invalid())
				continue
			}
			usableGeometry++

			corrected := v - pathRefl
			if corrected < 0 {
				corrected = 0
			}
			out.Set(r, col, corrected)
		}
	}
	if usableGeometry == 0 && band.ValidFraction(b.Data) > 0 {
		return nil, &GeometryError{Band: b.Name, Grid: "viewing_geometry", Reason: "no usable pixels"}
	}
	return out, nil
}

func anyInvalid(vs ...float64) bool {
	for _, v := range vs {
		if band.IsInvalid(v) {
			return true
		}
	}
	return false
}

var _ Corrector = (*RayleighCorrector)(nil)
