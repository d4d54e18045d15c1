package correct

import (
	"math"

	"github.com/meridian-obs/composite.engine/internal/ancillary"
	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/units"
	"gonum.org/v1/gonum/mat"
)

// dayNightTerminatorDeg is the solar zenith angle beyond which a pixel is
// on the night side and reflectance normalization is undefined.
const dayNightTerminatorDeg = 90.0

// SunZenithCorrector normalizes reflectance by the cosine of the solar
// zenith angle. Night-side pixels (solar zenith >= 90 degrees) and pixels
// with out-of-range zenith values are masked rather than divided, which
// keeps values finite along the terminator.
type SunZenithCorrector struct {
	name string
}

// Name returns the configured modifier name.
func (c *SunZenithCorrector) Name() string { return c.name }

// Apply divides every day-side pixel by cos(solar_zenith). The output grid
// has the same shape as the input.
func (c *SunZenithCorrector) Apply(b *band.Band, _ *ancillary.Provider) (*mat.Dense, error) {
	rows, cols := b.Dims()
	out := mat.NewDense(rows, cols, nil)

	usableGeometry := 0
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			_, _, sunZen, _, _, _ := b.Geometry.GeometryAt(r, col, rows, cols)
			if !units.ValidZenith(sunZen) {
				out.Set(r, col, band.Invalid())
				continue
			}
			usableGeometry++
			if sunZen >= dayNightTerminatorDeg {
				out.Set(r, col, band.Invalid())
				continue
			}
			v := b.Data.At(r, col)
			if band.IsInvalid(v) {
				out.Set(r, col, band.Invalid())
				continue
			}
			out.Set(r, col, v/math.Cos(units.Radians(sunZen)))
		}
	}
	if usableGeometry == 0 {
		return nil, &GeometryError{Band: b.Name, Grid: "solar_zenith", Reason: "no usable pixels"}
	}
	return out, nil
}

var _ Corrector = (*SunZenithCorrector)(nil)
