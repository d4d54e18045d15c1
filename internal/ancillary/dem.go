package ancillary

import (
	"fmt"
	"math"

	"github.com/meridian-obs/composite.engine/internal/units"
	"gonum.org/v1/gonum/mat"
)

// DEM is a global, fixed-resolution elevation raster. Rows run north to
// south starting at +90 latitude, columns west to east starting at -180
// longitude. Loaded once and immutable; lookups are lock-free.
type DEM struct {
	data    *mat.Dense
	rows    int
	cols    int
	cellDeg float64 // grid spacing in degrees, identical on both axes
}

// NewDEM wraps an elevation grid. The grid must tile the full globe: rows
// covering 180 degrees of latitude and cols covering 360 of longitude at a
// single cell size.
func NewDEM(data *mat.Dense) (*DEM, error) {
	rows, cols := data.Dims()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("dem grid %dx%d too small", rows, cols)
	}
	latCell := 180.0 / float64(rows)
	lonCell := 360.0 / float64(cols)
	if math.Abs(latCell-lonCell) > 1e-9 {
		return nil, fmt.Errorf("dem grid %dx%d is not square-celled (%.6f vs %.6f deg)", rows, cols, latCell, lonCell)
	}
	return &DEM{data: data, rows: rows, cols: cols, cellDeg: latCell}, nil
}

// ElevationAt returns the terrain height in meters at (lat, lon) by
// bilinear interpolation over the four surrounding cells. Longitude wraps
// across the antimeridian; latitude clamps at the poles. Cell centers sit
// at half-cell offsets from the grid edges.
func (d *DEM) ElevationAt(lat, lon float64) (float64, error) {
	if !units.ValidLatitude(lat) {
		return 0, fmt.Errorf("latitude %.4f out of range", lat)
	}
	if lon < units.LongitudeMin || lon > units.LongitudeMax {
		return 0, fmt.Errorf("longitude %.4f out of range", lon)
	}

	// Fractional row/col of the sample in cell-center coordinates.
	fr := (90-lat)/d.cellDeg - 0.5
	fc := (lon+180)/d.cellDeg - 0.5

	r0 := int(math.Floor(fr))
	c0 := int(math.Floor(fc))
	wr := fr - float64(r0)
	wc := fc - float64(c0)

	v00 := d.at(r0, c0)
	v01 := d.at(r0, c0+1)
	v10 := d.at(r0+1, c0)
	v11 := d.at(r0+1, c0+1)

	top := v00*(1-wc) + v01*wc
	bot := v10*(1-wc) + v11*wc
	return top*(1-wr) + bot*wr, nil
}

// at reads a cell with latitude clamping and longitude wrap.
func (d *DEM) at(r, c int) float64 {
	if r < 0 {
		r = 0
	}
	if r >= d.rows {
		r = d.rows - 1
	}
	c = ((c % d.cols) + d.cols) % d.cols
	return d.data.At(r, c)
}
