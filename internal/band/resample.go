package band

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BilinearResample interpolates src onto a rows x cols grid. The corner
// pixels of src map exactly onto the corner pixels of the output, so
// resampling to the source shape is the identity. Any masked source pixel
// masks every output pixel it contributes to.
func BilinearResample(src *mat.Dense, rows, cols int) (*mat.Dense, error) {
	srcRows, srcCols := src.Dims()
	if srcRows < 1 || srcCols < 1 {
		return nil, fmt.Errorf("resample: empty source grid")
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("resample: invalid target shape %dx%d", rows, cols)
	}

	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		fr := gridCoord(r, rows, srcRows)
		r0 := int(fr)
		r1 := r0 + 1
		if r1 >= srcRows {
			r1 = srcRows - 1
		}
		wr := fr - float64(r0)

		for c := 0; c < cols; c++ {
			fc := gridCoord(c, cols, srcCols)
			c0 := int(fc)
			c1 := c0 + 1
			if c1 >= srcCols {
				c1 = srcCols - 1
			}
			wc := fc - float64(c0)

			v00 := src.At(r0, c0)
			v01 := src.At(r0, c1)
			v10 := src.At(r1, c0)
			v11 := src.At(r1, c1)

			top := v00*(1-wc) + v01*wc
			bot := v10*(1-wc) + v11*wc
			out.Set(r, c, top*(1-wr)+bot*wr)
		}
	}
	return out, nil
}

// gridCoord maps output index i on a grid of outDim samples to a fractional
// source index on a grid of srcDim samples, corner-aligned.
func gridCoord(i, outDim, srcDim int) float64 {
	if outDim == 1 || srcDim == 1 {
		return 0
	}
	return float64(i) * float64(srcDim-1) / float64(outDim-1)
}
