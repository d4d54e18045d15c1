package compositor

import (
	"fmt"

	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/recipes"
	"gonum.org/v1/gonum/mat"
)

// fogStandardName tags fog products when the recipe leaves the output
// label unset.
const fogStandardName = "temperature_difference"

// VIIRSFog produces a single-channel brightness-temperature difference:
// first required band minus second, clipped to the configured physically
// plausible range.
type VIIRSFog struct {
	opts Options
}

// Type returns the algorithm tag this implementation serves.
func (c *VIIRSFog) Type() recipes.CompositorType {
	return recipes.CompositorTemperatureDifference
}

// Compose subtracts the two required bands pixel by pixel.
func (c *VIIRSFog) Compose(in Inputs) (*Composite, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a, b := in.Required[0], in.Required[1]
	rows, cols := a.Dims()
	if br, bc := b.Dims(); br != rows || bc != cols {
		return nil, fmt.Errorf("composite %s: band %s is %dx%d, band %s is %dx%d",
			in.Recipe.Name, a.Name, rows, cols, b.Name, br, bc)
	}

	diff := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			va, vb := a.Data.At(r, col), b.Data.At(r, col)
			if band.IsInvalid(va) || band.IsInvalid(vb) {
				diff.Set(r, col, band.Invalid())
				continue
			}
			diff.Set(r, col, va-vb)
		}
	}

	label := in.Recipe.StandardName
	if label == "" {
		label = fogStandardName
	}
	return &Composite{
		Name:         in.Recipe.Name,
		StandardName: label,
		Channels:     []*mat.Dense{clip(diff, c.opts.TemperatureDifference)},
	}, nil
}

var _ Compositor = (*VIIRSFog)(nil)
