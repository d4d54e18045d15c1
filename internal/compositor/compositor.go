// Package compositor combines corrected band arrays into final composite
// products. The set of combination algorithms is closed: a direct RGB
// stack, a ratio-sharpened RGB stack, and a two-band temperature
// difference. The algorithm tag on a recipe selects the implementation via
// an explicit factory; unknown tags never reach this package because the
// recipe registry rejects them at load time.
package compositor

import (
	"fmt"

	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/recipes"
	"gonum.org/v1/gonum/mat"
)

// Range is a linear stretch interval in physical units.
type Range struct {
	Min float64
	Max float64
}

// Options carries the stretch and clip ranges shared by all compositors.
type Options struct {
	// Reflectance is the physical range mapped linearly onto [0, 1] for
	// each RGB channel.
	Reflectance Range

	// TemperatureDifference is the clip range (kelvin) for fog products.
	TemperatureDifference Range
}

// DefaultOptions returns the stock stretch ranges.
func DefaultOptions() Options {
	return Options{
		Reflectance:           Range{Min: 0, Max: 1},
		TemperatureDifference: Range{Min: -20, Max: 20},
	}
}

// Inputs is the complete, resolved input set for one composition. Optional
// slots that failed to resolve are nil; that absence drives the designed
// degradation paths rather than an error.
type Inputs struct {
	Recipe   *recipes.CompositeRecipe
	Required []*band.Band
	Optional []*band.Band
}

// validate checks the join-point contract: every required slot filled and
// slot counts matching the recipe.
func (in Inputs) validate() error {
	if in.Recipe == nil {
		return fmt.Errorf("compositor inputs missing recipe")
	}
	if len(in.Required) != len(in.Recipe.Required) {
		return fmt.Errorf("composite %s: %d required inputs, recipe wants %d", in.Recipe.Name, len(in.Required), len(in.Recipe.Required))
	}
	if len(in.Optional) != len(in.Recipe.Optional) {
		return fmt.Errorf("composite %s: %d optional slots, recipe wants %d", in.Recipe.Name, len(in.Optional), len(in.Recipe.Optional))
	}
	for i, b := range in.Required {
		if b == nil {
			return fmt.Errorf("composite %s: required input %s unresolved", in.Recipe.Name, in.Recipe.Required[i].Key())
		}
	}
	return nil
}

// Composite is a finished product: one or three channels tagged with the
// recipe's output standard name.
type Composite struct {
	Name         string
	StandardName string
	Channels     []*mat.Dense
}

// Dims returns the composite grid shape.
func (c *Composite) Dims() (rows, cols int) {
	return c.Channels[0].Dims()
}

// Compositor is one combination algorithm.
type Compositor interface {
	// Type returns the algorithm tag this implementation serves.
	Type() recipes.CompositorType

	// Compose combines the resolved inputs into a final product. Total
	// over validated inputs: with every required slot present it cannot
	// fail other than on a slot/shape contract violation.
	Compose(in Inputs) (*Composite, error)
}

// New maps an algorithm tag onto its implementation.
func New(tag recipes.CompositorType, opts Options) (Compositor, error) {
	switch tag {
	case recipes.CompositorRGB:
		return &RGBCompositor{opts: opts}, nil
	case recipes.CompositorRatioSharpenedRGB:
		return &RatioSharpenedRGB{opts: opts}, nil
	case recipes.CompositorTemperatureDifference:
		return &VIIRSFog{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unhandled compositor type %q", tag)
	}
}

// stretch maps grid values linearly from rng onto [0, 1] and clips.
// Masked pixels stay masked.
func stretch(m *mat.Dense, rng Range) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	span := rng.Max - rng.Min
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if band.IsInvalid(v) {
				out.Set(r, c, band.Invalid())
				continue
			}
			s := (v - rng.Min) / span
			if s < 0 {
				s = 0
			} else if s > 1 {
				s = 1
			}
			out.Set(r, c, s)
		}
	}
	return out
}

// clip clamps grid values into rng, leaving masked pixels masked.
func clip(m *mat.Dense, rng Range) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if band.IsInvalid(v) {
				out.Set(r, c, band.Invalid())
				continue
			}
			if v < rng.Min {
				v = rng.Min
			} else if v > rng.Max {
				v = rng.Max
			}
			out.Set(r, c, v)
		}
	}
	return out
}
