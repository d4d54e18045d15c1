package compositor

import (
	"fmt"
	"math"

	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/recipes"
	"gonum.org/v1/gonum/mat"
)

// ratioDenominatorFloor guards the sharpening ratio against division by a
// near-zero reference reflectance.
const ratioDenominatorFloor = 1e-9

// RatioSharpenedRGB builds an RGB stack at the low-resolution grid and,
// when the optional high-resolution band resolved, sharpens it: the low
// resolution channels are upsampled bilinearly to the high-resolution
// grid and every channel is multiplied by the per-pixel ratio of the
// high-resolution band to the upsampled reference channel. Without the
// sharpening band the plain RGB stack is the designed fallback output,
// not an error.
type RatioSharpenedRGB struct {
	opts Options
}

// Type returns the algorithm tag this implementation serves.
func (c *RatioSharpenedRGB) Type() recipes.CompositorType {
	return recipes.CompositorRatioSharpenedRGB
}

// Compose builds the sharpened (or fallback) three-channel output.
func (c *RatioSharpenedRGB) Compose(in Inputs) (*Composite, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sharp := in.Optional[0]
	if sharp == nil {
		// Degradation path: no sharpening band, plain RGB at low resolution.
		plain := RGBCompositor{opts: c.opts}
		return plain.Compose(in)
	}

	refIdx, err := colorSlotIndex(in.Recipe.HighResolutionBand)
	if err != nil {
		return nil, fmt.Errorf("composite %s: %w", in.Recipe.Name, err)
	}

	highRows, highCols := sharp.Dims()

	// Upsample the raw channel grids to the high-resolution grid. The
	// ratio is computed in physical units so the later stretch stays a
	// plain linear map.
	upsampled := make([]*mat.Dense, 3)
	for i, b := range in.Required[:3] {
		up, err := band.BilinearResample(b.Data, highRows, highCols)
		if err != nil {
			return nil, fmt.Errorf("composite %s: upsample band %s: %w", in.Recipe.Name, b.Name, err)
		}
		upsampled[i] = up
	}

	channels := make([]*mat.Dense, 3)
	for i := range channels {
		channels[i] = mat.NewDense(highRows, highCols, nil)
	}
	for r := 0; r < highRows; r++ {
		for col := 0; col < highCols; col++ {
			ref := upsampled[refIdx].At(r, col)
			hi := sharp.Data.At(r, col)
			if band.IsInvalid(ref) || band.IsInvalid(hi) || math.Abs(ref) < ratioDenominatorFloor {
				for i := range channels {
					channels[i].Set(r, col, band.Invalid())
				}
				continue
			}
			ratio := hi / ref
			for i := range channels {
				channels[i].Set(r, col, upsampled[i].At(r, col)*ratio)
			}
		}
	}

	for i := range channels {
		channels[i] = stretch(channels[i], c.opts.Reflectance)
	}
	return &Composite{
		Name:         in.Recipe.Name,
		StandardName: in.Recipe.StandardName,
		Channels:     channels,
	}, nil
}

// colorSlotIndex maps a color slot name onto its channel index.
func colorSlotIndex(slot string) (int, error) {
	switch slot {
	case "red":
		return 0, nil
	case "green":
		return 1, nil
	case "blue":
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown color slot %q", slot)
	}
}

var _ Compositor = (*RatioSharpenedRGB)(nil)
