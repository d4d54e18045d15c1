package compositor

import (
	"fmt"

	"github.com/meridian-obs/composite.engine/internal/recipes"
	"gonum.org/v1/gonum/mat"
)

// RGBCompositor stacks three corrected bands as the R, G and B channels of
// a true-color style image. Each channel is independently stretched onto
// [0, 1] over the configured physical reflectance range and clipped.
type RGBCompositor struct {
	opts Options
}

// Type returns the algorithm tag this implementation serves.
func (c *RGBCompositor) Type() recipes.CompositorType { return recipes.CompositorRGB }

// Compose builds the three-channel output. Required inputs are ordered
// R, G, B by the recipe.
func (c *RGBCompositor) Compose(in Inputs) (*Composite, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	channels, err := stackRGB(in, c.opts.Reflectance)
	if err != nil {
		return nil, err
	}
	return &Composite{
		Name:         in.Recipe.Name,
		StandardName: in.Recipe.StandardName,
		Channels:     channels,
	}, nil
}

// stackRGB stretches the three required bands into output channels,
// checking that they share one grid shape.
func stackRGB(in Inputs, rng Range) ([]*mat.Dense, error) {
	rows, cols := in.Required[0].Dims()
	channels := make([]*mat.Dense, 3)
	for i, b := range in.Required[:3] {
		r, c := b.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("composite %s: channel band %s is %dx%d, want %dx%d",
				in.Recipe.Name, b.Name, r, c, rows, cols)
		}
		channels[i] = stretch(b.Data, rng)
	}
	return channels, nil
}

var _ Compositor = (*RGBCompositor)(nil)
