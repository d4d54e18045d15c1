// Package render turns resolved composites into output imagery: 8-bit PNG
// encoding for finished products and heat-map plots for band diagnostics.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/compositor"
	"gonum.org/v1/gonum/mat"
)

// WritePNG encodes a composite as an 8-bit PNG at path. Three-channel
// composites become color images with masked pixels fully transparent;
// single-channel composites become grayscale, normalized over the valid
// value range.
func WritePNG(path string, c *compositor.Composite) error {
	var img image.Image
	switch len(c.Channels) {
	case 3:
		img = encodeColor(c.Channels)
	case 1:
		img = encodeGray(c.Channels[0])
	default:
		return fmt.Errorf("composite %s has %d channels, want 1 or 3", c.Name, len(c.Channels))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// encodeColor maps three stretched [0,1] channels onto NRGBA.
func encodeColor(channels []*mat.Dense) image.Image {
	rows, cols := channels[0].Dims()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			red := channels[0].At(r, c)
			green := channels[1].At(r, c)
			blue := channels[2].At(r, c)
			if band.IsInvalid(red) || band.IsInvalid(green) || band.IsInvalid(blue) {
				img.SetNRGBA(c, r, color.NRGBA{})
				continue
			}
			img.SetNRGBA(c, r, color.NRGBA{
				R: to8bit(red),
				G: to8bit(green),
				B: to8bit(blue),
				A: 255,
			})
		}
	}
	return img
}

// encodeGray normalizes a single physical-unit channel over its valid
// range and maps it onto 8-bit gray. Masked pixels render black.
func encodeGray(channel *mat.Dense) image.Image {
	rows, cols := channel.Dims()
	lo, hi := math.Inf(1), math.Inf(-1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := channel.At(r, c)
			if band.IsInvalid(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	span := hi - lo
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := channel.At(r, c)
			if band.IsInvalid(v) || span <= 0 {
				img.SetGray(c, r, color.Gray{})
				continue
			}
			img.SetGray(c, r, color.Gray{Y: to8bit((v - lo) / span)})
		}
	}
	return img
}

// to8bit maps a [0,1] value onto 0..255 with clamping.
func to8bit(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
