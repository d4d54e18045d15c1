// Package recipes parses declarative composite and modifier definitions
// into an in-memory dependency graph consulted by the band resolver.
//
// A recipe file is YAML, one per sensor: a modifiers section mapping
// modifier name to its type tag and prerequisites, and a composites
// section mapping composite name to a combination algorithm, required and
// optional band inputs, and an output standard name. Validation happens at
// load time; a malformed entry is rejected with a ConfigError while the
// rest of the file stays usable.
package recipes

import (
	"fmt"
	"strings"
)

// ModifierType identifies a correction algorithm. Closed set: unknown tags
// are rejected at load time.
type ModifierType string

const (
	// ModifierSunZenith divides reflectance by the cosine of the solar
	// zenith angle.
	ModifierSunZenith ModifierType = "sunz"

	// ModifierRayleigh subtracts interpolated atmospheric path reflectance.
	ModifierRayleigh ModifierType = "rayleigh"
)

// IsValid returns true if the modifier type is a known valid value.
func (t ModifierType) IsValid() bool {
	switch t {
	case ModifierSunZenith, ModifierRayleigh:
		return true
	default:
		return false
	}
}

// CompositorType identifies a combination algorithm. Closed set.
type CompositorType string

const (
	// CompositorRGB stacks three corrected bands as R, G, B.
	CompositorRGB CompositorType = "rgb"

	// CompositorRatioSharpenedRGB sharpens an RGB stack with an optional
	// high-resolution band.
	CompositorRatioSharpenedRGB CompositorType = "ratio_sharpened_rgb"

	// CompositorTemperatureDifference outputs the difference of two
	// brightness-temperature bands.
	CompositorTemperatureDifference CompositorType = "temperature_difference"
)

// IsValid returns true if the compositor type is a known valid value.
func (t CompositorType) IsValid() bool {
	switch t {
	case CompositorRGB, CompositorRatioSharpenedRGB, CompositorTemperatureDifference:
		return true
	default:
		return false
	}
}

// Input names one band together with the ordered modifier chain to apply
// before use.
type Input struct {
	Band      string   `yaml:"band"`
	Modifiers []string `yaml:"modifiers,omitempty"`
}

// Key returns the memoization identity of the input: band name plus the
// exact modifier chain. Two inputs with the same key always yield the same
// corrected array within one resolution request.
func (in Input) Key() string {
	if len(in.Modifiers) == 0 {
		return in.Band
	}
	return in.Band + "|" + strings.Join(in.Modifiers, ",")
}

func (in Input) String() string { return in.Key() }

// ModifierSpec declares one named correction step.
type ModifierSpec struct {
	Name string
	Type ModifierType

	// Geometry lists the per-pixel grids this correction reads, e.g.
	// "solar_zenith". Correctors receive the full geometry bundle; the
	// list declares the dependency and is checked against the bundle's
	// grid names at load time.
	Geometry []string

	// Requires lists band inputs resolved before this modifier runs.
	Requires []Input
}

// geometryGridNames is the closed set of grids a geometry bundle carries.
var geometryGridNames = map[string]bool{
	"satellite_zenith":  true,
	"satellite_azimuth": true,
	"solar_zenith":      true,
	"solar_azimuth":     true,
	"latitude":          true,
	"longitude":         true,
}

// CompositeRecipe declares one named composite product.
type CompositeRecipe struct {
	Name         string
	Compositor   CompositorType
	StandardName string
	Required     []Input
	Optional     []Input

	// HighResolutionBand names the color slot ("red", "green" or "blue")
	// that the optional sharpening band replaces at full resolution. Only
	// meaningful for ratio-sharpened compositors.
	HighResolutionBand string
}

// ConfigError reports a malformed or unresolvable recipe entry. Raised at
// load time (bad definition) or lookup time (unknown composite name).
type ConfigError struct {
	Name   string // offending modifier or composite name
	Reason string
	Cycle  []string // populated for cyclic chain rejections
}

func (e *ConfigError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("recipe config %q: %s (cycle: %s)", e.Name, e.Reason, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("recipe config %q: %s", e.Name, e.Reason)
}
