// Package correct implements the per-pixel correction steps (modifiers)
// applied to calibrated bands before composition: sun-zenith normalization
// and Rayleigh path-reflectance removal.
//
// Correctors are pure: they read the band grid, its geometry and the
// ancillary provider, and return a new grid of identical shape. Bad
// geometry masks individual pixels; a geometry grid with no usable pixels
// at all escalates to an error so the resolver can treat the band as
// missing.
package correct

import (
	"errors"
	"fmt"

	"github.com/meridian-obs/composite.engine/internal/ancillary"
	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/recipes"
	"gonum.org/v1/gonum/mat"
)

// GeometryError indicates a geometry input invalidated an entire band
// correction (every pixel out of range). Per-pixel geometry problems are
// masked instead and never surface as errors.
type GeometryError struct {
	Band   string
	Grid   string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry %s for band %s: %s", e.Grid, e.Band, e.Reason)
}

// Corrector is one modifier implementation.
type Corrector interface {
	// Name returns the configured modifier name.
	Name() string

	// Apply corrects the band's data grid and returns a new grid of the
	// same shape. The input band is not mutated.
	Apply(b *band.Band, anc *ancillary.Provider) (*mat.Dense, error)
}

// New maps a validated modifier spec onto its implementation. The set of
// modifier types is closed; the registry rejects unknown tags at load
// time, so an unknown tag here means the spec bypassed validation.
func New(spec *recipes.ModifierSpec) (Corrector, error) {
	switch spec.Type {
	case recipes.ModifierSunZenith:
		return &SunZenithCorrector{name: spec.Name}, nil
	case recipes.ModifierRayleigh:
		return &RayleighCorrector{name: spec.Name}, nil
	default:
		return nil, fmt.Errorf("unhandled modifier type %q for %q", spec.Type, spec.Name)
	}
}

// Chain builds the ordered corrector sequence for an input's modifier
// chain.
func Chain(reg *recipes.Registry, in recipes.Input) ([]Corrector, error) {
	chain := make([]Corrector, 0, len(in.Modifiers))
	for _, name := range in.Modifiers {
		spec, err := reg.Modifier(name)
		if err != nil {
			return nil, err
		}
		c, err := New(spec)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
	return chain, nil
}

// ModifierError wraps a correction failure with the modifier that raised
// it, so callers can name the failing step in their own error types.
type ModifierError struct {
	Modifier string
	Band     string
	Err      error
}

func (e *ModifierError) Error() string {
	return fmt.Sprintf("modifier %s on band %s: %v", e.Modifier, e.Band, e.Err)
}

func (e *ModifierError) Unwrap() error { return e.Err }

// ApplyChain runs the correctors left to right, threading each output grid
// into the next step. Returns the fully corrected band.
func ApplyChain(b *band.Band, chain []Corrector, anc *ancillary.Provider) (*band.Band, error) {
	current := b
	for _, c := range chain {
		out, err := c.Apply(current, anc)
		if err != nil {
			return nil, &ModifierError{Modifier: c.Name(), Band: b.Name, Err: err}
		}
		current = current.WithData(out)
	}
	return current, nil
}

// IsAncillaryFailure reports whether err means the static ancillary data
// could not be loaded at all, as opposed to a per-band problem.
func IsAncillaryFailure(err error) bool {
	var missing *ancillary.MissingAncillaryError
	return errors.As(err, &missing)
}
