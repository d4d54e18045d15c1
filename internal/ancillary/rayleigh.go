package ancillary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/meridian-obs/composite.engine/internal/units"
)

// RayleighTable holds precomputed atmospheric path-reflectance coefficients
// on a regular 4-D grid over sun zenith, satellite zenith, relative azimuth
// (all degrees) and surface elevation (meters). Lookups interpolate
// multilinearly and clamp outside the tabulated range.
type RayleighTable struct {
	SunZenith  []float64 `json:"sun_zenith"`
	SatZenith  []float64 `json:"sat_zenith"`
	RelAzimuth []float64 `json:"rel_azimuth"`
	Elevation  []float64 `json:"elevation"`

	// Values is the flattened coefficient grid, elevation varying fastest:
	// index = ((i*len(SatZenith)+j)*len(RelAzimuth)+k)*len(Elevation)+l.
	Values []float64 `json:"values"`
}

// LoadRayleighTable reads a coefficient table from a JSON file.
func LoadRayleighTable(path string) (*RayleighTable, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("coefficient table must have .json extension, got %q", ext)
	}
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read coefficient table: %w", err)
	}
	var t RayleighTable
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse coefficient table %s: %w", cleanPath, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("coefficient table %s: %w", cleanPath, err)
	}
	return &t, nil
}

// Validate checks axis monotonicity and the value grid size.
func (t *RayleighTable) Validate() error {
	axes := map[string][]float64{
		"sun_zenith":  t.SunZenith,
		"sat_zenith":  t.SatZenith,
		"rel_azimuth": t.RelAzimuth,
		"elevation":   t.Elevation,
	}
	for name, axis := range axes {
		if len(axis) == 0 {
			return fmt.Errorf("empty %s axis", name)
		}
		if !sort.Float64sAreSorted(axis) {
			return fmt.Errorf("%s axis is not ascending", name)
		}
	}
	want := len(t.SunZenith) * len(t.SatZenith) * len(t.RelAzimuth) * len(t.Elevation)
	if len(t.Values) != want {
		return fmt.Errorf("value grid has %d entries, axes want %d", len(t.Values), want)
	}
	return nil
}

// Coefficient returns the interpolated path reflectance for the given
// viewing geometry and surface elevation. Azimuths are reduced to a
// relative azimuth in [0, 180].
func (t *RayleighTable) Coefficient(satZen, satAzi, sunZen, sunAzi, elevation float64) (float64, error) {
	if satZen < 0 || sunZen < 0 {
		return 0, fmt.Errorf("negative zenith angle (sat %.2f, sun %.2f)", satZen, sunZen)
	}
	relAzi := relativeAzimuth(satAzi, sunAzi)

	i0, wi := axisLocate(t.SunZenith, sunZen)
	j0, wj := axisLocate(t.SatZenith, satZen)
	k0, wk := axisLocate(t.RelAzimuth, relAzi)
	l0, wl := axisLocate(t.Elevation, elevation)

	var v float64
	for di := 0; di < 2; di++ {
		for dj := 0; dj < 2; dj++ {
			for dk := 0; dk < 2; dk++ {
				for dl := 0; dl < 2; dl++ {
					w := weight(wi, di) * weight(wj, dj) * weight(wk, dk) * weight(wl, dl)
					if w == 0 {
						continue
					}
					v += w * t.at(i0+di, j0+dj, k0+dk, l0+dl)
				}
			}
		}
	}
	return v, nil
}

func (t *RayleighTable) at(i, j, k, l int) float64 {
	i = clampIndex(i, len(t.SunZenith))
	j = clampIndex(j, len(t.SatZenith))
	k = clampIndex(k, len(t.RelAzimuth))
	l = clampIndex(l, len(t.Elevation))
	idx := ((i*len(t.SatZenith)+j)*len(t.RelAzimuth)+k)*len(t.Elevation) + l
	return t.Values[idx]
}

// relativeAzimuth folds two azimuths into their absolute difference on
// [0, 180].
func relativeAzimuth(a, b float64) float64 {
	return units.WrapAzimuthDelta(a - b)
}

// axisLocate finds the lower bracketing index and interpolation weight for
// v on an ascending axis, clamping outside the range.
func axisLocate(axis []float64, v float64) (int, float64) {
	n := len(axis)
	if n == 1 || v <= axis[0] {
		return 0, 0
	}
	if v >= axis[n-1] {
		return n - 2, 1
	}
	i := sort.SearchFloat64s(axis, v)
	if axis[i] == v {
		return i, 0
	}
	i--
	return i, (v - axis[i]) / (axis[i+1] - axis[i])
}

func weight(w float64, d int) float64 {
	if d == 0 {
		return 1 - w
	}
	return w
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
