// Package ancillary loads and serves the static correction inputs: the
// global digital elevation model and the Rayleigh path-reflectance
// coefficient table. Both are loaded exactly once per process behind a
// blocking gate; after that every lookup is a lock-free read of immutable
// data.
package ancillary

import (
	"fmt"
	"sync"

	"github.com/meridian-obs/composite.engine/internal/fbf"
	"github.com/meridian-obs/composite.engine/internal/monitoring"
)

// MissingAncillaryError indicates a required static data set could not be
// loaded. Fatal to any resolution request that needs Rayleigh correction.
type MissingAncillaryError struct {
	Resource string
	Err      error
}

func (e *MissingAncillaryError) Error() string {
	return fmt.Sprintf("ancillary data %s unavailable: %v", e.Resource, e.Err)
}

func (e *MissingAncillaryError) Unwrap() error { return e.Err }

// Provider is the read-only context object handed to every correction
// call. Construct one per process with NewProvider (file-backed, lazy) or
// NewStaticProvider (pre-built data, used by tests).
type Provider struct {
	demPath  string
	coefPath string

	once  sync.Once
	dem   *DEM
	table *RayleighTable
	err   error
}

// NewProvider creates a provider that loads the DEM (a real4 flat binary
// raster) and the coefficient table (JSON) on first use.
func NewProvider(demPath, coefPath string) *Provider {
	return &Provider{demPath: demPath, coefPath: coefPath}
}

// NewStaticProvider wraps already-built ancillary data.
func NewStaticProvider(dem *DEM, table *RayleighTable) *Provider {
	p := &Provider{dem: dem, table: table}
	p.once.Do(func() {})
	return p
}

// load runs the one-time initialization. Concurrent callers block on the
// first loader; the outcome (including failure) is sticky.
func (p *Provider) load() error {
	p.once.Do(func() {
		grid, err := fbf.Read(p.demPath)
		if err != nil {
			p.err = &MissingAncillaryError{Resource: "dem", Err: err}
			return
		}
		dem, err := NewDEM(grid)
		if err != nil {
			p.err = &MissingAncillaryError{Resource: "dem", Err: err}
			return
		}
		table, err := LoadRayleighTable(p.coefPath)
		if err != nil {
			p.err = &MissingAncillaryError{Resource: "rayleigh_coefficients", Err: err}
			return
		}
		p.dem = dem
		p.table = table
		rows, cols := dem.data.Dims()
		monitoring.Logf("[Ancillary] Loaded DEM %dx%d and coefficient table (%d values)", rows, cols, len(table.Values))
	})
	return p.err
}

// Elevation returns the terrain height in meters at (lat, lon).
func (p *Provider) Elevation(lat, lon float64) (float64, error) {
	if err := p.load(); err != nil {
		return 0, err
	}
	return p.dem.ElevationAt(lat, lon)
}

// RayleighCoefficient returns the interpolated atmospheric path reflectance
// for the given viewing geometry and elevation.
func (p *Provider) RayleighCoefficient(satZen, satAzi, sunZen, sunAzi, elevation float64) (float64, error) {
	if err := p.load(); err != nil {
		return 0, err
	}
	return p.table.Coefficient(satZen, satAzi, sunZen, sunAzi, elevation)
}
