package fbf

import (
	"fmt"
	"sync"

	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/monitoring"
	"gonum.org/v1/gonum/mat"
)

// Geometry file stems, one set per resolution class.
const (
	stemSatelliteZenith  = "satellite_zenith"
	stemSatelliteAzimuth = "satellite_azimuth"
	stemSolarZenith      = "solar_zenith"
	stemSolarAzimuth     = "solar_azimuth"
	stemLatitude         = "latitude"
	stemLongitude        = "longitude"
)

// bandStemPrefix prefixes band data file stems, e.g. image_m05.real4.3200.3200.
const bandStemPrefix = "image_"

// SceneProvider serves calibrated bands from a directory of flat binary
// files. Band data lives in image_<name> files; each resolution class has
// its own set of geometry files suffixed _low or _high. Geometry bundles
// are loaded once on first use and shared across fetches.
type SceneProvider struct {
	dir string

	mu      sync.Mutex
	bundles map[band.Resolution]*band.GeometryBundle
	shapes  map[band.Resolution][2]int
}

// NewSceneProvider creates a provider over a scene directory.
func NewSceneProvider(dir string) *SceneProvider {
	return &SceneProvider{
		dir:     dir,
		bundles: make(map[band.Resolution]*band.GeometryBundle),
		shapes:  make(map[band.Resolution][2]int),
	}
}

// geometry loads (or returns the cached) geometry bundle for a resolution
// class. Missing bundles are cached as nil so the directory is probed once.
func (p *SceneProvider) geometry(res band.Resolution) (*band.GeometryBundle, [2]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bundle, ok := p.bundles[res]; ok {
		if bundle == nil {
			return nil, [2]int{}, fmt.Errorf("%w: geometry for %s resolution in %s", ErrNotFound, res, p.dir)
		}
		return bundle, p.shapes[res], nil
	}

	suffix := "_" + res.String()
	grids := make(map[string]*mat.Dense, 6)
	for _, stem := range []string{
		stemSatelliteZenith, stemSatelliteAzimuth,
		stemSolarZenith, stemSolarAzimuth,
		stemLatitude, stemLongitude,
	} {
		grid, err := ReadStem(p.dir, stem+suffix)
		if err != nil {
			p.bundles[res] = nil
			return nil, [2]int{}, fmt.Errorf("geometry %s%s: %w", stem, suffix, err)
		}
		grids[stem] = grid
	}

	bundle := &band.GeometryBundle{
		SatelliteZenith:  grids[stemSatelliteZenith],
		SatelliteAzimuth: grids[stemSatelliteAzimuth],
		SolarZenith:      grids[stemSolarZenith],
		SolarAzimuth:     grids[stemSolarAzimuth],
		Latitude:         grids[stemLatitude],
		Longitude:        grids[stemLongitude],
	}
	rows, cols := bundle.SolarZenith.Dims()
	p.bundles[res] = bundle
	p.shapes[res] = [2]int{rows, cols}
	monitoring.Logf("[SceneProvider] Loaded %s geometry bundle (%dx%d) from %s", res, rows, cols, p.dir)
	return bundle, [2]int{rows, cols}, nil
}

// Fetch loads the named band and pairs it with the geometry bundle for its
// resolution class. A band whose grid shape equals the high-resolution
// geometry shape is classified high; otherwise it must be compatible with
// the low-resolution bundle.
func (p *SceneProvider) Fetch(name string) (*band.Band, error) {
	data, err := ReadStem(p.dir, bandStemPrefix+name)
	if err != nil {
		return nil, err
	}
	rows, cols := data.Dims()

	if bundle, shape, err := p.geometry(band.ResolutionHigh); err == nil {
		if shape[0] == rows && shape[1] == cols {
			b := &band.Band{Name: name, Resolution: band.ResolutionHigh, Data: data, Geometry: bundle}
			if err := b.Validate(); err != nil {
				return nil, err
			}
			return b, nil
		}
	}

	bundle, _, err := p.geometry(band.ResolutionLow)
	if err != nil {
		return nil, err
	}
	b := &band.Band{Name: name, Resolution: band.ResolutionLow, Data: data, Geometry: bundle}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
