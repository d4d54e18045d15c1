package resolver

import (
	"sync"

	"github.com/meridian-obs/composite.engine/internal/band"
	"golang.org/x/sync/singleflight"
)

// arena is the memoization table for one resolution request. Raw fetches
// are keyed by band name and corrections by the full (band, chain) input
// key; singleflight guarantees a single writer per key, with concurrent
// readers blocking until the first writer completes. The arena lives and
// dies with its request so a later request never observes stale ancillary
// corrections.
type arena struct {
	flight singleflight.Group

	mu      sync.Mutex
	fetched map[string]*band.Band
	applied map[string]*band.Band
}

func newArena() *arena {
	return &arena{
		fetched: make(map[string]*band.Band),
		applied: make(map[string]*band.Band),
	}
}

// fetch returns the raw band for name, invoking fn at most once per name.
func (a *arena) fetch(name string, fn func() (*band.Band, error)) (*band.Band, error) {
	v, err, _ := a.flight.Do("fetch:"+name, func() (interface{}, error) {
		a.mu.Lock()
		if b, ok := a.fetched[name]; ok {
			a.mu.Unlock()
			return b, nil
		}
		a.mu.Unlock()

		b, err := fn()
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.fetched[name] = b
		a.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*band.Band), nil
}

// correct returns the corrected band for an input key, invoking fn at most
// once per key.
func (a *arena) correct(key string, fn func() (*band.Band, error)) (*band.Band, error) {
	v, err, _ := a.flight.Do("correct:"+key, func() (interface{}, error) {
		a.mu.Lock()
		if b, ok := a.applied[key]; ok {
			a.mu.Unlock()
			return b, nil
		}
		a.mu.Unlock()

		b, err := fn()
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.applied[key] = b
		a.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*band.Band), nil
}

// corrected returns the memoized corrected band for key, if present.
func (a *arena) corrected(key string) (*band.Band, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.applied[key]
	return b, ok
}
