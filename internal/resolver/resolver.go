// Package resolver walks a composite recipe's dependency graph: it fetches
// the raw bands each input needs, drives the correction chains, and hands
// the completed input set to the compositor. Independent inputs resolve in
// parallel; results are memoized per request so a band shared by several
// chains is fetched and corrected at most once. A required input failure
// aborts the request with a typed error and cancels in-flight work; an
// optional failure degrades the composite and surfaces as a warning.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-obs/composite.engine/internal/ancillary"
	"github.com/meridian-obs/composite.engine/internal/band"
	"github.com/meridian-obs/composite.engine/internal/compositor"
	"github.com/meridian-obs/composite.engine/internal/correct"
	"github.com/meridian-obs/composite.engine/internal/monitoring"
	"github.com/meridian-obs/composite.engine/internal/recipes"
	"github.com/meridian-obs/composite.engine/internal/timeutil"
)

// BandProvider supplies raw calibrated bands with their geometry. External
// collaborator; fetch failures on required bands become MissingBandErrors.
type BandProvider interface {
	Fetch(name string) (*band.Band, error)
}

// Warning records a non-fatal degradation: an optional input that did not
// resolve.
type Warning struct {
	Input recipes.Input
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("optional input %s unavailable: %v", w.Input.Key(), w.Err)
}

// Result is the outcome of one resolution request.
type Result struct {
	RequestID uuid.UUID
	Composite *compositor.Composite
	Warnings  []Warning
	State     State
	Duration  time.Duration
}

// OutputLabel returns the resolved composite's standard name.
func (r *Result) OutputLabel() string {
	if r.Composite == nil {
		return ""
	}
	return r.Composite.StandardName
}

// Config tunes a resolver.
type Config struct {
	// Workers bounds the number of concurrent fetch-and-correct
	// goroutines. Zero or negative means no limit.
	Workers int

	// Compositor carries the stretch and clip ranges.
	Compositor compositor.Options
}

// DefaultConfig returns the stock resolver configuration.
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		Compositor: compositor.DefaultOptions(),
	}
}

// Resolver resolves composite names against one recipe registry, band
// provider and ancillary provider.
type Resolver struct {
	registry *recipes.Registry
	provider BandProvider
	anc      *ancillary.Provider
	cfg      Config
	clock    timeutil.Clock
}

// New creates a resolver.
func New(registry *recipes.Registry, provider BandProvider, anc *ancillary.Provider, cfg Config) *Resolver {
	return &Resolver{registry: registry, provider: provider, anc: anc, cfg: cfg, clock: timeutil.RealClock{}}
}

// node is one (band, chain) vertex of the expanded dependency graph.
type node struct {
	input    recipes.Input
	critical bool // reachable from a required slot
}

// graph is the expanded input set for one recipe.
type graph struct {
	order    []recipes.Input
	index    map[string]int  // input key -> position in order
	critical map[string]bool // input key -> criticality
	bands    map[string]bool // band name -> criticality
}

// expand walks the recipe's inputs through modifier band prerequisites,
// deduplicating nodes and detecting cycles. Re-entering a node already on
// the active path is a configuration error.
func (r *Resolver) expand(recipe *recipes.CompositeRecipe) (*graph, error) {
	g := &graph{
		index:    make(map[string]int),
		critical: make(map[string]bool),
		bands:    make(map[string]bool),
	}
	for _, in := range recipe.Required {
		if err := r.walk(recipe.Name, in, true, nil, g); err != nil {
			return nil, err
		}
	}
	for _, in := range recipe.Optional {
		if err := r.walk(recipe.Name, in, false, nil, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (r *Resolver) walk(owner string, in recipes.Input, critical bool, path []string, g *graph) error {
	key := in.Key()
	for _, active := range path {
		if active == key {
			return &recipes.ConfigError{
				Name:   owner,
				Reason: "cyclic modifier chain",
				Cycle:  append(append([]string{}, path...), key),
			}
		}
	}

	seen := false
	if _, ok := g.index[key]; ok {
		seen = true
		if !critical || g.critical[key] {
			// Nothing to upgrade; prerequisites were already walked.
			return nil
		}
	}
	if !seen {
		g.index[key] = len(g.order)
		g.order = append(g.order, in)
	}
	g.critical[key] = g.critical[key] || critical
	g.bands[in.Band] = g.bands[in.Band] || critical

	path = append(path, key)
	for _, name := range in.Modifiers {
		spec, err := r.registry.Modifier(name)
		if err != nil {
			return err
		}
		for _, req := range spec.Requires {
			if err := r.walk(owner, req, critical, path, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve is the public entry point: it resolves the named composite into
// a finished product, or a typed error (ConfigError, MissingBandError,
// MissingAncillaryError).
func (r *Resolver) Resolve(ctx context.Context, name string) (*Result, error) {
	started := r.clock.Now()
	res := &Result{RequestID: uuid.New(), State: StateUnresolved}

	recipe, err := r.registry.Composite(name)
	if err != nil {
		return r.fail(res, started, err)
	}
	g, err := r.expand(recipe)
	if err != nil {
		return r.fail(res, started, err)
	}

	a := newArena()
	var mu sync.Mutex
	absentBands := make(map[string]error) // raw fetch failures on optional-only bands

	recordAbsent := func(in recipes.Input, cause error) {
		mu.Lock()
		defer mu.Unlock()
		res.Warnings = append(res.Warnings, Warning{Input: in, Err: cause})
	}

	// Phase 1: fetch every distinct raw band in parallel. A fetch failure
	// on a band any required slot needs cancels the group.
	eg, gctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		eg.SetLimit(r.cfg.Workers)
	}
	for bandName, critical := range g.bands {
		bandName, critical := bandName, critical
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := a.fetch(bandName, func() (*band.Band, error) {
				return r.provider.Fetch(bandName)
			})
			if err == nil {
				return nil
			}
			if critical {
				return &MissingBandError{Band: bandName, Err: err}
			}
			// Only the input keys warn; a raw band can back several
			// inputs and would duplicate the message.
			mu.Lock()
			absentBands[bandName] = err
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return r.fail(res, started, err)
	}
	res.State = StateBandsFetched

	// Phase 2: apply the correction chains, one worker per distinct
	// (band, chain) node.
	eg, gctx = errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		eg.SetLimit(r.cfg.Workers)
	}
	for _, in := range g.order {
		in := in
		key := in.Key()
		critical := g.critical[key]
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			cause, bandAbsent := absentBands[in.Band]
			mu.Unlock()
			if bandAbsent {
				recordAbsent(in, fmt.Errorf("band %s not fetched: %w", in.Band, cause))
				return nil
			}
			_, err := a.correct(key, func() (*band.Band, error) {
				raw, err := a.fetch(in.Band, func() (*band.Band, error) {
					return r.provider.Fetch(in.Band)
				})
				if err != nil {
					return nil, err
				}
				chain, err := correct.Chain(r.registry, in)
				if err != nil {
					return nil, err
				}
				return correct.ApplyChain(raw, chain, r.anc)
			})
			if err == nil {
				return nil
			}
			if critical {
				return asMissingBand(in.Band, err)
			}
			recordAbsent(in, err)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return r.fail(res, started, err)
	}
	res.State = StateModifiersApplied

	// Phase 3: join point. Every required slot must be present; optional
	// slots are passed as nil where absent.
	inputs := compositor.Inputs{Recipe: recipe}
	for _, in := range recipe.Required {
		b, ok := a.corrected(in.Key())
		if !ok {
			return r.fail(res, started, &MissingBandError{Band: in.Band, Err: fmt.Errorf("input %s unresolved", in.Key())})
		}
		inputs.Required = append(inputs.Required, b)
	}
	for _, in := range recipe.Optional {
		b, ok := a.corrected(in.Key())
		if !ok {
			inputs.Optional = append(inputs.Optional, nil)
			continue
		}
		inputs.Optional = append(inputs.Optional, b)
	}

	comp, err := compositor.New(recipe.Compositor, r.cfg.Compositor)
	if err != nil {
		return r.fail(res, started, err)
	}
	out, err := comp.Compose(inputs)
	if err != nil {
		return r.fail(res, started, err)
	}
	res.State = StateComposited

	res.Composite = out
	res.State = StateFinalized
	res.Duration = r.clock.Since(started)

	for _, w := range res.Warnings {
		monitoring.Logf("[Resolver] request=%s composite=%s degraded: %s", res.RequestID, name, w)
	}
	monitoring.Logf("[Resolver] request=%s composite=%s resolved in %s (%d warnings)",
		res.RequestID, name, res.Duration, len(res.Warnings))
	return res, nil
}

// fail marks the request failed (where the state machine allows it) and
// returns the typed error.
func (r *Resolver) fail(res *Result, started time.Time, err error) (*Result, error) {
	prior := res.State
	if prior.canFail() {
		res.State = StateFailed
	}
	res.Duration = r.clock.Since(started)
	monitoring.Logf("[Resolver] request=%s failed (state %s): %v", res.RequestID, prior, err)
	return res, err
}

// asMissingBand wraps a correction failure into a MissingBandError,
// pulling out the failing modifier name when one is known.
func asMissingBand(bandName string, err error) error {
	var modErr *correct.ModifierError
	if errors.As(err, &modErr) {
		return &MissingBandError{Band: bandName, Modifier: modErr.Modifier, Err: modErr.Err}
	}
	return &MissingBandError{Band: bandName, Err: err}
}
