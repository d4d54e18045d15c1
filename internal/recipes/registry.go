package recipes

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-obs/composite.engine/internal/monitoring"
	"gopkg.in/yaml.v3"
)

// Registry holds the validated modifier and composite definitions for one
// sensor. Populated at load time, read-only afterwards.
type Registry struct {
	Sensor string

	modifiers  map[string]*ModifierSpec
	composites map[string]*CompositeRecipe
}

// NewRegistry creates an empty registry for a sensor.
func NewRegistry(sensor string) *Registry {
	return &Registry{
		Sensor:     sensor,
		modifiers:  make(map[string]*ModifierSpec),
		composites: make(map[string]*CompositeRecipe),
	}
}

// Modifier returns the named modifier spec.
func (r *Registry) Modifier(name string) (*ModifierSpec, error) {
	m, ok := r.modifiers[name]
	if !ok {
		return nil, &ConfigError{Name: name, Reason: "unknown modifier"}
	}
	return m, nil
}

// Composite returns the named composite recipe.
func (r *Registry) Composite(name string) (*CompositeRecipe, error) {
	c, ok := r.composites[name]
	if !ok {
		return nil, &ConfigError{Name: name, Reason: "unknown composite"}
	}
	return c, nil
}

// Composites returns the names of all registered composites.
func (r *Registry) Composites() []string {
	names := make([]string, 0, len(r.composites))
	for name := range r.composites {
		names = append(names, name)
	}
	return names
}

// AddModifier validates and registers a modifier spec.
func (r *Registry) AddModifier(spec *ModifierSpec) error {
	if spec.Name == "" {
		return &ConfigError{Name: spec.Name, Reason: "modifier has empty name"}
	}
	if !spec.Type.IsValid() {
		return &ConfigError{Name: spec.Name, Reason: fmt.Sprintf("unknown modifier type %q", spec.Type)}
	}
	for _, grid := range spec.Geometry {
		if !geometryGridNames[grid] {
			return &ConfigError{Name: spec.Name, Reason: fmt.Sprintf("unknown geometry grid %q", grid)}
		}
	}
	if _, ok := r.modifiers[spec.Name]; ok {
		return &ConfigError{Name: spec.Name, Reason: "duplicate modifier name"}
	}
	r.modifiers[spec.Name] = spec
	return nil
}

// AddComposite validates and registers a composite recipe. Validation
// covers the compositor tag, modifier references, input arity for the
// chosen algorithm, chain ordering and chain cycles. On error the recipe
// is not registered; previously registered entries are untouched.
func (r *Registry) AddComposite(recipe *CompositeRecipe) error {
	if recipe.Name == "" {
		return &ConfigError{Name: recipe.Name, Reason: "composite has empty name"}
	}
	if _, ok := r.composites[recipe.Name]; ok {
		return &ConfigError{Name: recipe.Name, Reason: "duplicate composite name"}
	}
	if !recipe.Compositor.IsValid() {
		return &ConfigError{Name: recipe.Name, Reason: fmt.Sprintf("unknown compositor type %q", recipe.Compositor)}
	}

	switch recipe.Compositor {
	case CompositorRGB:
		if len(recipe.Required) != 3 {
			return &ConfigError{Name: recipe.Name, Reason: fmt.Sprintf("rgb compositor wants 3 required inputs, got %d", len(recipe.Required))}
		}
	case CompositorRatioSharpenedRGB:
		if len(recipe.Required) != 3 {
			return &ConfigError{Name: recipe.Name, Reason: fmt.Sprintf("ratio-sharpened compositor wants 3 required inputs, got %d", len(recipe.Required))}
		}
		if len(recipe.Optional) != 1 {
			return &ConfigError{Name: recipe.Name, Reason: fmt.Sprintf("ratio-sharpened compositor wants 1 optional sharpening input, got %d", len(recipe.Optional))}
		}
		switch recipe.HighResolutionBand {
		case "red", "green", "blue":
		default:
			return &ConfigError{Name: recipe.Name, Reason: fmt.Sprintf("high_resolution_band must name a color slot, got %q", recipe.HighResolutionBand)}
		}
	case CompositorTemperatureDifference:
		if len(recipe.Required) != 2 {
			return &ConfigError{Name: recipe.Name, Reason: fmt.Sprintf("temperature-difference compositor wants 2 required inputs, got %d", len(recipe.Required))}
		}
	}

	for _, in := range append(append([]Input{}, recipe.Required...), recipe.Optional...) {
		if in.Band == "" {
			return &ConfigError{Name: recipe.Name, Reason: "input with empty band name"}
		}
		if err := r.validateChain(recipe.Name, in); err != nil {
			return err
		}
	}

	r.composites[recipe.Name] = recipe
	return nil
}

// validateChain checks that every modifier in the input's chain exists,
// that Rayleigh correction is preceded by sun-zenith normalization (its
// coefficients assume normalized input), and that expanding modifier
// band prerequisites never revisits a node already on the active path.
func (r *Registry) validateChain(owner string, in Input) error {
	seenSunZenith := false
	for _, name := range in.Modifiers {
		spec, ok := r.modifiers[name]
		if !ok {
			return &ConfigError{Name: owner, Reason: fmt.Sprintf("chain for band %q references unknown modifier %q", in.Band, name)}
		}
		switch spec.Type {
		case ModifierSunZenith:
			seenSunZenith = true
		case ModifierRayleigh:
			if !seenSunZenith {
				return &ConfigError{Name: owner, Reason: fmt.Sprintf("chain for band %q applies %q before sun-zenith normalization", in.Band, name)}
			}
		}
	}
	return r.walkChain(owner, in, nil)
}

// walkChain DFS-expands an input through modifier prerequisites, rejecting
// any path that re-enters a node already being expanded.
func (r *Registry) walkChain(owner string, in Input, path []string) error {
	key := in.Key()
	for _, seen := range path {
		if seen == key {
			return &ConfigError{
				Name:   owner,
				Reason: "cyclic modifier chain",
				Cycle:  append(append([]string{}, path...), key),
			}
		}
	}
	path = append(path, key)
	for _, name := range in.Modifiers {
		spec, ok := r.modifiers[name]
		if !ok {
			return &ConfigError{Name: owner, Reason: fmt.Sprintf("chain for band %q references unknown modifier %q", in.Band, name)}
		}
		for _, req := range spec.Requires {
			if err := r.walkChain(owner, req, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// recipeDoc is the on-disk YAML layout.
type recipeDoc struct {
	Sensor    string `yaml:"sensor"`
	Modifiers map[string]struct {
		Type     string   `yaml:"type"`
		Geometry []string `yaml:"geometry,omitempty"`
		Requires []Input  `yaml:"requires,omitempty"`
	} `yaml:"modifiers"`
	Composites map[string]struct {
		Compositor         string  `yaml:"compositor"`
		StandardName       string  `yaml:"standard_name"`
		Required           []Input `yaml:"required"`
		Optional           []Input `yaml:"optional,omitempty"`
		HighResolutionBand string  `yaml:"high_resolution_band,omitempty"`
	} `yaml:"composites"`
}

// LoadFile parses and validates a sensor recipe file. Malformed entries
// are rejected individually and returned as ConfigErrors; every valid
// entry is registered and usable. A file-level failure (unreadable,
// unparseable) returns a nil registry.
func LoadFile(path string) (*Registry, []error) {
	cleanPath := filepath.Clean(path)
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, []error{fmt.Errorf("read recipe file: %w", err)}
	}
	var doc recipeDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, []error{fmt.Errorf("parse recipe file %s: %w", cleanPath, err)}
	}
	if doc.Sensor == "" {
		return nil, []error{&ConfigError{Name: filepath.Base(cleanPath), Reason: "recipe file missing sensor name"}}
	}

	registry := NewRegistry(doc.Sensor)
	var rejected []error

	for name, m := range doc.Modifiers {
		spec := &ModifierSpec{
			Name:     name,
			Type:     ModifierType(m.Type),
			Geometry: m.Geometry,
			Requires: m.Requires,
		}
		if err := registry.AddModifier(spec); err != nil {
			monitoring.Logf("[Recipes] Rejecting modifier %q: %v", name, err)
			rejected = append(rejected, err)
		}
	}
	for name, c := range doc.Composites {
		recipe := &CompositeRecipe{
			Name:               name,
			Compositor:         CompositorType(c.Compositor),
			StandardName:       c.StandardName,
			Required:           c.Required,
			Optional:           c.Optional,
			HighResolutionBand: c.HighResolutionBand,
		}
		if err := registry.AddComposite(recipe); err != nil {
			monitoring.Logf("[Recipes] Rejecting composite %q: %v", name, err)
			rejected = append(rejected, err)
		}
	}

	monitoring.Logf("[Recipes] Loaded %d modifiers, %d composites for sensor %q from %s (%d rejected)",
		len(registry.modifiers), len(registry.composites), doc.Sensor, cleanPath, len(rejected))
	return registry, rejected
}
