package recipes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecipeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validRecipeYAML = `
sensor: viirs
modifiers:
  sunz_corrected:
    type: sunz
    geometry: [solar_zenith]
  rayleigh_corrected:
    type: rayleigh
    geometry: [satellite_zenith, satellite_azimuth, solar_zenith, solar_azimuth]
composites:
  true_color_raw:
    compositor: rgb
    standard_name: true_color
    required:
      - band: m05
        modifiers: [sunz_corrected]
      - band: m04
        modifiers: [sunz_corrected]
      - band: m03
        modifiers: [sunz_corrected]
  true_color:
    compositor: ratio_sharpened_rgb
    standard_name: true_color
    required:
      - band: m05
        modifiers: [sunz_corrected, rayleigh_corrected]
      - band: m04
        modifiers: [sunz_corrected, rayleigh_corrected]
      - band: m03
        modifiers: [sunz_corrected, rayleigh_corrected]
    optional:
      - band: i01
        modifiers: [sunz_corrected, rayleigh_corrected]
    high_resolution_band: red
  fog:
    compositor: temperature_difference
    required:
      - band: i05
      - band: i04
`

func TestLoadFileValid(t *testing.T) {
	t.Parallel()

	reg, rejected := LoadFile(writeRecipeFile(t, validRecipeYAML))
	require.NotNil(t, reg)
	assert.Empty(t, rejected)
	assert.Equal(t, "viirs", reg.Sensor)
	assert.ElementsMatch(t, []string{"true_color_raw", "true_color", "fog"}, reg.Composites())

	recipe, err := reg.Composite("true_color")
	require.NoError(t, err)
	assert.Equal(t, CompositorRatioSharpenedRGB, recipe.Compositor)
	assert.Equal(t, "red", recipe.HighResolutionBand)
	assert.Len(t, recipe.Required, 3)
	assert.Len(t, recipe.Optional, 1)
}

func TestLoadFileRejectsUnknownModifierReference(t *testing.T) {
	t.Parallel()

	reg, rejected := LoadFile(writeRecipeFile(t, `
sensor: viirs
modifiers:
  sunz_corrected:
    type: sunz
composites:
  good:
    compositor: temperature_difference
    required:
      - band: i05
      - band: i04
  broken:
    compositor: rgb
    required:
      - band: m05
        modifiers: [does_not_exist]
      - band: m04
      - band: m03
`))
	require.NotNil(t, reg)
	require.Len(t, rejected, 1)

	var cfgErr *ConfigError
	require.ErrorAs(t, rejected[0], &cfgErr)
	assert.Equal(t, "broken", cfgErr.Name)

	// The malformed entry is gone; the valid one stays usable.
	_, err := reg.Composite("broken")
	assert.Error(t, err)
	_, err = reg.Composite("good")
	assert.NoError(t, err)
}

func TestLoadFileRejectsUnknownCompositorTag(t *testing.T) {
	t.Parallel()

	reg, rejected := LoadFile(writeRecipeFile(t, `
sensor: viirs
modifiers: {}
composites:
  weird:
    compositor: hologram
    required:
      - band: m05
      - band: m04
      - band: m03
`))
	require.NotNil(t, reg)
	require.Len(t, rejected, 1)

	var cfgErr *ConfigError
	require.ErrorAs(t, rejected[0], &cfgErr)
	assert.Equal(t, "weird", cfgErr.Name)
}

func TestLoadFileRejectsRayleighBeforeSunZenith(t *testing.T) {
	t.Parallel()

	reg, rejected := LoadFile(writeRecipeFile(t, `
sensor: viirs
modifiers:
  sunz_corrected:
    type: sunz
  rayleigh_corrected:
    type: rayleigh
composites:
  backwards:
    compositor: rgb
    required:
      - band: m05
        modifiers: [rayleigh_corrected, sunz_corrected]
      - band: m04
      - band: m03
`))
	require.NotNil(t, reg)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Error(), "before sun-zenith")
}

func TestCyclicChainRejectedAtLoad(t *testing.T) {
	t.Parallel()

	// m05's chain requires m04-under-chain, whose chain requires
	// m05-under-chain again: a cycle through modifier prerequisites.
	reg, rejected := LoadFile(writeRecipeFile(t, `
sensor: viirs
modifiers:
  sunz_corrected:
    type: sunz
  needs_m04:
    type: sunz
    requires:
      - band: m04
        modifiers: [needs_m05]
  needs_m05:
    type: sunz
    requires:
      - band: m05
        modifiers: [needs_m04]
composites:
  cyclic:
    compositor: rgb
    required:
      - band: m05
        modifiers: [needs_m04]
      - band: m04
        modifiers: [sunz_corrected]
      - band: m03
        modifiers: [sunz_corrected]
  still_fine:
    compositor: rgb
    required:
      - band: m05
        modifiers: [sunz_corrected]
      - band: m04
        modifiers: [sunz_corrected]
      - band: m03
        modifiers: [sunz_corrected]
`))
	require.NotNil(t, reg)
	require.Len(t, rejected, 1)

	var cfgErr *ConfigError
	require.ErrorAs(t, rejected[0], &cfgErr)
	assert.Equal(t, "cyclic", cfgErr.Name)
	assert.NotEmpty(t, cfgErr.Cycle, "rejection should name the cycle")

	// Other valid recipes remain usable.
	_, err := reg.Composite("still_fine")
	assert.NoError(t, err)
	_, err = reg.Composite("cyclic")
	assert.Error(t, err)
}

func TestUnknownCompositeLookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("viirs")
	_, err := reg.Composite("nope")

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "nope", cfgErr.Name)
}

func TestAddCompositeArityChecks(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("viirs")
	require.NoError(t, reg.AddModifier(&ModifierSpec{Name: "sunz_corrected", Type: ModifierSunZenith}))

	cases := []struct {
		name   string
		recipe *CompositeRecipe
	}{
		{"rgb with two inputs", &CompositeRecipe{
			Name:       "two",
			Compositor: CompositorRGB,
			Required:   []Input{{Band: "a"}, {Band: "b"}},
		}},
		{"fog with three inputs", &CompositeRecipe{
			Name:       "three",
			Compositor: CompositorTemperatureDifference,
			Required:   []Input{{Band: "a"}, {Band: "b"}, {Band: "c"}},
		}},
		{"sharpened without color slot", &CompositeRecipe{
			Name:       "noslot",
			Compositor: CompositorRatioSharpenedRGB,
			Required:   []Input{{Band: "a"}, {Band: "b"}, {Band: "c"}},
			Optional:   []Input{{Band: "d"}},
		}},
		{"sharpened with bad color slot", &CompositeRecipe{
			Name:               "badslot",
			Compositor:         CompositorRatioSharpenedRGB,
			Required:           []Input{{Band: "a"}, {Band: "b"}, {Band: "c"}},
			Optional:           []Input{{Band: "d"}},
			HighResolutionBand: "cyan",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfgErr *ConfigError
			err := reg.AddComposite(tc.recipe)
			require.Error(t, err)
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestAddModifierGeometryGrids(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("viirs")
	require.NoError(t, reg.AddModifier(&ModifierSpec{
		Name:     "sunz_corrected",
		Type:     ModifierSunZenith,
		Geometry: []string{"solar_zenith"},
	}))

	err := reg.AddModifier(&ModifierSpec{
		Name:     "rayleigh_corrected",
		Type:     ModifierRayleigh,
		Geometry: []string{"solar_zenit"},
	})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "solar_zenit")

	_, err = reg.Modifier("rayleigh_corrected")
	assert.Error(t, err, "misdeclared modifier must not register")
}

func TestInputKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "m05", Input{Band: "m05"}.Key())
	assert.Equal(t, "m05|a,b", Input{Band: "m05", Modifiers: []string{"a", "b"}}.Key())
	assert.NotEqual(t,
		Input{Band: "m05", Modifiers: []string{"a", "b"}}.Key(),
		Input{Band: "m05", Modifiers: []string{"b", "a"}}.Key(),
		"chain order is part of the identity")
}

func TestLoadFileMissingFile(t *testing.T) {
	t.Parallel()

	reg, rejected := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Nil(t, reg)
	require.Len(t, rejected, 1)
}
