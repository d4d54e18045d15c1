package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmptyEngineConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyEngineConfig()
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, 0.0, cfg.GetReflectanceMin())
	assert.Equal(t, 1.0, cfg.GetReflectanceMax())
	assert.Equal(t, -20.0, cfg.GetFogMin())
	assert.Equal(t, 20.0, cfg.GetFogMax())
	assert.Equal(t, "config/recipes.viirs.yaml", cfg.GetRecipePath())
	assert.Equal(t, "render_log.db", cfg.GetRenderLogPath())
	assert.Equal(t, ".", cfg.GetOutputDir())
	assert.Empty(t, cfg.GetDEMPath())
	assert.Empty(t, cfg.GetCoefficientsPath())
}

func TestLoadEngineConfigPartial(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.json", `{
		"workers": 8,
		"fog_max": 30,
		"dem_path": "/data/dem.real4.36.18"
	}`)
	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.GetWorkers())
	assert.Equal(t, 30.0, cfg.GetFogMax())
	assert.Equal(t, "/data/dem.real4.36.18", cfg.GetDEMPath())

	// Untouched fields keep their defaults.
	assert.Equal(t, -20.0, cfg.GetFogMin())
	assert.Equal(t, 1.0, cfg.GetReflectanceMax())
}

func TestLoadEngineConfigRejectsNonJSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.yaml", "workers: 8")
	_, err := LoadEngineConfig(path)
	assert.ErrorContains(t, err, ".json")
}

func TestLoadEngineConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadEngineConfigMalformedJSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.json", "{not json")
	_, err := LoadEngineConfig(path)
	assert.ErrorContains(t, err, "parse")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	negWorkers := -1
	lo, hi := 0.5, 0.5
	tests := []struct {
		name    string
		cfg     EngineConfig
		wantErr bool
	}{
		{name: "empty is valid", cfg: EngineConfig{}},
		{name: "negative workers", cfg: EngineConfig{Workers: &negWorkers}, wantErr: true},
		{name: "empty reflectance range", cfg: EngineConfig{ReflectanceMin: &lo, ReflectanceMax: &hi}, wantErr: true},
		{name: "empty fog range", cfg: EngineConfig{FogMin: &hi, FogMax: &lo}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEngineConfigRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.json", `{"workers": -2}`)
	_, err := LoadEngineConfig(path)
	assert.ErrorContains(t, err, "workers")
}
