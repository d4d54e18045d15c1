// Package config loads the engine tuning configuration: worker
// parallelism, output stretch ranges and the paths to recipes, ancillary
// data and the render log. All fields are optional in the JSON file; the
// Get* methods supply defaults for anything omitted, so partial configs
// are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EngineConfig is the root engine configuration.
type EngineConfig struct {
	// Resolver params
	Workers *int `json:"workers,omitempty"`

	// Compositor stretch ranges (physical units)
	ReflectanceMin *float64 `json:"reflectance_min,omitempty"`
	ReflectanceMax *float64 `json:"reflectance_max,omitempty"`
	FogMin         *float64 `json:"fog_min,omitempty"`
	FogMax         *float64 `json:"fog_max,omitempty"`

	// Data paths
	RecipePath       *string `json:"recipe_path,omitempty"`
	DEMPath          *string `json:"dem_path,omitempty"`
	CoefficientsPath *string `json:"coefficients_path,omitempty"`
	RenderLogPath    *string `json:"render_log_path,omitempty"`
	OutputDir        *string `json:"output_dir,omitempty"`
}

// EmptyEngineConfig returns an EngineConfig with all fields set to nil.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// LoadEngineConfig loads an EngineConfig from a JSON file. The path must
// have a .json extension and the file must be under the max size; fields
// omitted from the JSON keep their defaults.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *EngineConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.ReflectanceMin != nil && c.ReflectanceMax != nil && *c.ReflectanceMax <= *c.ReflectanceMin {
		return fmt.Errorf("reflectance range [%f, %f] is empty", *c.ReflectanceMin, *c.ReflectanceMax)
	}
	if c.FogMin != nil && c.FogMax != nil && *c.FogMax <= *c.FogMin {
		return fmt.Errorf("fog range [%f, %f] is empty", *c.FogMin, *c.FogMax)
	}
	return nil
}

// GetWorkers returns the workers value or the default.
func (c *EngineConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4 // default
	}
	return *c.Workers
}

// GetReflectanceMin returns the reflectance_min value or the default.
func (c *EngineConfig) GetReflectanceMin() float64 {
	if c.ReflectanceMin == nil {
		return 0 // default
	}
	return *c.ReflectanceMin
}

// GetReflectanceMax returns the reflectance_max value or the default.
func (c *EngineConfig) GetReflectanceMax() float64 {
	if c.ReflectanceMax == nil {
		return 1 // default
	}
	return *c.ReflectanceMax
}

// GetFogMin returns the fog_min value or the default.
func (c *EngineConfig) GetFogMin() float64 {
	if c.FogMin == nil {
		return -20 // default
	}
	return *c.FogMin
}

// GetFogMax returns the fog_max value or the default.
func (c *EngineConfig) GetFogMax() float64 {
	if c.FogMax == nil {
		return 20 // default
	}
	return *c.FogMax
}

// GetRecipePath returns the recipe_path value or the default.
func (c *EngineConfig) GetRecipePath() string {
	if c.RecipePath == nil {
		return "config/recipes.viirs.yaml" // default
	}
	return *c.RecipePath
}

// GetDEMPath returns the dem_path value, empty if unset.
func (c *EngineConfig) GetDEMPath() string {
	if c.DEMPath == nil {
		return ""
	}
	return *c.DEMPath
}

// GetCoefficientsPath returns the coefficients_path value, empty if unset.
func (c *EngineConfig) GetCoefficientsPath() string {
	if c.CoefficientsPath == nil {
		return ""
	}
	return *c.CoefficientsPath
}

// GetRenderLogPath returns the render_log_path value or the default.
func (c *EngineConfig) GetRenderLogPath() string {
	if c.RenderLogPath == nil {
		return "render_log.db" // default
	}
	return *c.RenderLogPath
}

// GetOutputDir returns the output_dir value or the default.
func (c *EngineConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "." // default
	}
	return *c.OutputDir
}
