package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/speed-sign-mcp/internal/detection"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Environment variables read by ApplyEnv.
const (
	EnvExemplars = "SPEEDSIGN_EXEMPLARS"
	EnvLogLevel  = "SPEEDSIGN_LOG_LEVEL"
	EnvWorkers   = "SPEEDSIGN_WORKERS"
)

// DefaultExemplarPath is used when no exemplar file is configured.
const DefaultExemplarPath = "data/exemplars.npy"

// TuningConfig is the on-disk configuration of the detector.
//
// Every field is optional. A nil field falls back to its default, so a
// partial file only overrides what it names.
type TuningConfig struct {
	// Color thresholds
	HueMin              *float64 `json:"hue_min,omitempty"`
	HueMax              *float64 `json:"hue_max,omitempty"`
	SaturationThreshold *float64 `json:"saturation_threshold,omitempty"`
	ValueThreshold      *float64 `json:"value_threshold,omitempty"`

	// Morphology
	CloseSize          *int `json:"close_size,omitempty"`
	OpenSize           *int `json:"open_size,omitempty"`
	ErodeSize          *int `json:"erode_size,omitempty"`
	FallbackDilateSize *int `json:"fallback_dilate_size,omitempty"`

	// Box filter
	MinArea   *int     `json:"min_area,omitempty"`
	MinSide   *int     `json:"min_side,omitempty"`
	MinAspect *float64 `json:"min_aspect,omitempty"`
	MaxAspect *float64 `json:"max_aspect,omitempty"`

	Connectivity    *int  `json:"connectivity,omitempty"`
	DisableFallback *bool `json:"disable_fallback,omitempty"`

	// Classifier
	ExemplarPath       *string `json:"exemplar_path,omitempty"`
	AllowUnknownLabels *bool   `json:"allow_unknown_labels,omitempty"`

	// Runtime
	Workers  *int    `json:"workers,omitempty"`
	LogLevel *string `json:"log_level,omitempty"` // debug, info, warn or error
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// default value.
func DefaultTuningConfig() *TuningConfig {
	d := detection.DefaultProposerConfig()
	return &TuningConfig{
		HueMin:              ptrFloat64(d.HueMin),
		HueMax:              ptrFloat64(d.HueMax),
		SaturationThreshold: ptrFloat64(d.SaturationThreshold),
		ValueThreshold:      ptrFloat64(d.ValueThreshold),
		CloseSize:           ptrInt(d.CloseSize),
		OpenSize:            ptrInt(d.OpenSize),
		ErodeSize:           ptrInt(d.ErodeSize),
		FallbackDilateSize:  ptrInt(d.FallbackDilateSize),
		MinArea:             ptrInt(d.MinArea),
		MinSide:             ptrInt(d.MinSide),
		MinAspect:           ptrFloat64(d.MinAspect),
		MaxAspect:           ptrFloat64(d.MaxAspect),
		Connectivity:        ptrInt(d.Connectivity),
		DisableFallback:     ptrBool(d.DisableFallback),
		ExemplarPath:        ptrString(DefaultExemplarPath),
		AllowUnknownLabels:  ptrBool(false),
		Workers:             ptrInt(1),
		LogLevel:            ptrString("info"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<binary>/...
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// ApplyEnv overrides fields from the environment. lookup is normally
// os.LookupEnv.
func (c *TuningConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvExemplars); ok && v != "" {
		c.ExemplarPath = ptrString(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = ptrString(v)
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = ptrInt(n)
	}
	return c.Validate()
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.LogLevel != nil {
		switch *c.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", *c.LogLevel)
		}
	}

	if c.ExemplarPath != nil && *c.ExemplarPath == "" {
		return fmt.Errorf("exemplar_path must not be empty when set")
	}

	return c.ProposerConfig().Validate()
}

// ProposerConfig returns the detection parameters, with defaults for every
// unset field.
func (c *TuningConfig) ProposerConfig() detection.ProposerConfig {
	p := detection.DefaultProposerConfig()
	setFloat(&p.HueMin, c.HueMin)
	setFloat(&p.HueMax, c.HueMax)
	setFloat(&p.SaturationThreshold, c.SaturationThreshold)
	setFloat(&p.ValueThreshold, c.ValueThreshold)
	setInt(&p.CloseSize, c.CloseSize)
	setInt(&p.OpenSize, c.OpenSize)
	setInt(&p.ErodeSize, c.ErodeSize)
	setInt(&p.FallbackDilateSize, c.FallbackDilateSize)
	setInt(&p.MinArea, c.MinArea)
	setInt(&p.MinSide, c.MinSide)
	setFloat(&p.MinAspect, c.MinAspect)
	setFloat(&p.MaxAspect, c.MaxAspect)
	setInt(&p.Connectivity, c.Connectivity)
	if c.DisableFallback != nil {
		p.DisableFallback = *c.DisableFallback
	}
	return p
}

// GetExemplarPath returns the exemplar_path value or the default.
func (c *TuningConfig) GetExemplarPath() string {
	if c.ExemplarPath == nil {
		return DefaultExemplarPath
	}
	return *c.ExemplarPath
}

// GetAllowUnknownLabels returns the allow_unknown_labels value or the default.
func (c *TuningConfig) GetAllowUnknownLabels() bool {
	if c.AllowUnknownLabels == nil {
		return false
	}
	return *c.AllowUnknownLabels
}

// GetWorkers returns the workers value or the default. Zero and one both
// mean sequential classification.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetLogLevel returns the log_level value or the default.
func (c *TuningConfig) GetLogLevel() string {
	if c.LogLevel == nil {
		return "info"
	}
	return *c.LogLevel
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
