package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
)

// Validation mode names accepted in config files.
const (
	ValidationPermissive = "permissive"
	ValidationStrict     = "strict"
)

const (
	defaultRoundTripTolerance = 1e-5
	maxConfigFileSize         = 1 * 1024 * 1024 // 1MB
)

// CoderConfig selects and parameterises the box coder. Pointer fields let
// a partial JSON file leave the rest at their defaults.
type CoderConfig struct {
	Coder              *string  `json:"coder,omitempty"`
	CodeSize           *int     `json:"code_size,omitempty"`
	Validation         *string  `json:"validation,omitempty"` // "permissive" or "strict"
	RoundTripTolerance *float64 `json:"roundtrip_tolerance,omitempty"`
	ExtraChannels      []string `json:"extra_channels,omitempty"` // names of channels after r, e.g. ["vx", "vy"]
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultCoderConfig returns a config with every field populated.
func DefaultCoderConfig() *CoderConfig {
	return &CoderConfig{
		Coder:              ptrString(boxcoder.DeltaXYZWLHRName),
		CodeSize:           ptrInt(boxcoder.DefaultCodeSize),
		Validation:         ptrString(ValidationPermissive),
		RoundTripTolerance: ptrFloat64(defaultRoundTripTolerance),
	}
}

// LoadCoderConfig reads a CoderConfig from a JSON file. The path must have
// a .json extension and the file must be under 1MB.
func LoadCoderConfig(path string) (*CoderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &CoderConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *CoderConfig) Validate() error {
	if c.Coder != nil && *c.Coder == "" {
		return fmt.Errorf("coder must not be empty")
	}
	if c.CodeSize != nil && *c.CodeSize < boxcoder.MinChannels {
		return fmt.Errorf("code_size must be at least %d, got %d", boxcoder.MinChannels, *c.CodeSize)
	}
	if c.Validation != nil {
		if _, err := parseValidation(*c.Validation); err != nil {
			return err
		}
	}
	if c.RoundTripTolerance != nil && !(*c.RoundTripTolerance > 0) {
		return fmt.Errorf("roundtrip_tolerance must be positive, got %g", *c.RoundTripTolerance)
	}
	if c.CodeSize != nil && len(c.ExtraChannels) > 0 {
		if want := boxcoder.MinChannels + len(c.ExtraChannels); want != *c.CodeSize {
			return fmt.Errorf("code_size %d does not match %d extra_channels (want %d)",
				*c.CodeSize, len(c.ExtraChannels), want)
		}
	}
	seen := make(map[string]bool, len(c.ExtraChannels))
	for _, name := range c.ExtraChannels {
		if name == "" {
			return fmt.Errorf("extra_channels entries must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate extra channel %q", name)
		}
		seen[name] = true
	}
	return nil
}

func parseValidation(s string) (boxcoder.ValidationMode, error) {
	switch s {
	case ValidationPermissive, "":
		return boxcoder.ValidationPermissive, nil
	case ValidationStrict:
		return boxcoder.ValidationStrict, nil
	default:
		return 0, fmt.Errorf("validation must be %q or %q, got %q", ValidationPermissive, ValidationStrict, s)
	}
}

// GetCoder returns the registered coder name or the default.
func (c *CoderConfig) GetCoder() string {
	if c.Coder == nil || *c.Coder == "" {
		return boxcoder.DeltaXYZWLHRName
	}
	return *c.Coder
}

// GetCodeSize returns code_size, else 7 plus the extra channel count.
func (c *CoderConfig) GetCodeSize() int {
	if c.CodeSize == nil {
		return boxcoder.MinChannels + len(c.ExtraChannels)
	}
	return *c.CodeSize
}

// GetValidation returns the validation mode. Invalid strings fall back to
// permissive; Validate reports them.
func (c *CoderConfig) GetValidation() boxcoder.ValidationMode {
	if c.Validation == nil {
		return boxcoder.ValidationPermissive
	}
	mode, err := parseValidation(*c.Validation)
	if err != nil {
		return boxcoder.ValidationPermissive
	}
	return mode
}

// GetRoundTripTolerance returns roundtrip_tolerance or the default.
func (c *CoderConfig) GetRoundTripTolerance() float64 {
	if c.RoundTripTolerance == nil {
		return defaultRoundTripTolerance
	}
	return *c.RoundTripTolerance
}

// GetExtraChannels returns a copy of the extra channel names.
func (c *CoderConfig) GetExtraChannels() []string {
	return append([]string(nil), c.ExtraChannels...)
}

// CoderOptions translates the config into boxcoder options.
func (c *CoderConfig) CoderOptions() []boxcoder.Option {
	return []boxcoder.Option{
		boxcoder.WithCodeSize(c.GetCodeSize()),
		boxcoder.WithValidation(c.GetValidation()),
	}
}

// NewCoder builds the configured coder from the boxcoder registry.
func (c *CoderConfig) NewCoder() (boxcoder.Coder, error) {
	return boxcoder.New(c.GetCoder(), c.CoderOptions()...)
}
