package pikalman

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model names accepted in Config.Model.
const (
	ModelConstantVelocity     = "constant-velocity"
	ModelConstantAcceleration = "constant-acceleration"
)

// Config is the construction-time tuning surface of a tracking session.
// None of these change mid-session.
type Config struct {
	// Model selects the kinematic model: "constant-velocity" (default) or
	// "constant-acceleration".
	Model string `yaml:"model"`

	// ProcessNoiseIntensity is the white-noise acceleration (CV) or jerk
	// (CA) intensity, reflecting expected unmodeled maneuvering.
	ProcessNoiseIntensity float64 `yaml:"process_noise_intensity"`

	// InitialPositionVariance and InitialVelocityVariance seed the
	// covariance when the first fix initializes the filter. The velocity
	// variance also covers acceleration components for the CA model.
	InitialPositionVariance float64 `yaml:"initial_position_variance"`
	InitialVelocityVariance float64 `yaml:"initial_velocity_variance"`

	// MeasurementNoiseFloor clamps each reported measurement variance from
	// below, guarding against receivers reporting zero accuracy.
	MeasurementNoiseFloor float64 `yaml:"measurement_noise_floor"`

	// GapThresholdSeconds marks a fix arriving more than this many seconds
	// after the previous one as following a dropout; the derivative
	// variances are then inflated to GapVelocityVariance before the
	// update. Zero disables gap handling.
	GapThresholdSeconds float64 `yaml:"gap_threshold_seconds"`
	GapVelocityVariance float64 `yaml:"gap_velocity_variance"`

	// QueueDepth is the fix queue capacity of the Tracker serialization
	// point.
	QueueDepth int `yaml:"queue_depth"`
}

// DefaultConfig returns the tuning used when a field is left unset: a
// constant-velocity model with unit noise intensity and a one minute gap
// threshold.
func DefaultConfig() Config {
	return Config{
		Model:                   ModelConstantVelocity,
		ProcessNoiseIntensity:   1.0,
		InitialPositionVariance: 25.0,
		InitialVelocityVariance: 100.0,
		MeasurementNoiseFloor:   1e-3,
		GapThresholdSeconds:     60,
		GapVelocityVariance:     100.0,
		QueueDepth:              64,
	}
}

// LoadConfig reads a YAML configuration file, fills unset fields with
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.ProcessNoiseIntensity == 0 {
		c.ProcessNoiseIntensity = def.ProcessNoiseIntensity
	}
	if c.InitialPositionVariance == 0 {
		c.InitialPositionVariance = def.InitialPositionVariance
	}
	if c.InitialVelocityVariance == 0 {
		c.InitialVelocityVariance = def.InitialVelocityVariance
	}
	if c.MeasurementNoiseFloor == 0 {
		c.MeasurementNoiseFloor = def.MeasurementNoiseFloor
	}
	if c.GapVelocityVariance == 0 {
		c.GapVelocityVariance = def.GapVelocityVariance
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = def.QueueDepth
	}
}

// Validate returns a ConfigError for the first invalid field found. The
// filter refuses to start on any of these rather than run with undefined
// numerics.
func (c Config) Validate() error {
	if c.Model != "" && c.Model != ModelConstantVelocity && c.Model != ModelConstantAcceleration {
		return &ConfigError{Field: "model", Reason: fmt.Sprintf("unknown model %q", c.Model)}
	}
	if c.ProcessNoiseIntensity <= 0 {
		return &ConfigError{Field: "process_noise_intensity", Reason: "must be positive"}
	}
	if c.InitialPositionVariance <= 0 {
		return &ConfigError{Field: "initial_position_variance", Reason: "must be positive"}
	}
	if c.InitialVelocityVariance <= 0 {
		return &ConfigError{Field: "initial_velocity_variance", Reason: "must be positive"}
	}
	if c.MeasurementNoiseFloor <= 0 {
		return &ConfigError{Field: "measurement_noise_floor", Reason: "must be positive"}
	}
	if c.GapThresholdSeconds < 0 {
		return &ConfigError{Field: "gap_threshold_seconds", Reason: "must not be negative"}
	}
	if c.GapVelocityVariance <= 0 {
		return &ConfigError{Field: "gap_velocity_variance", Reason: "must be positive"}
	}
	if c.QueueDepth <= 0 {
		return &ConfigError{Field: "queue_depth", Reason: "must be positive"}
	}
	return nil
}

// New builds a ready estimator from the configuration, including the motion
// model named by cfg.Model.
func New(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var model Model
	var err error
	switch cfg.Model {
	case "", ModelConstantVelocity:
		model, err = NewConstantVelocity(cfg.ProcessNoiseIntensity)
	case ModelConstantAcceleration:
		model, err = NewConstantAcceleration(cfg.ProcessNoiseIntensity)
	}
	if err != nil {
		return nil, err
	}
	return NewEstimator(model, cfg)
}
