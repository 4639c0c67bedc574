package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/motion"
	"github.com/roman-kulish/step-tracker/internal/pedometer"
)

const (
	defaultDBFileName = "fitness.sqlite"
	defaultLogLevel   = "info"
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings         `yaml:"settings"`
	Profile   activity.Profile `yaml:"profile"`
	Estimator EstimatorConfig  `yaml:"estimator"`
	Source    motion.Config    `yaml:"source"`
	Storage   StorageConfig    `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel       string   `yaml:"logLevel"`
	DailyRollover  bool     `yaml:"dailyRollover"`  // Start a new day when the wall clock date changes
	StatusInterval Duration `yaml:"statusInterval"` // Periodic progress log, disabled when zero
	MetricsAddr    string   `yaml:"metricsAddr"`    // Prometheus listen address, disabled when empty
}

// EstimatorConfig represents step detection settings
type EstimatorConfig struct {
	Threshold float64 `yaml:"threshold"`
	Formula   string  `yaml:"formula"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	FileName      string `yaml:"fileName"`
}

// Duration is a time.Duration read from strings such as "30s" or "5m"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %w", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// NewConfig returns the configuration defaults
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: defaultLogLevel,
		},
		Estimator: EstimatorConfig{
			Threshold: pedometer.DefaultThreshold,
			Formula:   pedometer.FlatRateFormula,
		},
		Source: motion.Config{
			Type: motion.FileSource,
			Path: motion.StdinPath,
		},
		Storage: StorageConfig{
			FileName: defaultDBFileName,
		},
	}
}

// LoadConfig reads the YAML configuration file at path on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := NewConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Settings.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Settings.StatusInterval < 0 {
		errs = append(errs, errors.New("settings.statusInterval must not be negative"))
	}
	if c.Profile.WeightKg < 0 {
		errs = append(errs, fmt.Errorf("profile.weightKg must not be negative: %v", c.Profile.WeightKg))
	}
	if c.Profile.HeightCm < 0 {
		errs = append(errs, fmt.Errorf("profile.heightCm must not be negative: %v", c.Profile.HeightCm))
	}
	if c.Profile.StepGoal < 0 {
		errs = append(errs, fmt.Errorf("profile.stepGoal must not be negative: %d", c.Profile.StepGoal))
	}
	if c.Estimator.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("estimator.threshold must be positive: %v", c.Estimator.Threshold))
	}
	if _, err := pedometer.FormulaByName(c.Estimator.Formula); err != nil {
		errs = append(errs, fmt.Errorf("estimator.formula: %w", err))
	}
	if c.Storage.FileName == "" {
		errs = append(errs, errors.New("storage.fileName is required"))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return level, fmt.Errorf("settings.logLevel: %w", err)
	}
	return level, nil
}
