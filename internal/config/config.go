// Package config loads the batchdemo configuration from YAML and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	batchz "github.com/zoobzio/batchz"
)

// Config represents the demo configuration.
type Config struct {
	Buffer  BufferConfig  `mapstructure:"buffer"`
	Source  SourceConfig  `mapstructure:"source"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// BufferConfig configures the time-or-count buffer.
type BufferConfig struct {
	Size        int `mapstructure:"size"`
	TimeFrameMs int `mapstructure:"timeFrameMs"`
}

// SourceConfig configures the interval source feeding the buffer.
type SourceConfig struct {
	IntervalMs int `mapstructure:"intervalMs"`
	Count      int `mapstructure:"count"` // 0 = unbounded
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// Operator converts the buffer settings to the library configuration.
func (c BufferConfig) Operator() batchz.BufferConfig {
	return batchz.BufferConfig{
		BufferSize: c.Size,
		TimeFrame:  time.Duration(c.TimeFrameMs) * time.Millisecond,
	}
}

// Interval returns the source period.
func (c SourceConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Loader reads configuration from an optional file and BATCHDEMO_* variables.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BATCHDEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from path. An empty path uses defaults and the
// environment only; a path that cannot be read is an error.
func (l *Loader) Load(path string) (*Config, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("buffer.size", 3)
	l.v.SetDefault("buffer.timeFrameMs", 1000)
	l.v.SetDefault("source.intervalMs", 200)
	l.v.SetDefault("source.count", 0)
	l.v.SetDefault("metrics.enabled", true)
	l.v.SetDefault("metrics.port", "9090")
}

func validate(config *Config) error {
	if err := config.Buffer.Operator().Validate(); err != nil {
		return err
	}
	if config.Source.IntervalMs <= 0 {
		return fmt.Errorf("source intervalMs must be greater than 0")
	}
	if config.Source.Count < 0 {
		return fmt.Errorf("source count must not be negative")
	}
	if config.Metrics.Enabled && config.Metrics.Port == "" {
		return fmt.Errorf("metrics port must be set when metrics are enabled")
	}
	return nil
}
