package shmbus

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the construction parameters for a single queue, sourced
// from the environment so a producer and its consumers can be started
// from the same deployment manifest without hardcoding a shared name.
type Config struct {
	Name         string `envconfig:"SHMBUS_NAME" default:""`
	Capacity     uint32 `envconfig:"SHMBUS_CAPACITY" default:"1024"`
	MaxPayload   uint32 `envconfig:"SHMBUS_MAX_PAYLOAD" default:"4096"`
	NumConsumers uint32 `envconfig:"SHMBUS_NUM_CONSUMERS" default:"1"`
	LogLevel     string `envconfig:"SHMBUS_LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("shmbus: load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault reads configuration from the environment, falling back
// to Default on any parse error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration used when no environment
// override is present.
func Default() *Config {
	return &Config{
		Capacity:     1024,
		MaxPayload:   4096,
		NumConsumers: 1,
		LogLevel:     "info",
	}
}
