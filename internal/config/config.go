package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Routes     RoutesConfig     `yaml:"routes"`
	Delay      DelayConfig      `yaml:"delay"`
	Logs       LogsConfig       `yaml:"logs"`
	Versioning VersioningConfig `yaml:"versioning"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// RoutesConfig holds route-set configuration
type RoutesConfig struct {
	File      string `yaml:"file"`      // Path to routes.json
	SeedCount int    `yaml:"seedCount"` // Records seeded on first-touch GET
}

// DelayConfig clamps per-route delay injection
type DelayConfig struct {
	Enabled bool `yaml:"enabled"`
	Default int  `yaml:"default"` // milliseconds, used when a route has none
	Min     int  `yaml:"min"`
	Max     int  `yaml:"max"`
}

// LogsConfig holds request-log buffer configuration
type LogsConfig struct {
	MaxEntries int `yaml:"maxEntries"`
}

// VersioningConfig bounds the route-set version history
type VersioningConfig struct {
	MaxVersions int `yaml:"maxVersions"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		Routes: RoutesConfig{
			File:      "./routes.json",
			SeedCount: 5,
		},
		Delay: DelayConfig{
			Enabled: true,
			Default: 0,
			Min:     0,
			Max:     5000,
		},
		Logs: LogsConfig{
			MaxEntries: 1000,
		},
		Versioning: VersioningConfig{
			MaxVersions: 50,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Clamp applies the delay limits to a route's configured delay and
// returns the effective milliseconds.
func (d DelayConfig) Clamp(routeDelay int) int {
	if !d.Enabled {
		return 0
	}
	delay := routeDelay
	if delay == 0 {
		delay = d.Default
	}
	if delay < d.Min {
		delay = d.Min
	}
	if d.Max > 0 && delay > d.Max {
		delay = d.Max
	}
	return delay
}
