// Package config loads the service configuration from an optional YAML file,
// applying defaults for everything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for everything the file may omit.
const (
	DefaultAddr        = "127.0.0.1:9847"
	DefaultStationName = "DefaultStation"

	DefaultReadTimeout  = Duration(10 * time.Second)
	DefaultWriteTimeout = Duration(10 * time.Second)
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Station StationConfig `yaml:"station"`
	Log     LogConfig     `yaml:"log"`
}

// Duration wraps time.Duration so YAML values like "3s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// ServerConfig configures the control-plane listener.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// StationConfig configures the virtual station the server hosts when no
// external simulation host is wired.
type StationConfig struct {
	Name string `yaml:"name"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// File, when set, receives a JSON copy of every log record in addition
	// to stderr.
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Station: StationConfig{Name: DefaultStationName},
	}
}

// Load reads path and merges it over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.normalize(), nil
}

func (c Config) normalize() Config {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Station.Name == "" {
		c.Station.Name = DefaultStationName
	}
	return c
}
