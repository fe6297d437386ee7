// Package config loads the finjector daemon configuration.
//
// Values come from three layers, later ones winning: built-in defaults, a YAML
// file and FINJECTOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/finjector/internal/logging"
	"github.com/aretw0/finjector/pkg/adapters/redis"
	"github.com/aretw0/finjector/pkg/probe"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FINJECTOR_"

// DefaultPath is the file read when no path is given.
const DefaultPath = "finjector.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the daemon configuration.
type Config struct {
	Shards    int           `mapstructure:"shards" yaml:"shards"`
	PinShards bool          `mapstructure:"pin_shards" yaml:"pin_shards"`
	Log       LogConfig     `mapstructure:"log" yaml:"log"`
	Admin     AdminConfig   `mapstructure:"admin" yaml:"admin"`
	Faults    FaultsConfig  `mapstructure:"faults" yaml:"faults"`
	Probes    []ProbeConfig `mapstructure:"probes" yaml:"probes"`
	Redis     RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type AdminConfig struct {
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics"`
}

// FaultsConfig controls the probes built from Probes.
// Enabled=false registers them disabled, which every registry rejects.
type FaultsConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Delay   time.Duration `mapstructure:"delay" yaml:"delay"`
}

// ProbeConfig declares a module whose probe is registered on every shard at startup.
type ProbeConfig struct {
	Module string   `mapstructure:"module" yaml:"module"`
	Points []string `mapstructure:"points" yaml:"points"`
}

// RedisConfig enables the pub/sub command feed when Addr is set.
type RedisConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	Channel string `mapstructure:"channel" yaml:"channel"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Admin: AdminConfig{
			Listen:  ":8080",
			Metrics: true,
		},
		Faults: FaultsConfig{
			Enabled: true,
			Delay:   probe.DefaultDelay,
		},
		Redis: RedisConfig{
			Channel: redis.DefaultChannel,
		},
	}
}

// envKeys maps environment suffixes to their nested configuration keys.
var envKeys = map[string][]string{
	"SHARDS":         {"shards"},
	"PIN_SHARDS":     {"pin_shards"},
	"LOG_LEVEL":      {"log", "level"},
	"LOG_FORMAT":     {"log", "format"},
	"ADMIN_LISTEN":   {"admin", "listen"},
	"ADMIN_METRICS":  {"admin", "metrics"},
	"FAULTS_ENABLED": {"faults", "enabled"},
	"FAULTS_DELAY":   {"faults", "delay"},
	"REDIS_ADDR":     {"redis", "addr"},
	"REDIS_CHANNEL":  {"redis", "channel"},
}

// Load reads path, applies environment overrides and validates the result.
// A missing file is not an error: defaults and environment still apply.
// An empty path reads DefaultPath.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(raw, lookup)

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for suffix, keys := range envKeys {
		val, ok := lookup(EnvPrefix + suffix)
		if !ok {
			continue
		}
		node := raw
		for _, k := range keys[:len(keys)-1] {
			child, ok := node[k].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[k] = child
			}
			node = child
		}
		node[keys[len(keys)-1]] = val
	}
}

func decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Shards < 0 {
		errs = append(errs, fmt.Errorf("shards must be >= 0, got %d", c.Shards))
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Faults.Delay <= 0 {
		errs = append(errs, fmt.Errorf("faults.delay must be positive, got %s", c.Faults.Delay))
	}

	seen := make(map[string]struct{}, len(c.Probes))
	for i, p := range c.Probes {
		if p.Module == "" {
			errs = append(errs, fmt.Errorf("probes[%d]: module is required", i))
			continue
		}
		if _, dup := seen[p.Module]; dup {
			errs = append(errs, fmt.Errorf("probes[%d]: duplicate module %q", i, p.Module))
		}
		seen[p.Module] = struct{}{}
		if len(p.Points) == 0 {
			errs = append(errs, fmt.Errorf("probes[%d]: module %q declares no points", i, p.Module))
		}
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		errs = append(errs, errors.New("redis.channel is required when redis.addr is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
