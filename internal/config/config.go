// Package config loads the engine's settings from defaults, an optional YAML
// file, ECDH_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/protocol/dh"
)

// EnvPrefix is prepended to every environment variable, e.g. ECDH_DH_BITS.
const EnvPrefix = "ECDH"

// Config is the effective configuration.
type Config struct {
	Curve     string    `mapstructure:"curve" yaml:"curve"`
	Backend   string    `mapstructure:"backend" yaml:"backend"`
	Primality Primality `mapstructure:"primality" yaml:"primality"`
	DH        DH        `mapstructure:"dh" yaml:"dh"`
	Cache     Cache     `mapstructure:"cache" yaml:"cache"`
	Log       Log       `mapstructure:"log" yaml:"log"`
}

type Primality struct {
	Rounds int `mapstructure:"rounds" yaml:"rounds"`
}

type DH struct {
	Bits        int `mapstructure:"bits" yaml:"bits"`
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// Cache sizes the arithmetic memo. Zero disables it.
type Cache struct {
	MaxBytes int `mapstructure:"max_bytes" yaml:"max_bytes"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]interface{}{
	"curve":            curves.Secp256k1,
	"backend":          ec.BackendJacobian,
	"primality.rounds": 40,
	"dh.bits":          256,
	"dh.max_attempts":  1 << 20,
	"cache.max_bytes":  0,
	"log.level":        "info",
	"log.format":       "text",
}

// NewViper returns a viper instance carrying the defaults and the
// environment binding. Callers may bind flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, if not empty, into v and returns the validated result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: reading %s", path)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "config: decoding")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if _, err := curves.FromName(c.Curve); err != nil {
		return errors.Wrap(err, "config")
	}
	switch c.Backend {
	case ec.BackendAffine, ec.BackendJacobian:
	default:
		return errors.Errorf("config: unknown backend %q, want one of %v", c.Backend, ec.Backends())
	}
	if c.Primality.Rounds < 1 {
		return errors.Errorf("config: primality.rounds must be positive, got %d", c.Primality.Rounds)
	}
	if c.DH.Bits < 3 {
		return errors.Errorf("config: dh.bits must be at least 3, got %d", c.DH.Bits)
	}
	if c.DH.MaxAttempts < 1 {
		return errors.Errorf("config: dh.max_attempts must be positive, got %d", c.DH.MaxAttempts)
	}
	if c.Cache.MaxBytes < 0 {
		return errors.Errorf("config: cache.max_bytes must not be negative, got %d", c.Cache.MaxBytes)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config: log.level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SearchConfig is the budget for the classical DH searches.
func (c *Config) SearchConfig() dh.SearchConfig {
	return dh.SearchConfig{MaxAttempts: c.DH.MaxAttempts, Rounds: c.Primality.Rounds}
}

// YAML renders c in the format Load accepts.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "config: encoding")
	}
	return out, nil
}
