package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	c, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "secp256k1", c.Curve)
	assert.Equal(t, "jacobian", c.Backend)
	assert.Equal(t, 40, c.Primality.Rounds)
	assert.Equal(t, 256, c.DH.Bits)
	assert.Equal(t, 1<<20, c.DH.MaxAttempts)
	assert.Zero(t, c.Cache.MaxBytes)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)

	sc := c.SearchConfig()
	assert.Equal(t, 1<<20, sc.MaxAttempts)
	assert.Equal(t, 40, sc.Rounds)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecdh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
curve: P-256
backend: affine
dh:
  bits: 64
cache:
  max_bytes: 1048576
log:
  level: debug
  format: json
`), 0o600))

	c, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "P-256", c.Curve)
	assert.Equal(t, "affine", c.Backend)
	assert.Equal(t, 64, c.DH.Bits)
	assert.Equal(t, 1<<20, c.DH.MaxAttempts)
	assert.Equal(t, 1<<20, c.Cache.MaxBytes)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ECDH_CURVE", "toy23")
	t.Setenv("ECDH_DH_MAX_ATTEMPTS", "17")
	t.Setenv("ECDH_PRIMALITY_ROUNDS", "8")

	c, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "toy23", c.Curve)
	assert.Equal(t, 17, c.DH.MaxAttempts)
	assert.Equal(t, 8, c.Primality.Rounds)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c, err := Load(NewViper(), "")
		require.NoError(t, err)
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"unknown curve":   func(c *Config) { c.Curve = "curve448" },
		"unknown backend": func(c *Config) { c.Backend = "projective" },
		"zero rounds":     func(c *Config) { c.Primality.Rounds = 0 },
		"tiny prime":      func(c *Config) { c.DH.Bits = 2 },
		"no attempts":     func(c *Config) { c.DH.MaxAttempts = 0 },
		"negative cache":  func(c *Config) { c.Cache.MaxBytes = -1 },
		"bad log level":   func(c *Config) { c.Log.Level = "loud" },
		"bad log format":  func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c, err := Load(NewViper(), "")
	require.NoError(t, err)
	c.Cache.MaxBytes = 4096

	out, err := c.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "max_attempts: 1048576")

	path := filepath.Join(t.TempDir(), "ecdh.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))
	loaded, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &raw))
	assert.Equal(t, "secp256k1", raw["curve"])
}
