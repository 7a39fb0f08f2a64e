package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCurves(t *testing.T) {
	out, err := run(t, "curves")
	require.NoError(t, err)
	for _, name := range []string{"toy23", "secp160r1", "secp256k1", "P-256", "wei25519"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "p=17")
}

func TestExchange(t *testing.T) {
	out, err := run(t, "exchange", "--curve", "secp160r1", "--backend", "affine")
	require.NoError(t, err)
	assert.Contains(t, out, "secp160r1 (affine arithmetic)")
	assert.Contains(t, out, "agreed:      20-byte secret")
	assert.NotContains(t, out, "cache:")

	out, err = run(t, "exchange", "--curve", "secp160r1", "--cache-bytes", "33554432")
	require.NoError(t, err)
	assert.Contains(t, out, "(jacobian arithmetic)")
	assert.Contains(t, out, "inversions:  4\n")
	assert.Contains(t, out, "cache:")
}

func TestExchangeRejectsUnknownBackend(t *testing.T) {
	_, err := run(t, "exchange", "--backend", "projective")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestDH(t *testing.T) {
	out, err := run(t, "dh", "--bits", "32")
	require.NoError(t, err)
	assert.Contains(t, out, "dh(32-bit")
	assert.Contains(t, out, "agreed:      4-byte secret")
}

func TestCompare(t *testing.T) {
	out, err := run(t, "compare", "--curve", "secp160r1", "--bits", "32", "--iterations", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "curve secp160r1, classical DH over 32 bits")
	assert.Contains(t, out, "ecdh/affine")
	assert.Contains(t, out, "ecdh/jacobian")
}

func TestConfigLayers(t *testing.T) {
	out, err := run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "curve: secp256k1")
	assert.Contains(t, out, "backend: jacobian")

	path := filepath.Join(t.TempDir(), "ecdh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("curve: P-256\ndh:\n  bits: 512\n"), 0o600))

	out, err = run(t, "config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "curve: P-256")
	assert.Contains(t, out, "bits: 512")

	t.Setenv("ECDH_DH_BITS", "1024")
	out, err = run(t, "config", "--config", path, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "bits: 1024")
	assert.Contains(t, out, "level: debug")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
