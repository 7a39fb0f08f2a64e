package kex

import (
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScheme runs the checks every Scheme implementation must pass.
func TestScheme[Private, Public any](t *testing.T, scheme Scheme[Private, Public]) {
	generate := func(i int) (Public, Private) {
		rng := mrand.New(mrand.NewSource(int64(i)))
		pub, priv, err := scheme.Generate(rng)
		require.NoError(t, err)
		return pub, priv
	}
	t.Run("Generate", func(t *testing.T) {
		pub, priv := generate(0)
		require.NotNil(t, priv)
		require.NotNil(t, pub)
		derived := scheme.DerivePublic(&priv)
		require.Equal(t, marshal(scheme, &pub), marshal(scheme, &derived))
	})
	t.Run("Deterministic", func(t *testing.T) {
		pub1, _ := generate(1)
		pub2, _ := generate(1)
		require.Equal(t, marshal(scheme, &pub1), marshal(scheme, &pub2))
	})
	t.Run("MarshalParsePublic", func(t *testing.T) {
		pub, _ := generate(0)
		data := marshal(scheme, &pub)
		require.Len(t, data, scheme.PublicKeySize())
		pub2, err := scheme.ParsePublic(data)
		require.NoError(t, err)
		require.Equal(t, data, marshal(scheme, &pub2))

		_, err = scheme.ParsePublic(data[1:])
		require.Error(t, err)
	})
	t.Run("ComputeShared", func(t *testing.T) {
		pub1, priv1 := generate(0)
		pub2, priv2 := generate(1)

		shared1 := make([]byte, scheme.SharedSize())
		shared2 := make([]byte, scheme.SharedSize())
		require.NoError(t, scheme.ComputeShared(shared1, &priv1, &pub2))
		require.NoError(t, scheme.ComputeShared(shared2, &priv2, &pub1))

		require.NotEqual(t, make([]byte, scheme.SharedSize()), shared1)
		require.Equal(t, shared1, shared2)
	})
}

func marshal[Private, Public any](scheme Scheme[Private, Public], pub *Public) []byte {
	data := make([]byte, scheme.PublicKeySize())
	scheme.MarshalPublic(data, pub)
	return data
}
