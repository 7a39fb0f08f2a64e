package ec

import (
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestArithmetic checks the group laws every backend must satisfy. Call it
// from _test.go files only; it is exported so tests of packages wrapping
// a backend can run the same suite.
func TestArithmetic(t *testing.T, arith Arithmetic) {
	c := arith.Curve()
	g := Affine{X: c.Gx, Y: c.Gy}
	ref := NewAffine(c)

	scalar := func(rng *mrand.Rand) *big.Int {
		return new(big.Int).Rand(rng, new(big.Int).Lsh(one, uint(c.BitSize)))
	}
	point := func(i int) Point {
		rng := mrand.New(mrand.NewSource(int64(i)))
		return arith.ScalarMult(scalar(rng), g)
	}
	requireEqual := func(t *testing.T, want, got Point) {
		require.True(t, Equal(c, want, got), "want %v, got %v", arith.ToAffine(want), arith.ToAffine(got))
	}

	t.Run("Identity", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			p := point(i)
			requireEqual(t, p, arith.Add(p, Infinity{}))
			requireEqual(t, p, arith.Add(Infinity{}, p))
			requireEqual(t, p, arith.Add(p, ToJacobian(Infinity{})))
		}
		require.True(t, IsInfinity(arith.Add(Infinity{}, Infinity{})))
		require.True(t, IsInfinity(arith.Double(Infinity{})))
	})
	t.Run("AddSelfIsDouble", func(t *testing.T) {
		requireEqual(t, arith.Double(g), arith.Add(g, g))
		for i := 0; i < 5; i++ {
			p := point(i)
			requireEqual(t, arith.Double(p), arith.Add(p, p))
		}
	})
	t.Run("Inverse", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			p := point(i)
			require.True(t, IsInfinity(arith.Add(p, Negate(c, p))))
		}
	})
	t.Run("ScalarIdentity", func(t *testing.T) {
		requireEqual(t, g, arith.ScalarMult(big.NewInt(1), g))
		require.True(t, IsInfinity(arith.ScalarMult(big.NewInt(0), g)))
		require.True(t, IsInfinity(arith.ScalarMult(big.NewInt(7), Infinity{})))
	})
	t.Run("NegativeScalar", func(t *testing.T) {
		rng := mrand.New(mrand.NewSource(1))
		k := scalar(rng)
		neg := new(big.Int).Neg(k)
		requireEqual(t, Negate(c, arith.ScalarMult(k, g)), arith.ScalarMult(neg, g))
	})
	t.Run("MatchesAffineReference", func(t *testing.T) {
		rng := mrand.New(mrand.NewSource(2))
		for i := 0; i < 5; i++ {
			k := scalar(rng)
			want := ref.ScalarMult(k, g)
			got := arith.ToAffine(arith.ScalarMult(k, ToJacobian(g)))
			_, isJacobian := got.(Jacobian)
			require.False(t, isJacobian)
			requireEqual(t, want, got)
		}
	})
	t.Run("GroupLaw", func(t *testing.T) {
		rng := mrand.New(mrand.NewSource(3))
		for i := 0; i < 5; i++ {
			k1, k2 := scalar(rng), scalar(rng)
			sum := new(big.Int).Add(k1, k2)
			requireEqual(t,
				arith.ScalarMult(sum, g),
				arith.Add(arith.ScalarMult(k1, g), arith.ScalarMult(k2, g)))
		}
	})
	t.Run("OnCurve", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			p := arith.ToAffine(point(i))
			if a, ok := p.(Affine); ok {
				require.True(t, c.IsOnCurve(a.X, a.Y))
			}
		}
	})
	if c.N != nil {
		t.Run("Order", func(t *testing.T) {
			require.True(t, IsInfinity(arith.ScalarMult(c.N, g)))
			nMinus1 := new(big.Int).Sub(c.N, one)
			requireEqual(t, Negate(c, g), arith.ScalarMult(nMinus1, g))
		})
	}
}
