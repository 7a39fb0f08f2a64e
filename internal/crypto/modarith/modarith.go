// Package modarith implements the exact-precision modular arithmetic the
// rest of the module is built on: exponentiation, inversion, uniform random
// integers in a range, and Miller-Rabin probable-prime testing.
package modarith

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// DefaultRounds is the number of Miller-Rabin bases used when the caller has
// no stronger requirement.
const DefaultRounds = 40

var (
	one = big.NewInt(1)
	two = big.NewInt(2)

	// Primes used for trial division before any random base is drawn.
	smallPrimes = []int64{2, 3, 5, 7, 11, 13}
)

// NoInverseError is returned when a modular inverse is requested for a pair
// that is not coprime.
type NoInverseError struct {
	A       *big.Int
	Modulus *big.Int
}

func (e *NoInverseError) Error() string {
	return fmt.Sprintf("modarith: %s has no inverse modulo %s", e.A, e.Modulus)
}

// IsNoInverse reports whether err is, or wraps, a *NoInverseError.
func IsNoInverse(err error) bool {
	var target *NoInverseError
	return errors.As(err, &target)
}

// ModPow returns base^exponent mod modulus in [0, modulus).
// The exponent must be non-negative.
func ModPow(base, exponent, modulus *big.Int) *big.Int {
	if exponent.Sign() < 0 {
		panic("modarith: negative exponent")
	}
	b := new(big.Int).Mod(base, modulus)
	return b.Exp(b, exponent, modulus)
}

// ModInverse returns a^-1 mod modulus.
func ModInverse(a, modulus *big.Int) (*big.Int, error) {
	r := new(big.Int).Mod(a, modulus)
	if r.Sign() == 0 || new(big.Int).GCD(nil, nil, r, modulus).Cmp(one) != 0 {
		return nil, &NoInverseError{A: new(big.Int).Set(a), Modulus: new(big.Int).Set(modulus)}
	}
	return r.ModInverse(r, modulus), nil
}

// RandInt returns a uniformly distributed integer in the closed range [min, max].
func RandInt(rng io.Reader, min, max *big.Int) (*big.Int, error) {
	if max.Cmp(min) < 0 {
		return nil, errors.Errorf("modarith: empty range [%s, %s]", min, max)
	}
	width := new(big.Int).Sub(max, min)
	width.Add(width, one)
	r, err := rand.Int(rng, width)
	if err != nil {
		return nil, errors.Wrap(err, "modarith: reading randomness")
	}
	return r.Add(r, min), nil
}

// IsProbablePrime runs the Miller-Rabin test on n with the given number of
// random bases drawn from rng. A false result is certain; a true result is
// wrong with probability at most 4^-rounds.
func IsProbablePrime(rng io.Reader, n *big.Int, rounds int) (bool, error) {
	if n.Cmp(two) < 0 {
		return false, nil
	}
	if rounds < 1 {
		rounds = 1
	}

	m := new(big.Int)
	for _, sp := range smallPrimes {
		p := big.NewInt(sp)
		if n.Cmp(p) == 0 {
			return true, nil
		}
		if m.Mod(n, p).Sign() == 0 {
			return false, nil
		}
	}

	// n - 1 = 2^k * q with q odd
	nMinus1 := new(big.Int).Sub(n, one)
	k := nMinus1.TrailingZeroBits()
	q := new(big.Int).Rsh(nMinus1, k)

	maxBase := new(big.Int).Sub(n, two)
	for i := 0; i < rounds; i++ {
		a, err := RandInt(rng, two, maxBase)
		if err != nil {
			return false, err
		}
		if !passesBase(a, q, k, n, nMinus1) {
			return false, nil
		}
	}
	return true, nil
}

// passesBase reports whether a fails to witness the compositeness of n.
func passesBase(a, q *big.Int, k uint, n, nMinus1 *big.Int) bool {
	x := new(big.Int).Exp(a, q, n)
	if x.Cmp(one) == 0 || x.Cmp(nMinus1) == 0 {
		return true
	}
	for j := uint(1); j < k; j++ {
		x.Mul(x, x).Mod(x, n)
		if x.Cmp(nMinus1) == 0 {
			return true
		}
		if x.Cmp(one) == 0 {
			// 1 reached without passing through -1
			return false
		}
	}
	return false
}
