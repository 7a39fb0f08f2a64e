package curves

import (
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
)

// ErrGenerateExhausted is returned by Generate when no curve and base point
// were found within the attempt budget.
var ErrGenerateExhausted = errors.New("curves: random curve search exhausted")

// Generate draws a random non-singular curve over GF(p) together with a base
// point. Each attempt samples a, b and a candidate x; the attempt succeeds
// when x³ + ax + b is a non-zero quadratic residue.
func Generate(rng io.Reader, name string, p *big.Int, maxAttempts int) (*Params, error) {
	if p.Cmp(three) <= 0 || p.Bit(0) == 0 {
		return nil, &InvalidCurveError{Curve: name, Reason: "modulus must be an odd prime greater than 3"}
	}
	prime, err := modarith.IsProbablePrime(rng, p, modarith.DefaultRounds)
	if err != nil {
		return nil, err
	}
	if !prime {
		return nil, &InvalidCurveError{Curve: name, Reason: "modulus is composite"}
	}
	pMinus1 := new(big.Int).Sub(p, one)
	zero := new(big.Int)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		a, err := modarith.RandInt(rng, zero, pMinus1)
		if err != nil {
			return nil, err
		}
		b, err := modarith.RandInt(rng, zero, pMinus1)
		if err != nil {
			return nil, err
		}
		c := &Params{Name: name, P: p, A: a, B: b}
		if c.Discriminant().Sign() == 0 {
			continue
		}

		x, err := modarith.RandInt(rng, zero, pMinus1)
		if err != nil {
			return nil, err
		}
		rhs := c.Polynomial(x)
		if rhs.Sign() == 0 || !IsQuadraticResidue(rhs, p) {
			continue
		}
		y := new(big.Int).ModSqrt(rhs, p)
		if y == nil {
			continue
		}
		return New(name, p, a, b, x, y)
	}
	return nil, errors.Wrapf(ErrGenerateExhausted, "after %d attempts", maxAttempts)
}
