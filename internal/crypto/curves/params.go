// Package curves holds the parameters of short Weierstrass curves
// y² = x³ + ax + b over a prime field, and a small catalogue of named curves.
package curves

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
)

var (
	one   = big.NewInt(1)
	three = big.NewInt(3)
	four  = big.NewInt(4)
	n27   = big.NewInt(27)
)

// InvalidCurveError reports parameters that do not describe a usable curve,
// or a point that does not lie on the curve it was given for.
type InvalidCurveError struct {
	Curve  string
	Reason string
}

func (e *InvalidCurveError) Error() string {
	if e.Curve == "" {
		return "curves: invalid curve: " + e.Reason
	}
	return fmt.Sprintf("curves: invalid curve %s: %s", e.Curve, e.Reason)
}

// IsInvalidCurve reports whether err is, or wraps, an *InvalidCurveError.
func IsInvalidCurve(err error) bool {
	var target *InvalidCurveError
	return errors.As(err, &target)
}

// Params describes y² = x³ + ax + b over GF(P) with base point (Gx, Gy).
//
// Params values handed out by this package are never mutated after
// construction and must be treated as read-only by callers.
type Params struct {
	Name    string
	P       *big.Int // field modulus
	A       *big.Int
	B       *big.Int
	Gx, Gy  *big.Int // base point
	N       *big.Int // order of the base point, nil when unknown
	BitSize int
}

// New validates the tuple (p, a, b, Gx, Gy) and returns the curve it
// describes. The order of the base point is left unknown.
func New(name string, p, a, b, gx, gy *big.Int) (*Params, error) {
	if p == nil || a == nil || b == nil || gx == nil || gy == nil {
		return nil, &InvalidCurveError{Curve: name, Reason: "missing parameter"}
	}
	if p.Cmp(three) <= 0 || p.Bit(0) == 0 {
		return nil, &InvalidCurveError{Curve: name, Reason: "modulus must be an odd prime greater than 3"}
	}
	prime, err := modarith.IsProbablePrime(rand.Reader, p, modarith.DefaultRounds)
	if err != nil {
		return nil, errors.Wrap(err, "curves: testing modulus")
	}
	if !prime {
		return nil, &InvalidCurveError{Curve: name, Reason: "modulus is composite"}
	}

	c := &Params{
		Name:    name,
		P:       new(big.Int).Set(p),
		A:       new(big.Int).Set(a),
		B:       new(big.Int).Set(b),
		Gx:      new(big.Int).Set(gx),
		Gy:      new(big.Int).Set(gy),
		BitSize: p.BitLen(),
	}
	for _, v := range []*big.Int{c.A, c.B} {
		if !c.inField(v) {
			return nil, &InvalidCurveError{Curve: name, Reason: "coefficient out of range [0, p)"}
		}
	}
	if c.Discriminant().Sign() == 0 {
		return nil, &InvalidCurveError{Curve: name, Reason: "singular curve: 4a³ + 27b² ≡ 0"}
	}
	if !c.IsOnCurve(c.Gx, c.Gy) {
		return nil, &InvalidCurveError{Curve: name, Reason: "base point is not on the curve"}
	}
	return c, nil
}

func mustNew(name string, p, a, b, gx, gy, n *big.Int) *Params {
	c, err := New(name, p, a, b, gx, gy)
	if err != nil {
		panic(err)
	}
	if n != nil {
		c.N = new(big.Int).Set(n)
	}
	return c
}

// Discriminant returns 4a³ + 27b² mod p. The curve is non-singular iff it
// is non-zero.
func (c *Params) Discriminant() *big.Int {
	a3 := new(big.Int).Exp(c.A, three, c.P)
	a3.Mul(a3, four)
	b2 := new(big.Int).Mul(c.B, c.B)
	b2.Mul(b2, n27)
	a3.Add(a3, b2)
	return a3.Mod(a3, c.P)
}

// Polynomial returns x³ + ax + b mod p.
func (c *Params) Polynomial(x *big.Int) *big.Int {
	x3 := new(big.Int).Mul(x, x)
	x3.Mul(x3, x)

	ax := new(big.Int).Mul(c.A, x)

	x3.Add(x3, ax)
	x3.Add(x3, c.B)
	return x3.Mod(x3, c.P)
}

// IsOnCurve reports whether (x, y) is a finite point of the curve with both
// coordinates reduced into [0, p).
func (c *Params) IsOnCurve(x, y *big.Int) bool {
	if x == nil || y == nil || !c.inField(x) || !c.inField(y) {
		return false
	}
	y2 := new(big.Int).Mul(y, y)
	y2.Mod(y2, c.P)
	return y2.Cmp(c.Polynomial(x)) == 0
}

// Clone returns a deep copy of c.
func (c *Params) Clone() *Params {
	cp := &Params{
		Name:    c.Name,
		P:       new(big.Int).Set(c.P),
		A:       new(big.Int).Set(c.A),
		B:       new(big.Int).Set(c.B),
		Gx:      new(big.Int).Set(c.Gx),
		Gy:      new(big.Int).Set(c.Gy),
		BitSize: c.BitSize,
	}
	if c.N != nil {
		cp.N = new(big.Int).Set(c.N)
	}
	return cp
}

// ByteLen is the width of a field element in bytes.
func (c *Params) ByteLen() int {
	return (c.BitSize + 7) / 8
}

func (c *Params) String() string {
	return fmt.Sprintf("%s (%d-bit, a=%s, b=%s)", c.Name, c.BitSize, c.A.Text(16), c.B.Text(16))
}

func (c *Params) inField(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(c.P) < 0
}

// IsQuadraticResidue reports whether v is a non-zero square modulo the odd
// prime p, using Euler's criterion.
func IsQuadraticResidue(v, p *big.Int) bool {
	e := new(big.Int).Sub(p, one)
	e.Rsh(e, 1)
	return modarith.ModPow(v, e, p).Cmp(one) == 0
}
