// Package ec implements group arithmetic on short Weierstrass curves in two
// interchangeable coordinate systems.
//
// Points are a closed sum type: Infinity, Affine and Jacobian. Every
// operation switches over all three and panics on anything else.
package ec

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
)

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
	four  = big.NewInt(4)
	eight = big.NewInt(8)
)

// Point is one of Infinity, Affine or Jacobian.
type Point interface {
	isPoint()
}

// Infinity is the group identity.
type Infinity struct{}

// Affine is a finite point (X, Y).
type Affine struct {
	X, Y *big.Int
}

// Jacobian is the point (X/Z², Y/Z³). Z = 0 represents infinity.
type Jacobian struct {
	X, Y, Z *big.Int
}

func (Infinity) isPoint() {}
func (Affine) isPoint()   {}
func (Jacobian) isPoint() {}

func (Infinity) String() string { return "Infinity" }

func (p Affine) String() string {
	return fmt.Sprintf("(%s, %s)", p.X, p.Y)
}

func (p Jacobian) String() string {
	return fmt.Sprintf("(%s : %s : %s)", p.X, p.Y, p.Z)
}

func jacobianInfinity() Jacobian {
	return Jacobian{X: big.NewInt(1), Y: big.NewInt(1), Z: big.NewInt(0)}
}

func unknownPoint(p Point) string {
	return fmt.Sprintf("ec: unknown point type %T", p)
}

// ToJacobian lifts p into Jacobian coordinates without any field inversion.
func ToJacobian(p Point) Point {
	switch v := p.(type) {
	case Infinity:
		return jacobianInfinity()
	case Affine:
		return Jacobian{X: new(big.Int).Set(v.X), Y: new(big.Int).Set(v.Y), Z: big.NewInt(1)}
	case Jacobian:
		return v
	default:
		panic(unknownPoint(p))
	}
}

// IsInfinity reports whether p is the group identity in any representation.
func IsInfinity(p Point) bool {
	switch v := p.(type) {
	case Infinity:
		return true
	case Affine:
		return false
	case Jacobian:
		return v.Z.Sign() == 0
	default:
		panic(unknownPoint(p))
	}
}

// normalize returns p as Infinity or Affine. The second result reports
// whether a field inversion was spent.
func normalize(c *curves.Params, p Point) (Point, bool) {
	switch v := p.(type) {
	case Infinity:
		return v, false
	case Affine:
		return v, false
	case Jacobian:
		z := new(big.Int).Mod(v.Z, c.P)
		if z.Sign() == 0 {
			return Infinity{}, false
		}
		zinv, err := modarith.ModInverse(z, c.P)
		if err != nil {
			// p is prime, so a non-zero Z is always invertible.
			panic(err)
		}
		zinv2 := new(big.Int).Mul(zinv, zinv)
		zinv2.Mod(zinv2, c.P)

		x := new(big.Int).Mul(v.X, zinv2)
		x.Mod(x, c.P)

		zinv2.Mul(zinv2, zinv)
		y := new(big.Int).Mul(v.Y, zinv2)
		y.Mod(y, c.P)
		return Affine{X: x, Y: y}, true
	default:
		panic(unknownPoint(p))
	}
}

// Equal reports whether p and q are the same group element on c, whatever
// their representation.
func Equal(c *curves.Params, p, q Point) bool {
	pn, _ := normalize(c, p)
	qn, _ := normalize(c, q)
	pa, pFinite := pn.(Affine)
	qa, qFinite := qn.(Affine)
	if !pFinite || !qFinite {
		return pFinite == qFinite
	}
	return pa.X.Cmp(qa.X) == 0 && pa.Y.Cmp(qa.Y) == 0
}

// Negate returns -p in the representation p was given in.
func Negate(c *curves.Params, p Point) Point {
	switch v := p.(type) {
	case Infinity:
		return v
	case Affine:
		return Affine{X: new(big.Int).Set(v.X), Y: negMod(v.Y, c.P)}
	case Jacobian:
		return Jacobian{X: new(big.Int).Set(v.X), Y: negMod(v.Y, c.P), Z: new(big.Int).Set(v.Z)}
	default:
		panic(unknownPoint(p))
	}
}

func negMod(v, p *big.Int) *big.Int {
	r := new(big.Int).Neg(v)
	return r.Mod(r, p)
}

// MarshalUncompressed encodes p as 0x04 || X || Y with fixed-width
// big-endian coordinates.
func MarshalUncompressed(c *curves.Params, p Affine) []byte {
	size := c.ByteLen()
	out := make([]byte, 1+2*size)
	out[0] = 4
	p.X.FillBytes(out[1 : 1+size])
	p.Y.FillBytes(out[1+size:])
	return out
}

// UnmarshalUncompressed parses the output of MarshalUncompressed and checks
// that the point lies on c.
func UnmarshalUncompressed(c *curves.Params, b []byte) (Affine, error) {
	size := c.ByteLen()
	if len(b) != 1+2*size {
		return Affine{}, errors.Errorf("ec: invalid point encoding length %d, want %d", len(b), 1+2*size)
	}
	if b[0] != 4 {
		return Affine{}, errors.Errorf("ec: unsupported point encoding prefix 0x%02x", b[0])
	}
	p := Affine{
		X: new(big.Int).SetBytes(b[1 : 1+size]),
		Y: new(big.Int).SetBytes(b[1+size:]),
	}
	if !c.IsOnCurve(p.X, p.Y) {
		return Affine{}, &curves.InvalidCurveError{Curve: c.Name, Reason: "point is not on the curve"}
	}
	return p, nil
}
