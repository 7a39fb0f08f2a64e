package ec

import (
	"math/big"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
)

// AffineArithmetic works directly on (x, y) and pays one field inversion for
// every non-trivial addition or doubling.
type AffineArithmetic struct {
	base
}

var _ Arithmetic = (*AffineArithmetic)(nil)

// NewAffine returns the affine backend for c.
func NewAffine(c *curves.Params, opts ...Option) *AffineArithmetic {
	return &AffineArithmetic{base: newBase(BackendAffine, c, opts)}
}

func (a *AffineArithmetic) Add(p, q Point) Point {
	return a.memo("add", nil, []Point{p, q}, func() Point {
		return a.add(a.ToAffine(p), a.ToAffine(q))
	})
}

func (a *AffineArithmetic) Double(p Point) Point {
	return a.memo("double", nil, []Point{p}, func() Point {
		return a.double(a.ToAffine(p))
	})
}

// ScalarMult is right-to-left double-and-add.
func (a *AffineArithmetic) ScalarMult(k *big.Int, p Point) Point {
	return a.memo("mul", k, []Point{p}, func() Point {
		a.metrics.operation(a.name, "mul")

		addend := a.ToAffine(p)
		if k.Sign() < 0 {
			addend = Negate(a.curve, addend)
		}
		e := new(big.Int).Abs(k)

		var acc Point = Infinity{}
		for i := 0; i < e.BitLen(); i++ {
			if e.Bit(i) == 1 {
				acc = a.add(acc, addend)
			}
			if i < e.BitLen()-1 {
				addend = a.double(addend)
			}
		}
		return acc
	})
}

// add expects p and q to be Infinity or Affine.
func (a *AffineArithmetic) add(p, q Point) Point {
	pa, ok := p.(Affine)
	if !ok {
		return q
	}
	qa, ok := q.(Affine)
	if !ok {
		return p
	}
	if pa.X.Cmp(qa.X) == 0 {
		if pa.Y.Cmp(qa.Y) != 0 {
			return Infinity{}
		}
		return a.double(pa)
	}
	a.metrics.operation(a.name, "add")

	// λ = (yq - yp) / (xq - xp)
	num := a.mod(new(big.Int).Sub(qa.Y, pa.Y))
	den := a.mod(new(big.Int).Sub(qa.X, pa.X))
	lambda := a.mod(num.Mul(num, a.invert(den)))

	return a.chord(lambda, pa, qa.X)
}

// double expects p to be Infinity or Affine.
func (a *AffineArithmetic) double(p Point) Point {
	pa, ok := p.(Affine)
	if !ok || pa.Y.Sign() == 0 {
		return Infinity{}
	}
	a.metrics.operation(a.name, "double")

	// λ = (3x² + a) / 2y
	num := new(big.Int).Mul(pa.X, pa.X)
	num.Mul(num, three)
	num.Add(num, a.curve.A)
	a.mod(num)
	den := a.mod(new(big.Int).Lsh(pa.Y, 1))
	lambda := a.mod(num.Mul(num, a.invert(den)))

	return a.chord(lambda, pa, pa.X)
}

// chord returns the third intersection of the line of slope lambda through
// p and the point with x-coordinate qx, reflected over the x-axis.
func (a *AffineArithmetic) chord(lambda *big.Int, p Affine, qx *big.Int) Affine {
	x := new(big.Int).Mul(lambda, lambda)
	x.Sub(x, p.X)
	x.Sub(x, qx)
	a.mod(x)

	y := new(big.Int).Sub(p.X, x)
	y.Mul(y, lambda)
	y.Sub(y, p.Y)
	a.mod(y)

	return Affine{X: x, Y: y}
}

func (a *AffineArithmetic) invert(v *big.Int) *big.Int {
	a.metrics.inversion(a.name)
	inv, err := modarith.ModInverse(v, a.curve.P)
	if err != nil {
		// v is a non-zero element of a prime field.
		panic(err)
	}
	return inv
}
