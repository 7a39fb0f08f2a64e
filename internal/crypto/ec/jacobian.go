package ec

import (
	"math/big"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
)

// JacobianArithmetic works on (X, Y, Z) with x = X/Z², y = Y/Z³. Add, Double
// and ScalarMult never invert; ToAffine spends the single inversion.
type JacobianArithmetic struct {
	base
}

var _ Arithmetic = (*JacobianArithmetic)(nil)

// NewJacobian returns the Jacobian backend for c.
func NewJacobian(c *curves.Params, opts ...Option) *JacobianArithmetic {
	return &JacobianArithmetic{base: newBase(BackendJacobian, c, opts)}
}

func (j *JacobianArithmetic) Add(p, q Point) Point {
	return j.memo("add", nil, []Point{p, q}, func() Point {
		return j.add(j.lift(p), j.lift(q))
	})
}

func (j *JacobianArithmetic) Double(p Point) Point {
	return j.memo("double", nil, []Point{p}, func() Point {
		return j.double(j.lift(p))
	})
}

// ScalarMult is left-to-right double-and-add.
func (j *JacobianArithmetic) ScalarMult(k *big.Int, p Point) Point {
	return j.memo("mul", k, []Point{p}, func() Point {
		j.metrics.operation(j.name, "mul")

		q := j.lift(p)
		if k.Sign() < 0 {
			q = Negate(j.curve, q).(Jacobian)
		}
		e := new(big.Int).Abs(k)

		acc := jacobianInfinity()
		for i := e.BitLen() - 1; i >= 0; i-- {
			acc = j.double(acc)
			if e.Bit(i) == 1 {
				acc = j.add(acc, q)
			}
		}
		return acc
	})
}

func (j *JacobianArithmetic) lift(p Point) Jacobian {
	return ToJacobian(p).(Jacobian)
}

func (j *JacobianArithmetic) double(p Jacobian) Jacobian {
	if p.Z.Sign() == 0 || p.Y.Sign() == 0 {
		return jacobianInfinity()
	}
	j.metrics.operation(j.name, "double")

	y2 := j.mod(new(big.Int).Mul(p.Y, p.Y))

	// S = 4·X·Y²
	s := new(big.Int).Mul(p.X, y2)
	j.mod(s.Mul(s, four))

	// M = 3X² + a·Z⁴
	z2 := j.mod(new(big.Int).Mul(p.Z, p.Z))
	az4 := new(big.Int).Mul(z2, z2)
	j.mod(az4.Mul(az4, j.curve.A))
	m := new(big.Int).Mul(p.X, p.X)
	m.Mul(m, three)
	j.mod(m.Add(m, az4))

	// X' = M² - 2S
	x := new(big.Int).Mul(m, m)
	x.Sub(x, new(big.Int).Lsh(s, 1))
	j.mod(x)

	// Y' = M(S - X') - 8Y⁴
	y := new(big.Int).Sub(s, x)
	y.Mul(y, m)
	y4 := new(big.Int).Mul(y2, y2)
	y.Sub(y, y4.Mul(y4, eight))
	j.mod(y)

	// Z' = 2YZ
	z := new(big.Int).Mul(p.Y, p.Z)
	j.mod(z.Mul(z, two))

	return Jacobian{X: x, Y: y, Z: z}
}

func (j *JacobianArithmetic) add(p, q Jacobian) Jacobian {
	if p.Z.Sign() == 0 {
		return q
	}
	if q.Z.Sign() == 0 {
		return p
	}

	z1z1 := j.mod(new(big.Int).Mul(p.Z, p.Z))
	z2z2 := j.mod(new(big.Int).Mul(q.Z, q.Z))

	u1 := j.mod(new(big.Int).Mul(p.X, z2z2))
	u2 := j.mod(new(big.Int).Mul(q.X, z1z1))

	s1 := new(big.Int).Mul(p.Y, q.Z)
	j.mod(s1.Mul(s1, z2z2))
	s2 := new(big.Int).Mul(q.Y, p.Z)
	j.mod(s2.Mul(s2, z1z1))

	if u1.Cmp(u2) == 0 {
		if s1.Cmp(s2) != 0 {
			return jacobianInfinity()
		}
		return j.double(p)
	}
	j.metrics.operation(j.name, "add")

	h := j.mod(new(big.Int).Sub(u2, u1))
	r := j.mod(new(big.Int).Sub(s2, s1))

	h2 := j.mod(new(big.Int).Mul(h, h))
	h3 := j.mod(new(big.Int).Mul(h2, h))
	u1h2 := j.mod(new(big.Int).Mul(u1, h2))

	// X3 = R² - H³ - 2·U1·H²
	x := new(big.Int).Mul(r, r)
	x.Sub(x, h3)
	x.Sub(x, new(big.Int).Lsh(u1h2, 1))
	j.mod(x)

	// Y3 = R(U1·H² - X3) - S1·H³
	y := new(big.Int).Sub(u1h2, x)
	y.Mul(y, r)
	y.Sub(y, new(big.Int).Mul(s1, h3))
	j.mod(y)

	// Z3 = H·Z1·Z2
	z := new(big.Int).Mul(h, p.Z)
	z.Mul(z, q.Z)
	j.mod(z)

	return Jacobian{X: x, Y: y, Z: z}
}
