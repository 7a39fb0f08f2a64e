package ec

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
)

// Backend names accepted by NewArithmetic.
const (
	BackendAffine   = "affine"
	BackendJacobian = "jacobian"
)

// Arithmetic is the group law of one curve in one coordinate system.
// Implementations accept points in any representation.
type Arithmetic interface {
	// Name returns the backend name.
	Name() string

	// Curve returns the curve the arithmetic operates on. It must not be
	// modified.
	Curve() *curves.Params

	// Add returns p + q.
	Add(p, q Point) Point

	// Double returns 2p.
	Double(p Point) Point

	// ScalarMult returns kp. A negative k multiplies -p by |k|.
	ScalarMult(k *big.Int, p Point) Point

	// ToAffine returns p as Infinity or Affine.
	ToAffine(p Point) Point
}

// Option configures a backend.
type Option func(*base)

// WithCache memoises Add, Double and ScalarMult results in c. A nil cache
// disables memoisation.
func WithCache(c *Cache) Option {
	return func(b *base) {
		b.cache = c
	}
}

// WithMetrics records inversions, point operations and cache hits in m.
func WithMetrics(m *Metrics) Option {
	return func(b *base) {
		b.metrics = m
	}
}

// NewArithmetic returns the backend called name for curve c.
func NewArithmetic(name string, c *curves.Params, opts ...Option) (Arithmetic, error) {
	switch name {
	case BackendAffine:
		return NewAffine(c, opts...), nil
	case BackendJacobian:
		return NewJacobian(c, opts...), nil
	default:
		return nil, errors.Errorf("ec: unknown backend %q", name)
	}
}

// Backends lists the names accepted by NewArithmetic.
func Backends() []string {
	return []string{BackendAffine, BackendJacobian}
}

// base carries what both backends share: the curve, the optional cache and
// the optional metrics.
type base struct {
	name    string
	curve   *curves.Params
	cache   *Cache
	metrics *Metrics
}

func newBase(name string, c *curves.Params, opts []Option) base {
	b := base{name: name, curve: c}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Curve() *curves.Params {
	return b.curve
}

func (b *base) ToAffine(p Point) Point {
	r, inverted := normalize(b.curve, p)
	if inverted {
		b.metrics.inversion(b.name)
	}
	return r
}

// memo returns compute() or its cached result for the same operation,
// scalar and operands on the same curve.
func (b *base) memo(op string, k *big.Int, operands []Point, compute func() Point) Point {
	if b.cache == nil {
		return compute()
	}
	key := cacheKey(op, b.name, b.curve, k, operands)
	if r, ok := b.cache.get(key); ok {
		b.metrics.cacheHit(b.name)
		return r
	}
	r := compute()
	b.cache.set(key, r)
	return r
}

func (b *base) mod(v *big.Int) *big.Int {
	return v.Mod(v, b.curve.P)
}
