// Package ecdh implements elliptic-curve Diffie-Hellman over any curve and
// backend from the ec package.
package ecdh

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

// maxKeyAttempts bounds resampling when a private key maps to infinity,
// which only small curves can hit.
const maxKeyAttempts = 64

var two = big.NewInt(2)

// ErrDegenerateSecret is returned when the shared point is the identity.
var ErrDegenerateSecret = errors.New("ecdh: shared secret is the point at infinity")

// SharedSecretMismatchError is returned by VerifyAgreement.
type SharedSecretMismatchError = kex.SharedSecretMismatchError

// IsSharedSecretMismatch reports whether err is, or wraps, a
// *SharedSecretMismatchError.
func IsSharedSecretMismatch(err error) bool {
	return kex.IsSharedSecretMismatch(err)
}

// KeyPair is a private scalar and the public point it yields.
type KeyPair struct {
	Private *big.Int
	Public  ec.Affine
	Curve   *curves.Params
}

// String never includes the private scalar.
func (k KeyPair) String() string {
	return fmt.Sprintf("KeyPair{curve: %s, public: %v, private: [redacted]}", k.Curve.Name, k.Public)
}

// Format makes every verb, %#v included, print String.
func (k KeyPair) Format(f fmt.State, _ rune) {
	io.WriteString(f, k.String())
}

// GenerateKeyPair draws a private scalar uniformly from [2, p-2] and computes
// the public point with arith.
func GenerateKeyPair(rng io.Reader, arith ec.Arithmetic) (*KeyPair, error) {
	c := arith.Curve()
	g := ec.Affine{X: c.Gx, Y: c.Gy}
	hi := new(big.Int).Sub(c.P, two)

	for i := 0; i < maxKeyAttempts; i++ {
		d, err := modarith.RandInt(rng, two, hi)
		if err != nil {
			return nil, errors.Wrap(err, "ecdh: drawing private key")
		}
		pub, ok := arith.ToAffine(arith.ScalarMult(d, ec.ToJacobian(g))).(ec.Affine)
		if !ok {
			continue
		}
		return &KeyPair{Private: d, Public: pub, Curve: c}, nil
	}
	return nil, errors.Errorf("ecdh: no usable private key after %d attempts", maxKeyAttempts)
}

// SharedSecret is the point both parties agree on.
type SharedSecret struct {
	Point ec.Affine
	Curve *curves.Params
}

// ComputeSharedSecret multiplies the peer's public point by the own private
// scalar. The peer point is rejected unless it lies on the curve.
func ComputeSharedSecret(arith ec.Arithmetic, ownPrivate *big.Int, peer ec.Affine) (*SharedSecret, error) {
	c := arith.Curve()
	if !c.IsOnCurve(peer.X, peer.Y) {
		return nil, &curves.InvalidCurveError{Curve: c.Name, Reason: "peer public key is not on the curve"}
	}
	s, ok := arith.ToAffine(arith.ScalarMult(ownPrivate, ec.ToJacobian(peer))).(ec.Affine)
	if !ok {
		return nil, ErrDegenerateSecret
	}
	return &SharedSecret{Point: s, Curve: c}, nil
}

// X returns a copy of the x-coordinate.
func (s *SharedSecret) X() *big.Int {
	return new(big.Int).Set(s.Point.X)
}

// Bytes returns the x-coordinate as a fixed-width big-endian integer.
func (s *SharedSecret) Bytes() []byte {
	return s.Point.X.FillBytes(make([]byte, s.Curve.ByteLen()))
}

// Equal compares both coordinates in constant time.
func (s *SharedSecret) Equal(other *SharedSecret) bool {
	if other == nil || s.Curve.P.Cmp(other.Curve.P) != 0 {
		return false
	}
	a := ec.MarshalUncompressed(s.Curve, s.Point)
	b := ec.MarshalUncompressed(other.Curve, other.Point)
	return subtle.ConstantTimeCompare(a, b) == 1
}

// DeriveKey expands the secret into size bytes of key material with
// HKDF-SHA256.
func (s *SharedSecret) DeriveKey(salt, info []byte, size int) ([]byte, error) {
	return DeriveKey(s.Bytes(), salt, info, size)
}

// DeriveKey runs HKDF-SHA256 over an arbitrary shared value.
func DeriveKey(secret, salt, info []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, errors.Wrap(err, "ecdh: deriving key")
	}
	return out, nil
}

// VerifyAgreement must pass before a shared secret is used.
func VerifyAgreement(a, b *SharedSecret) error {
	if !a.Equal(b) {
		return &SharedSecretMismatchError{Scheme: "ecdh/" + a.Curve.Name}
	}
	return nil
}

// Result is the outcome of a local two-party exchange.
type Result struct {
	Alice, Bob *KeyPair
	Secret     *SharedSecret
}

// Exchange runs both sides of an exchange in-process and verifies that they
// agree.
func Exchange(rng io.Reader, arith ec.Arithmetic) (*Result, error) {
	alice, err := GenerateKeyPair(rng, arith)
	if err != nil {
		return nil, err
	}
	bob, err := GenerateKeyPair(rng, arith)
	if err != nil {
		return nil, err
	}

	sa, err := ComputeSharedSecret(arith, alice.Private, bob.Public)
	if err != nil {
		return nil, errors.Wrap(err, "ecdh: alice")
	}
	sb, err := ComputeSharedSecret(arith, bob.Private, alice.Public)
	if err != nil {
		return nil, errors.Wrap(err, "ecdh: bob")
	}
	if err := VerifyAgreement(sa, sb); err != nil {
		return nil, err
	}
	return &Result{Alice: alice, Bob: bob, Secret: sa}, nil
}
