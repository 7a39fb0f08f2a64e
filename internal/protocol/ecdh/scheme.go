package ecdh

import (
	"io"
	"math/big"

	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

// PrivateKey wraps the private scalar for use with kex.
type PrivateKey struct {
	D *big.Int
}

// PublicKey is a finite curve point.
type PublicKey = ec.Affine

var _ kex.Scheme[PrivateKey, PublicKey] = (*Scheme)(nil)

// Scheme adapts an ec.Arithmetic to kex.Scheme. Public keys travel in SEC1
// uncompressed form and the shared value is the x-coordinate.
type Scheme struct {
	arith ec.Arithmetic
}

// NewScheme returns the ECDH scheme over arith's curve.
func NewScheme(arith ec.Arithmetic) *Scheme {
	return &Scheme{arith: arith}
}

func (s *Scheme) Name() string {
	return "ecdh/" + s.arith.Curve().Name
}

func (s *Scheme) Generate(rng io.Reader) (PublicKey, PrivateKey, error) {
	kp, err := GenerateKeyPair(rng, s.arith)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	return kp.Public, PrivateKey{D: kp.Private}, nil
}

func (s *Scheme) DerivePublic(priv *PrivateKey) PublicKey {
	c := s.arith.Curve()
	pub, ok := s.arith.ToAffine(s.arith.ScalarMult(priv.D, ec.Affine{X: c.Gx, Y: c.Gy})).(ec.Affine)
	if !ok {
		panic("ecdh: private key maps to infinity")
	}
	return pub
}

func (s *Scheme) SharedSize() int {
	return s.arith.Curve().ByteLen()
}

func (s *Scheme) ComputeShared(shared []byte, priv *PrivateKey, pub *PublicKey) error {
	secret, err := ComputeSharedSecret(s.arith, priv.D, *pub)
	if err != nil {
		return err
	}
	copy(shared, secret.Bytes())
	return nil
}

func (s *Scheme) PublicKeySize() int {
	return 1 + 2*s.arith.Curve().ByteLen()
}

func (s *Scheme) MarshalPublic(dst []byte, pub *PublicKey) {
	copy(dst, ec.MarshalUncompressed(s.arith.Curve(), *pub))
}

func (s *Scheme) ParsePublic(b []byte) (PublicKey, error) {
	return ec.UnmarshalUncompressed(s.arith.Curve(), b)
}
