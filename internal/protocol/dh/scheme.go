package dh

import (
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

// PrivateKey is a private exponent.
type PrivateKey struct {
	X *big.Int
}

// PublicKey is g^x mod p.
type PublicKey struct {
	Y *big.Int
}

var _ kex.Scheme[PrivateKey, PublicKey] = (*Scheme)(nil)

// Scheme adapts Params to kex.Scheme. Public values and the shared secret
// are fixed-width big-endian integers.
type Scheme struct {
	params *Params
}

// NewScheme returns the finite-field scheme over params.
func NewScheme(params *Params) *Scheme {
	return &Scheme{params: params}
}

func (s *Scheme) Name() string {
	return fmt.Sprintf("dh/%d", s.params.P.BitLen())
}

func (s *Scheme) Generate(rng io.Reader) (PublicKey, PrivateKey, error) {
	kp, err := GenerateKeyPair(rng, s.params)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	return PublicKey{Y: kp.Public}, PrivateKey{X: kp.Private}, nil
}

func (s *Scheme) DerivePublic(priv *PrivateKey) PublicKey {
	return PublicKey{Y: modarith.ModPow(s.params.G, priv.X, s.params.P)}
}

func (s *Scheme) SharedSize() int {
	return s.params.ByteLen()
}

func (s *Scheme) ComputeShared(shared []byte, priv *PrivateKey, pub *PublicKey) error {
	v, err := ComputeSharedSecret(s.params, priv.X, pub.Y)
	if err != nil {
		return err
	}
	v.FillBytes(shared)
	return nil
}

func (s *Scheme) PublicKeySize() int {
	return s.params.ByteLen()
}

func (s *Scheme) MarshalPublic(dst []byte, pub *PublicKey) {
	pub.Y.FillBytes(dst)
}

func (s *Scheme) ParsePublic(b []byte) (PublicKey, error) {
	if len(b) != s.PublicKeySize() {
		return PublicKey{}, errors.Errorf("dh: public key has length %d, want %d", len(b), s.PublicKeySize())
	}
	y := new(big.Int).SetBytes(b)
	if y.Cmp(two) < 0 || y.Cmp(new(big.Int).Sub(s.params.P, one)) >= 0 {
		return PublicKey{}, errors.Wrap(ErrInvalidPublicKey, "out of range")
	}
	return PublicKey{Y: y}, nil
}
