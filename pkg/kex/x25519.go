package kex

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
)

// X25519Private and X25519Public are RFC 7748 scalars and u-coordinates.
type (
	X25519Private = [curve25519.ScalarSize]byte
	X25519Public  = [curve25519.PointSize]byte
)

var _ Scheme[X25519Private, X25519Public] = X25519{}

// X25519 is the RFC 7748 function, used as a reference point next to the
// big-integer schemes.
type X25519 struct{}

func (X25519) Name() string {
	return "x25519"
}

func (X25519) Generate(rng io.Reader) (X25519Public, X25519Private, error) {
	var priv X25519Private
	if _, err := io.ReadFull(rng, priv[:]); err != nil {
		return X25519Public{}, X25519Private{}, errors.Wrap(err, "kex: reading x25519 scalar")
	}
	return X25519{}.DerivePublic(&priv), priv, nil
}

func (X25519) DerivePublic(priv *X25519Private) X25519Public {
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		// only reachable for low-order points, and the base point is not one
		panic(err)
	}
	return *(*X25519Public)(pub)
}

func (X25519) SharedSize() int {
	return curve25519.PointSize
}

func (X25519) ComputeShared(shared []byte, priv *X25519Private, pub *X25519Public) error {
	sh, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return errors.Wrap(err, "kex: x25519")
	}
	if len(shared) != len(sh) {
		panic(fmt.Sprintf("kex: shared is wrong length HAVE: %d WANT: %d", len(shared), len(sh)))
	}
	copy(shared, sh)
	return nil
}

func (X25519) PublicKeySize() int {
	return curve25519.PointSize
}

func (X25519) MarshalPublic(dst []byte, pub *X25519Public) {
	copy(dst, pub[:])
}

func (X25519) ParsePublic(b []byte) (X25519Public, error) {
	if len(b) != curve25519.PointSize {
		return X25519Public{}, errors.Errorf("kex: x25519 public key has length %d", len(b))
	}
	return *(*X25519Public)(b), nil
}
