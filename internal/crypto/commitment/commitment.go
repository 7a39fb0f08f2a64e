// Package commitment implements the salted SHA-256 commitment both parties
// use to confirm they derived the same shared secret without revealing it.
package commitment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// SaltSize is the length of the decommitment.
const SaltSize = 32

// Size is the length of an encoded commitment.
const Size = SaltSize + sha256.Size

// Commitment is C = SHA256(D || parts...) together with its salt D.
type Commitment struct {
	C []byte // hash
	D []byte // salt
}

// New commits to the given parts under a fresh salt read from rng. Each part
// is length-prefixed, so ("ab", "c") and ("a", "bc") commit differently.
func New(rng io.Reader, parts ...[]byte) (*Commitment, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return nil, errors.Wrap(err, "commitment: reading salt")
	}
	return &Commitment{C: digest(salt, parts), D: salt}, nil
}

// Verify reports whether c commits to parts under salt d.
func Verify(c, d []byte, parts ...[]byte) bool {
	if len(c) != sha256.Size || len(d) != SaltSize {
		return false
	}
	return subtle.ConstantTimeCompare(digest(d, parts), c) == 1
}

// Bytes returns D || C.
func (cm *Commitment) Bytes() []byte {
	out := make([]byte, 0, Size)
	out = append(out, cm.D...)
	return append(out, cm.C...)
}

// Parse is the inverse of Bytes.
func Parse(b []byte) (*Commitment, error) {
	if len(b) != Size {
		return nil, errors.Errorf("commitment: invalid length %d, want %d", len(b), Size)
	}
	return &Commitment{
		D: append([]byte(nil), b[:SaltSize]...),
		C: append([]byte(nil), b[SaltSize:]...),
	}, nil
}

func digest(salt []byte, parts [][]byte) []byte {
	h := sha256.New()
	h.Write(salt)
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return h.Sum(nil)
}
