package kex

import (
	"fmt"

	"github.com/pkg/errors"
)

// Blame is returned when an exchange aborts because of something the named
// party sent: a malformed public key, or a key confirmation that does not
// match the local secret.
type Blame struct {
	PartyID PartyID
	Round   uint32
	Reason  string
	Err     error
}

func (b *Blame) Error() string {
	msg := fmt.Sprintf("kex: party %s blamed in round %d: %s", b.PartyID.ID(), b.Round, b.Reason)
	if b.Err != nil {
		msg += ": " + b.Err.Error()
	}
	return msg
}

func (b *Blame) Unwrap() error {
	return b.Err
}

// NewBlame creates a Blame for party in the given round.
func NewBlame(party PartyID, round uint32, reason string, err error) *Blame {
	return &Blame{PartyID: party, Round: round, Reason: reason, Err: err}
}

// AsBlame returns the Blame in err's chain, if any.
func AsBlame(err error) (*Blame, bool) {
	var b *Blame
	if errors.As(err, &b) {
		return b, true
	}
	return nil, false
}

// SharedSecretMismatchError means the two sides of an exchange derived
// different secrets. Honest parties only get here through an arithmetic
// defect, so the exchange must be abandoned.
type SharedSecretMismatchError struct {
	Scheme string
}

func (e *SharedSecretMismatchError) Error() string {
	return fmt.Sprintf("kex: shared secrets disagree (%s)", e.Scheme)
}

// IsSharedSecretMismatch reports whether err is, or wraps, a
// *SharedSecretMismatchError.
func IsSharedSecretMismatch(err error) bool {
	var target *SharedSecretMismatchError
	return errors.As(err, &target)
}
