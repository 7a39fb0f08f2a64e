// Package kex defines the public surface of the key exchange engine: the
// Scheme a protocol agrees keys with, and the round-based StateMachine that
// drives two parties through an exchange.
package kex

import (
	"io"

	"github.com/pkg/errors"
)

// Common errors returned by the exchange protocols.
var (
	ErrInvalidMsg      = errors.New("kex: invalid message received")
	ErrProtocolDone    = errors.New("kex: protocol already finished")
	ErrUnexpectedRound = errors.New("kex: message for unexpected round")
)

// PartyID identifies a participant. It must be unique within a session.
type PartyID interface {
	// ID returns the unique string identifier for the party.
	ID() string

	// Moniker returns a human-readable name for the party (optional).
	Moniker() string
}

// Message is the generic interface for all protocol messages.
type Message interface {
	// Type returns a string identifier for the message type.
	Type() string

	// From returns the sender's PartyID.
	From() PartyID

	// To returns the intended recipients.
	// If nil or empty, the message is treated as a broadcast message.
	To() []PartyID

	// IsBroadcast returns true if the message is intended for all parties.
	IsBroadcast() bool

	// Payload returns the serialized data of the message.
	Payload() []byte

	// RoundNumber returns the protocol round this message belongs to.
	RoundNumber() uint32
}

// StateMachine drives one party through a protocol.
type StateMachine interface {
	// Update applies an incoming message to the current state.
	// It returns:
	// - next: The new state machine (nil if protocol finished or failed).
	// - out: A slice of messages to be sent to other parties.
	// - err: An error if the transition failed.
	Update(msg Message) (next StateMachine, out []Message, err error)

	// Result returns the final output of the protocol.
	// Returns nil if the protocol is not yet finished.
	Result() interface{}

	// Details returns metadata about the current state (e.g., "Exchange Round 2").
	Details() string
}

// Parameters holds the configuration for one exchange session.
type Parameters struct {
	PartyID   PartyID   // The identity of the local party
	Parties   []PartyID // Both participants, the local party included
	Scheme    string    // Name of the key agreement scheme, e.g. "ecdh/secp256k1"
	SessionID []byte    // Unique session identifier, bound into key confirmation
}

// ProtocolInitializer defines the function signature for starting a new protocol.
type ProtocolInitializer func(params *Parameters) (StateMachine, []Message, error)

// Scheme is a Diffie-Hellman style key agreement over private keys of type
// Private and public keys of type Public.
type Scheme[Private, Public any] interface {
	// Name identifies the scheme and its group, e.g. "ecdh/P-256".
	Name() string

	// Generate draws a fresh key pair from rng.
	Generate(rng io.Reader) (Public, Private, error)

	// DerivePublic returns the public key belonging to priv.
	DerivePublic(priv *Private) Public

	// SharedSize is the length of the value written by ComputeShared.
	SharedSize() int

	// ComputeShared writes the secret agreed between priv and the peer's pub
	// into shared, which must be SharedSize bytes long.
	ComputeShared(shared []byte, priv *Private, pub *Public) error

	// PublicKeySize is the length of a marshalled public key.
	PublicKeySize() int

	// MarshalPublic encodes pub into dst, which must be PublicKeySize bytes long.
	MarshalPublic(dst []byte, pub *Public)

	// ParsePublic decodes and validates a public key.
	ParsePublic(b []byte) (Public, error)
}
