package exchange

import (
	"fmt"
	"io"

	"github.com/smallyu/go-ecdh/pkg/kex"
)

// Message types.
const (
	TypePublicKey    = "Exchange/PublicKey"
	TypeConfirmation = "Exchange/Confirmation"
)

// SessionKeySize is the length of Session.Key.
const SessionKeySize = 32

// sessionKeyInfo is the HKDF info string for Session.Key.
const sessionKeyInfo = "go-ecdh session key"

// Party is a minimal kex.PartyID.
type Party struct {
	IDStr      string
	MonikerStr string
}

// NewParty returns a party whose moniker is its id.
func NewParty(id string) *Party {
	return &Party{IDStr: id}
}

func (p *Party) ID() string { return p.IDStr }

func (p *Party) Moniker() string {
	if p.MonikerStr == "" {
		return p.IDStr
	}
	return p.MonikerStr
}

// Message is the kex.Message every exchange round sends.
type Message struct {
	FromParty  kex.PartyID
	ToParties  []kex.PartyID
	IsBcast    bool
	Data       []byte
	TypeString string
	RoundNum   uint32
}

func (m *Message) Type() string {
	return m.TypeString
}

func (m *Message) From() kex.PartyID {
	return m.FromParty
}

func (m *Message) To() []kex.PartyID {
	return m.ToParties
}

func (m *Message) IsBroadcast() bool {
	return m.IsBcast
}

func (m *Message) Payload() []byte {
	return m.Data
}

func (m *Message) RoundNumber() uint32 {
	return m.RoundNum
}

// Session is the result of a completed exchange. Secret is only released
// after the peer proved it derived the same value.
type Session struct {
	SessionID []byte
	Scheme    string
	Peer      kex.PartyID
	Secret    []byte
	Key       []byte // HKDF-SHA256(Secret, salt = SessionID)
}

// String never includes Secret or Key.
func (s Session) String() string {
	return fmt.Sprintf("Session{id: %s, scheme: %s, peer: %s, secret: [redacted]}", s.SessionID, s.Scheme, s.Peer.ID())
}

// Format makes every verb print String.
func (s Session) Format(f fmt.State, _ rune) {
	io.WriteString(f, s.String())
}
