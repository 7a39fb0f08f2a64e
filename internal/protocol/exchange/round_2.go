package exchange

import (
	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/commitment"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

// round2 computes the shared secret from the peer's public key and
// broadcasts a commitment to it.
func (s *state[Private, Public]) round2() (kex.StateMachine, []kex.Message, error) {
	msg, err := s.peerMessage(TypePublicKey)
	if err != nil {
		return nil, nil, err
	}

	peerPub, err := s.scheme.ParsePublic(msg.Payload())
	if err != nil {
		return nil, nil, kex.NewBlame(s.peer, 1, "invalid public key", err)
	}
	secret := make([]byte, s.scheme.SharedSize())
	if err := s.scheme.ComputeShared(secret, &s.priv, &peerPub); err != nil {
		return nil, nil, kex.NewBlame(s.peer, 1, "key agreement failed", err)
	}
	s.secret = secret

	comm, err := commitment.New(s.opts.rng, s.params.SessionID, []byte(s.params.PartyID.ID()), secret)
	if err != nil {
		return nil, nil, errors.Wrap(err, "exchange: committing to secret")
	}

	s.round = 2
	s.receivedMsgs = make(map[string]kex.Message)

	out := &Message{
		FromParty:  s.params.PartyID,
		IsBcast:    true,
		Data:       comm.Bytes(),
		TypeString: TypeConfirmation,
		RoundNum:   2,
	}
	s.log.WithField("round", 2).Debug("broadcasting key confirmation")

	return s, []kex.Message{out}, nil
}
