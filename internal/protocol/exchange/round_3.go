package exchange

import (
	"github.com/smallyu/go-ecdh/internal/crypto/commitment"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

// finish checks the peer's key confirmation and releases the session.
func (s *state[Private, Public]) finish() (kex.StateMachine, []kex.Message, error) {
	msg, err := s.peerMessage(TypeConfirmation)
	if err != nil {
		return nil, nil, err
	}

	comm, err := commitment.Parse(msg.Payload())
	if err != nil {
		return nil, nil, kex.NewBlame(s.peer, 2, "malformed key confirmation", err)
	}
	if !commitment.Verify(comm.C, comm.D, s.params.SessionID, []byte(s.peer.ID()), s.secret) {
		s.log.WithField("round", 2).Warn("key confirmation does not match")
		return nil, nil, kex.NewBlame(s.peer, 2, "key confirmation failed",
			&kex.SharedSecretMismatchError{Scheme: s.scheme.Name()})
	}

	key, err := ecdh.DeriveKey(s.secret, s.params.SessionID, []byte(sessionKeyInfo), SessionKeySize)
	if err != nil {
		return nil, nil, err
	}
	s.session = &Session{
		SessionID: s.params.SessionID,
		Scheme:    s.scheme.Name(),
		Peer:      s.peer,
		Secret:    s.secret,
		Key:       key,
	}
	s.round = 3
	s.log.Info("exchange complete")

	return s, nil, nil
}
