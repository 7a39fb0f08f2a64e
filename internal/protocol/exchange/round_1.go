package exchange

import (
	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/pkg/kex"
)

// round1 generates the local key pair and broadcasts the public key.
func (s *state[Private, Public]) round1() (kex.StateMachine, []kex.Message, error) {
	pub, priv, err := s.scheme.Generate(s.opts.rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "exchange: generating key pair")
	}
	s.priv = priv

	data := make([]byte, s.scheme.PublicKeySize())
	s.scheme.MarshalPublic(data, &pub)

	msg := &Message{
		FromParty:  s.params.PartyID,
		IsBcast:    true,
		Data:       data,
		TypeString: TypePublicKey,
		RoundNum:   1,
	}
	s.log.WithField("round", 1).Debugf("broadcasting public key %x", data)

	return s, []kex.Message{msg}, nil
}
