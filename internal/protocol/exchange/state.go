// Package exchange runs a two-party key exchange over any kex.Scheme as a
// round-based state machine:
//
//	round 1: each party broadcasts its public key
//	round 2: each party broadcasts a commitment to the shared secret, bound
//	         to the session id and its own party id
//	done:    each party checks the peer's commitment against its own secret
//
// The secret is only released once the peer's commitment verifies.
package exchange

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/smallyu/go-ecdh/pkg/kex"
)

type state[Private, Public any] struct {
	params *kex.Parameters
	scheme kex.Scheme[Private, Public]
	opts   options
	log    logrus.FieldLogger

	// Current round number (1-based)
	round int
	peer  kex.PartyID

	priv   Private
	secret []byte

	// Messages received in the current round, by sender id
	receivedMsgs map[string]kex.Message

	session *Session
}

// NewStateMachine starts an exchange for params.PartyID. It runs round 1
// immediately and returns the public key broadcast.
func NewStateMachine[Private, Public any](params *kex.Parameters, scheme kex.Scheme[Private, Public], opts ...Option) (kex.StateMachine, []kex.Message, error) {
	peer, err := validate(params)
	if err != nil {
		return nil, nil, err
	}
	o := buildOptions(opts)
	s := &state[Private, Public]{
		params: params,
		scheme: scheme,
		opts:   o,
		log: o.logger.WithFields(logrus.Fields{
			"session": string(params.SessionID),
			"party":   params.PartyID.ID(),
			"peer":    peer.ID(),
			"scheme":  scheme.Name(),
		}),
		round:        1,
		peer:         peer,
		receivedMsgs: make(map[string]kex.Message),
	}
	return s.round1()
}

func validate(params *kex.Parameters) (kex.PartyID, error) {
	if params == nil || params.PartyID == nil {
		return nil, errors.New("exchange: missing local party")
	}
	if len(params.SessionID) == 0 {
		return nil, errors.New("exchange: missing session id")
	}
	if len(params.Parties) != 2 {
		return nil, errors.Errorf("exchange: need exactly 2 parties, got %d", len(params.Parties))
	}
	self := params.PartyID.ID()
	a, b := params.Parties[0], params.Parties[1]
	if a == nil || b == nil || a.ID() == b.ID() {
		return nil, errors.New("exchange: parties must be distinct")
	}
	switch self {
	case a.ID():
		return b, nil
	case b.ID():
		return a, nil
	default:
		return nil, errors.Errorf("exchange: local party %s is not a participant", self)
	}
}

func (s *state[Private, Public]) Update(msg kex.Message) (kex.StateMachine, []kex.Message, error) {
	if s.session != nil {
		return nil, nil, kex.ErrProtocolDone
	}
	if msg == nil || msg.From() == nil {
		return nil, nil, errors.Wrap(kex.ErrInvalidMsg, "exchange: message without sender")
	}

	senderID := msg.From().ID()
	if senderID == s.params.PartyID.ID() {
		return s, nil, nil // Ignore own messages if looped back
	}
	if senderID != s.peer.ID() {
		return nil, nil, errors.Wrapf(kex.ErrInvalidMsg, "exchange: message from unknown party %s", senderID)
	}
	if msg.RoundNumber() != uint32(s.round) {
		return nil, nil, errors.Wrapf(kex.ErrUnexpectedRound, "exchange: received message for round %d, expected %d", msg.RoundNumber(), s.round)
	}
	if _, exists := s.receivedMsgs[senderID]; exists {
		return nil, nil, errors.Wrapf(kex.ErrInvalidMsg, "exchange: duplicate message from party %s", senderID)
	}
	s.receivedMsgs[senderID] = msg

	return s.nextRound()
}

func (s *state[Private, Public]) nextRound() (kex.StateMachine, []kex.Message, error) {
	switch s.round {
	case 1:
		return s.round2()
	case 2:
		return s.finish()
	default:
		return nil, nil, errors.Errorf("exchange: unknown round %d", s.round)
	}
}

// peerMessage returns the peer's message for the current round after
// checking its type.
func (s *state[Private, Public]) peerMessage(wantType string) (kex.Message, error) {
	msg, ok := s.receivedMsgs[s.peer.ID()]
	if !ok {
		return nil, errors.Errorf("exchange: missing round %d message", s.round)
	}
	if msg.Type() != wantType {
		return nil, kex.NewBlame(s.peer, uint32(s.round), "unexpected message type "+msg.Type(), kex.ErrInvalidMsg)
	}
	return msg, nil
}

func (s *state[Private, Public]) Result() interface{} {
	if s.session == nil {
		return nil
	}
	return s.session
}

func (s *state[Private, Public]) Details() string {
	if s.session != nil {
		return "Exchange Done"
	}
	return fmt.Sprintf("Exchange Round %d", s.round)
}
