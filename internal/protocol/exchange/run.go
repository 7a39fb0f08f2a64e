package exchange

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/pkg/kex"
)

// Run performs a complete exchange between two in-process parties under a
// fresh session id and returns the session each of them ends up with.
func Run[Private, Public any](ctx context.Context, scheme kex.Scheme[Private, Public], a, b kex.PartyID, opts ...Option) (*Session, *Session, error) {
	sid := []byte(uuid.NewString())
	parties := []kex.PartyID{a, b}

	machines := make(map[string]kex.StateMachine, len(parties))
	var queue []kex.Message
	for _, p := range parties {
		params := &kex.Parameters{
			PartyID:   p,
			Parties:   parties,
			Scheme:    scheme.Name(),
			SessionID: sid,
		}
		sm, out, err := NewStateMachine(params, scheme, opts...)
		if err != nil {
			return nil, nil, err
		}
		machines[p.ID()] = sm
		queue = append(queue, out...)
	}

	if err := Route(ctx, machines, queue); err != nil {
		return nil, nil, err
	}

	sa, _ := machines[a.ID()].Result().(*Session)
	sb, _ := machines[b.ID()].Result().(*Session)
	if sa == nil || sb == nil {
		return nil, nil, errors.New("exchange: protocol did not complete")
	}
	return sa, sb, nil
}

// Route delivers msgs, and every message they cause, to the machines they
// are addressed to until no message is left. machines is keyed by party id
// and updated in place.
func Route(ctx context.Context, machines map[string]kex.StateMachine, msgs []kex.Message) error {
	queue := append([]kex.Message(nil), msgs...)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "exchange: routing")
		}
		msg := queue[0]
		queue = queue[1:]

		for id, sm := range machines {
			if id == msg.From().ID() || !addressedTo(msg, id) {
				continue
			}
			next, out, err := sm.Update(msg)
			if err != nil {
				return errors.Wrapf(err, "exchange: party %s", id)
			}
			machines[id] = next
			queue = append(queue, out...)
		}
	}
	return nil
}

func addressedTo(msg kex.Message, id string) bool {
	if msg.IsBroadcast() || len(msg.To()) == 0 {
		return true
	}
	for _, p := range msg.To() {
		if p.ID() == id {
			return true
		}
	}
	return false
}
