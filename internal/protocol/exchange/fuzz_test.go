package exchange

import (
	"testing"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

func FuzzPeerPublicKey(f *testing.F) {
	f.Add([]byte("short"))
	f.Add(make([]byte, 65))
	f.Add(append([]byte{4}, make([]byte, 64)...))
	f.Add(make([]byte, 1000))

	c, err := curves.FromName(curves.P256)
	if err != nil {
		f.Fatal(err)
	}
	scheme := ecdh.NewScheme(ec.NewJacobian(c))
	alice, bob := NewParty("alice"), NewParty("bob")

	f.Fuzz(func(t *testing.T, data []byte) {
		params := &kex.Parameters{
			PartyID:   alice,
			Parties:   []kex.PartyID{alice, bob},
			SessionID: []byte("fuzz-session"),
		}
		sm, _, err := NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params, scheme)
		if err != nil {
			t.Fatal(err)
		}
		msg := &Message{FromParty: bob, IsBcast: true, Data: data, TypeString: TypePublicKey, RoundNum: 1}

		// Either a confirmation or a blame, but no panic.
		_, out, err := sm.Update(msg)
		if err == nil && len(out) != 1 {
			t.Fatalf("expected one confirmation message, got %d", len(out))
		}
		if err != nil {
			if _, ok := kex.AsBlame(err); !ok {
				t.Fatalf("expected blame, got %v", err)
			}
		}
	})
}
