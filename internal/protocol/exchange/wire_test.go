package exchange

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

var _ = Describe("Message JSON", func() {
	It("carries ids and a hex payload", func() {
		msg := &Message{
			FromParty:  NewParty("alice"),
			ToParties:  []kex.PartyID{NewParty("bob")},
			Data:       []byte{0x04, 0xab},
			TypeString: TypePublicKey,
			RoundNum:   1,
		}
		b, err := json.Marshal(msg)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(MatchJSON(`{"from":"alice","to":["bob"],"isBroadcast":false,"data":"04ab","type":"Exchange/PublicKey","round":1}`))

		var back Message
		Expect(json.Unmarshal(b, &back)).To(Succeed())
		Expect(back.From().ID()).To(Equal("alice"))
		Expect(back.To()).To(HaveLen(1))
		Expect(back.To()[0].ID()).To(Equal("bob"))
		Expect(back.Payload()).To(Equal([]byte{0x04, 0xab}))
		Expect(back.Type()).To(Equal(TypePublicKey))
		Expect(back.RoundNumber()).To(Equal(uint32(1)))
	})

	DescribeTable("rejects malformed input",
		func(in string) {
			var m Message
			Expect(json.Unmarshal([]byte(in), &m)).NotTo(Succeed())
		},
		Entry("not json", `nope`),
		Entry("no sender", `{"data":"00","round":1}`),
		Entry("bad hex", `{"from":"bob","data":"zz","round":1}`),
	)

	It("refuses to encode a message without sender", func() {
		_, err := json.Marshal(&Message{RoundNum: 1})
		Expect(err).To(HaveOccurred())
	})

	It("drives a complete exchange through JSON", func() {
		c, err := curves.FromName(curves.Secp160k1)
		Expect(err).NotTo(HaveOccurred())
		scheme := ecdh.NewScheme(ec.NewJacobian(c))
		parties := []kex.PartyID{NewParty("alice"), NewParty("bob")}

		machines := map[string]kex.StateMachine{}
		var queue []kex.Message
		for _, p := range parties {
			params := &kex.Parameters{PartyID: p, Parties: parties, SessionID: []byte("json")}
			sm, out, err := NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params, scheme)
			Expect(err).NotTo(HaveOccurred())
			machines[p.ID()] = sm
			queue = append(queue, out...)
		}

		// every hop goes through the wire form
		for len(queue) > 0 {
			b, err := json.Marshal(queue[0])
			Expect(err).NotTo(HaveOccurred())
			queue = queue[1:]

			var msg Message
			Expect(json.Unmarshal(b, &msg)).To(Succeed())
			for id, sm := range machines {
				if id == msg.From().ID() {
					continue
				}
				next, out, err := sm.Update(&msg)
				Expect(err).NotTo(HaveOccurred())
				machines[id] = next
				queue = append(queue, out...)
			}
		}

		sa := machines["alice"].Result().(*Session)
		sb := machines["bob"].Result().(*Session)
		expectAgreement(sa, sb)
	})
})
