package exchange

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	mrand "math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/smallyu/go-ecdh/internal/crypto/commitment"
	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/protocol/dh"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

func ecdhScheme(curve, backend string) *ecdh.Scheme {
	c, err := curves.FromName(curve)
	Expect(err).NotTo(HaveOccurred())
	arith, err := ec.NewArithmetic(backend, c)
	Expect(err).NotTo(HaveOccurred())
	return ecdh.NewScheme(arith)
}

func params(self kex.PartyID, parties []kex.PartyID, sid string) *kex.Parameters {
	return &kex.Parameters{PartyID: self, Parties: parties, Scheme: "test", SessionID: []byte(sid)}
}

func expectAgreement(sa, sb *Session) {
	Expect(sa.Secret).NotTo(BeEmpty())
	Expect(sa.Secret).To(Equal(sb.Secret))
	Expect(sa.Key).To(HaveLen(SessionKeySize))
	Expect(sa.Key).To(Equal(sb.Key))
	Expect(sa.SessionID).To(Equal(sb.SessionID))
}

var _ = Describe("Exchange", func() {
	var (
		alice, bob *Party
		parties    []kex.PartyID
		scheme     *ecdh.Scheme
	)

	BeforeEach(func() {
		alice = NewParty("alice")
		bob = &Party{IDStr: "bob", MonikerStr: "Bob"}
		parties = []kex.PartyID{alice, bob}
		scheme = ecdhScheme(curves.Secp160r1, ec.BackendJacobian)
	})

	Describe("Run", func() {
		It("agrees over ECDH with either backend", func() {
			for _, backend := range ec.Backends() {
				s := ecdhScheme(curves.Secp256k1, backend)
				sa, sb, err := Run[ecdh.PrivateKey, ecdh.PublicKey](context.Background(), s, alice, bob)
				Expect(err).NotTo(HaveOccurred())
				expectAgreement(sa, sb)
				Expect(sa.Peer.ID()).To(Equal("bob"))
				Expect(sb.Peer.ID()).To(Equal("alice"))
				Expect(sa.Scheme).To(Equal("ecdh/secp256k1"))
				Expect(sa.Secret).To(HaveLen(32))
			}
		})

		It("agrees over classical DH", func() {
			p, err := dh.GenerateParams(mrand.New(mrand.NewSource(1)), 64, dh.DefaultSearchConfig())
			Expect(err).NotTo(HaveOccurred())
			sa, sb, err := Run[dh.PrivateKey, dh.PublicKey](context.Background(), dh.NewScheme(p), alice, bob)
			Expect(err).NotTo(HaveOccurred())
			expectAgreement(sa, sb)
		})

		It("agrees over classical DH with toy parameters every time", func() {
			s := dh.NewScheme(&dh.Params{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(4)})
			for i := 0; i < 200; i++ {
				sa, sb, err := Run[dh.PrivateKey, dh.PublicKey](context.Background(), s, alice, bob)
				Expect(err).NotTo(HaveOccurred())
				expectAgreement(sa, sb)
			}
		})

		It("agrees over X25519", func() {
			sa, sb, err := Run[kex.X25519Private, kex.X25519Public](context.Background(), kex.X25519{}, alice, bob)
			Expect(err).NotTo(HaveOccurred())
			expectAgreement(sa, sb)
		})

		It("uses a fresh session id every time", func() {
			s1, _, err := Run[ecdh.PrivateKey, ecdh.PublicKey](context.Background(), scheme, alice, bob)
			Expect(err).NotTo(HaveOccurred())
			s2, _, err := Run[ecdh.PrivateKey, ecdh.PublicKey](context.Background(), scheme, alice, bob)
			Expect(err).NotTo(HaveOccurred())
			Expect(s1.SessionID).NotTo(Equal(s2.SessionID))
			Expect(s1.Key).NotTo(Equal(s2.Key))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, _, err := Run[ecdh.PrivateKey, ecdh.PublicKey](ctx, scheme, alice, bob)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("logs progress without leaking the secret", func() {
			logger, hook := test.NewNullLogger()
			logger.SetLevel(logrus.DebugLevel)

			sa, _, err := Run[ecdh.PrivateKey, ecdh.PublicKey](context.Background(), scheme, alice, bob, WithLogger(logger))
			Expect(err).NotTo(HaveOccurred())

			completed := 0
			secret := hex.EncodeToString(sa.Secret)
			for _, e := range hook.AllEntries() {
				Expect(e.Data).To(HaveKey("party"))
				Expect(e.Data).To(HaveKeyWithValue("scheme", "ecdh/secp160r1"))
				line, err := e.String()
				Expect(err).NotTo(HaveOccurred())
				Expect(line).NotTo(ContainSubstring(secret))
				if e.Message == "exchange complete" {
					completed++
				}
			}
			Expect(completed).To(Equal(2))
		})

		It("is reproducible with a seeded reader", func() {
			run := func() *Session {
				sa, _, err := Run[ecdh.PrivateKey, ecdh.PublicKey](context.Background(), scheme, alice, bob,
					WithRand(mrand.New(mrand.NewSource(9))))
				Expect(err).NotTo(HaveOccurred())
				return sa
			}
			Expect(run().Secret).To(Equal(run().Secret))
		})
	})

	Describe("NewStateMachine", func() {
		It("broadcasts the public key in round 1", func() {
			sm, msgs, err := NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params(alice, parties, "sid"), scheme)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))

			msg := msgs[0]
			Expect(msg.RoundNumber()).To(Equal(uint32(1)))
			Expect(msg.IsBroadcast()).To(BeTrue())
			Expect(msg.Type()).To(Equal(TypePublicKey))
			Expect(msg.From().ID()).To(Equal("alice"))
			Expect(msg.Payload()).To(HaveLen(scheme.PublicKeySize()))

			_, err = scheme.ParsePublic(msg.Payload())
			Expect(err).NotTo(HaveOccurred())

			Expect(sm.Details()).To(Equal("Exchange Round 1"))
			Expect(sm.Result()).To(BeNil())
		})

		DescribeTable("rejects bad parameters",
			func(build func() *kex.Parameters) {
				_, _, err := NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](build(), scheme)
				Expect(err).To(HaveOccurred())
			},
			Entry("nil parameters", func() *kex.Parameters { return nil }),
			Entry("no session id", func() *kex.Parameters { return params(alice, parties, "") }),
			Entry("three parties", func() *kex.Parameters {
				return params(alice, append(parties, NewParty("carol")), "sid")
			}),
			Entry("not a participant", func() *kex.Parameters {
				return params(NewParty("carol"), parties, "sid")
			}),
			Entry("same party twice", func() *kex.Parameters {
				return params(alice, []kex.PartyID{alice, NewParty("alice")}, "sid")
			}),
		)
	})

	Describe("Update", func() {
		var (
			sa, sb       kex.StateMachine
			aOut, bOut   []kex.Message
			seededOption Option
		)

		BeforeEach(func() {
			var err error
			seededOption = WithRand(mrand.New(mrand.NewSource(3)))
			sa, aOut, err = NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params(alice, parties, "sid"), scheme, seededOption)
			Expect(err).NotTo(HaveOccurred())
			sb, bOut, err = NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params(bob, parties, "sid"), scheme, seededOption)
			Expect(err).NotTo(HaveOccurred())
		})

		It("completes after the key confirmation", func() {
			sa, aConf, err := sa.Update(bOut[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(aConf).To(HaveLen(1))
			Expect(aConf[0].Type()).To(Equal(TypeConfirmation))
			Expect(aConf[0].Payload()).To(HaveLen(commitment.Size))
			Expect(sa.Details()).To(Equal("Exchange Round 2"))
			Expect(sa.Result()).To(BeNil())

			sb, bConf, err := sb.Update(aOut[0])
			Expect(err).NotTo(HaveOccurred())

			sa, out, err := sa.Update(bConf[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
			sb, _, err = sb.Update(aConf[0])
			Expect(err).NotTo(HaveOccurred())

			Expect(sa.Details()).To(Equal("Exchange Done"))
			expectAgreement(sa.Result().(*Session), sb.Result().(*Session))

			_, _, err = sa.Update(bConf[0])
			Expect(err).To(MatchError(kex.ErrProtocolDone))
		})

		It("ignores its own messages", func() {
			next, out, err := sa.Update(aOut[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeNil())
			Expect(next).To(BeIdenticalTo(sa))
		})

		It("rejects messages for another round", func() {
			msg := &Message{FromParty: bob, IsBcast: true, Data: bOut[0].Payload(), TypeString: TypePublicKey, RoundNum: 2}
			_, _, err := sa.Update(msg)
			Expect(err).To(MatchError(kex.ErrUnexpectedRound))

			sa, _, err = sa.Update(bOut[0])
			Expect(err).NotTo(HaveOccurred())
			_, _, err = sa.Update(bOut[0])
			Expect(err).To(MatchError(kex.ErrUnexpectedRound))
		})

		It("rejects messages from strangers", func() {
			msg := &Message{FromParty: NewParty("mallory"), IsBcast: true, Data: bOut[0].Payload(), TypeString: TypePublicKey, RoundNum: 1}
			_, _, err := sa.Update(msg)
			Expect(err).To(MatchError(kex.ErrInvalidMsg))

			_, _, err = sa.Update(nil)
			Expect(err).To(MatchError(kex.ErrInvalidMsg))
		})

		It("blames a peer sending a point off the curve", func() {
			data := append([]byte(nil), bOut[0].Payload()...)
			data[len(data)-1] ^= 1
			msg := &Message{FromParty: bob, IsBcast: true, Data: data, TypeString: TypePublicKey, RoundNum: 1}

			_, _, err := sa.Update(msg)
			blame, ok := kex.AsBlame(err)
			Expect(ok).To(BeTrue())
			Expect(blame.PartyID.ID()).To(Equal("bob"))
			Expect(blame.Round).To(Equal(uint32(1)))
			Expect(curves.IsInvalidCurve(err)).To(BeTrue())
		})

		It("blames a peer sending the wrong message type", func() {
			msg := &Message{FromParty: bob, IsBcast: true, Data: bOut[0].Payload(), TypeString: TypeConfirmation, RoundNum: 1}
			_, _, err := sa.Update(msg)
			_, ok := kex.AsBlame(err)
			Expect(ok).To(BeTrue())
			Expect(err).To(MatchError(kex.ErrInvalidMsg))
		})

		It("blames a peer whose confirmation does not match", func() {
			sa, _, err := sa.Update(bOut[0])
			Expect(err).NotTo(HaveOccurred())
			_, bConf, err := sb.Update(aOut[0])
			Expect(err).NotTo(HaveOccurred())

			tampered := *bConf[0].(*Message)
			tampered.Data = append([]byte(nil), tampered.Data...)
			tampered.Data[commitment.SaltSize] ^= 1

			_, _, err = sa.Update(&tampered)
			blame, ok := kex.AsBlame(err)
			Expect(ok).To(BeTrue())
			Expect(blame.Round).To(Equal(uint32(2)))
			Expect(kex.IsSharedSecretMismatch(err)).To(BeTrue())
		})

		It("blames a malformed confirmation", func() {
			sa, _, err := sa.Update(bOut[0])
			Expect(err).NotTo(HaveOccurred())
			msg := &Message{FromParty: bob, IsBcast: true, Data: []byte("short"), TypeString: TypeConfirmation, RoundNum: 2}
			_, _, err = sa.Update(msg)
			_, ok := kex.AsBlame(err)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("Route", func() {
		It("fails both sides when the session ids differ", func() {
			sa, aOut, err := NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params(alice, parties, "one"), scheme)
			Expect(err).NotTo(HaveOccurred())
			sb, bOut, err := NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params(bob, parties, "two"), scheme)
			Expect(err).NotTo(HaveOccurred())

			machines := map[string]kex.StateMachine{"alice": sa, "bob": sb}
			err = Route(context.Background(), machines, append(aOut, bOut...))
			Expect(kex.IsSharedSecretMismatch(err)).To(BeTrue())
		})

		It("only delivers direct messages to their recipients", func() {
			msg := &Message{FromParty: alice, ToParties: []kex.PartyID{bob}, RoundNum: 1}
			Expect(addressedTo(msg, "bob")).To(BeTrue())
			Expect(addressedTo(msg, "carol")).To(BeFalse())
			msg.IsBcast = true
			Expect(addressedTo(msg, "carol")).To(BeTrue())
		})
	})

	Describe("Session", func() {
		It("redacts the secret when printed", func() {
			sa, _, err := Run[ecdh.PrivateKey, ecdh.PublicKey](context.Background(), scheme, alice, bob)
			Expect(err).NotTo(HaveOccurred())
			for _, out := range []string{sa.String(), fmt.Sprintf("%+v %x %#v", sa, sa, *sa)} {
				Expect(out).To(ContainSubstring("[redacted]"))
				Expect(out).NotTo(ContainSubstring(hex.EncodeToString(sa.Secret)))
			}
		})
	})
})
