package e2e

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/protocol/dh"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/internal/protocol/exchange"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

func TestMixedBackends(t *testing.T) {
	// Alice computes with affine arithmetic, Bob with Jacobian
	c, err := curves.FromName(curves.BrainpoolP160r1)
	if err != nil {
		t.Fatal(err)
	}
	aff, jac := ec.NewAffine(c), ec.NewJacobian(c)

	alice, err := ecdh.GenerateKeyPair(rand.Reader, aff)
	if err != nil {
		t.Fatalf("Alice failed to generate key: %v", err)
	}
	bob, err := ecdh.GenerateKeyPair(rand.Reader, jac)
	if err != nil {
		t.Fatalf("Bob failed to generate key: %v", err)
	}

	sa, err := ecdh.ComputeSharedSecret(aff, alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("Alice failed to compute secret: %v", err)
	}
	sb, err := ecdh.ComputeSharedSecret(jac, bob.Private, alice.Public)
	if err != nil {
		t.Fatalf("Bob failed to compute secret: %v", err)
	}
	if err := ecdh.VerifyAgreement(sa, sb); err != nil {
		t.Fatalf("Secrets differ: %v", err)
	}

	// The secret is dA·dB·G
	k := new(big.Int).Mul(alice.Private, bob.Private)
	want := jac.ToAffine(jac.ScalarMult(k, ec.Affine{X: c.Gx, Y: c.Gy}))
	if !ec.Equal(c, want, sa.Point) {
		t.Errorf("Secret %s is not dA·dB·G = %s", sa.Point, want)
	}
}

func TestGeneratedCurve(t *testing.T) {
	p := big.NewInt(1000003)
	c, err := curves.Generate(rand.Reader, "random", p, 1000)
	if err != nil {
		t.Fatalf("Curve generation failed: %v", err)
	}

	// Order unknown, degenerate secrets are possible on a small curve
	for i := 0; i < 5; i++ {
		res, err := ecdh.Exchange(rand.Reader, ec.NewJacobian(c))
		if errors.Is(err, ecdh.ErrDegenerateSecret) {
			continue
		}
		if err != nil {
			t.Fatalf("Exchange on %s failed: %v", c, err)
		}
		if !c.IsOnCurve(res.Secret.Point.X, res.Secret.Point.Y) {
			t.Errorf("Secret %s is not on %s", res.Secret.Point, c)
		}
	}
}

func TestSessionsAcrossSchemes(t *testing.T) {
	ctx := context.Background()
	alice, bob := exchange.NewParty("alice"), exchange.NewParty("bob")

	c, err := curves.FromName(curves.P256)
	if err != nil {
		t.Fatal(err)
	}
	e1, e2, err := exchange.Run[ecdh.PrivateKey, ecdh.PublicKey](ctx, ecdh.NewScheme(ec.NewJacobian(c)), alice, bob)
	if err != nil {
		t.Fatalf("ECDH exchange failed: %v", err)
	}

	params, err := dh.GenerateParams(rand.Reader, 96, dh.DefaultSearchConfig())
	if err != nil {
		t.Fatalf("DH parameters failed: %v", err)
	}
	d1, d2, err := exchange.Run[dh.PrivateKey, dh.PublicKey](ctx, dh.NewScheme(params), alice, bob)
	if err != nil {
		t.Fatalf("DH exchange failed: %v", err)
	}

	x1, x2, err := exchange.Run[kex.X25519Private, kex.X25519Public](ctx, kex.X25519{}, alice, bob)
	if err != nil {
		t.Fatalf("X25519 exchange failed: %v", err)
	}

	for _, pair := range [][2]*exchange.Session{{e1, e2}, {d1, d2}, {x1, x2}} {
		if !bytes.Equal(pair[0].Key, pair[1].Key) {
			t.Errorf("%s: session keys differ", pair[0].Scheme)
		}
	}
	if bytes.Equal(e1.Key, d1.Key) || bytes.Equal(d1.Key, x1.Key) {
		t.Error("Independent sessions produced the same key")
	}
}
