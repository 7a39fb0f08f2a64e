// Package dh is the classical finite-field Diffie-Hellman baseline: safe
// prime generation, generator search and the exchange itself.
package dh

import (
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// maxKeyAttempts bounds the resampling in GenerateKeyPair.
const maxKeyAttempts = 64

// sieve holds the odd primes below 256, used to discard candidates before
// any Miller-Rabin round is spent on them.
var sieve = func() []uint64 {
	var out []uint64
	for n := uint64(3); n < 256; n += 2 {
		prime := true
		for _, p := range out {
			if n%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			out = append(out, n)
		}
	}
	return out
}()

// ErrInvalidPublicKey is returned for a peer value outside [2, p-2] or
// outside the subgroup of order q.
var ErrInvalidPublicKey = errors.New("dh: invalid public key")

// PrimeSearchExhaustedError is returned when no safe prime of the requested
// size was found within the attempt budget.
type PrimeSearchExhaustedError struct {
	Bits     int
	Attempts int
}

func (e *PrimeSearchExhaustedError) Error() string {
	return fmt.Sprintf("dh: no %d-bit safe prime found in %d attempts", e.Bits, e.Attempts)
}

// GeneratorSearchExhaustedError is returned when no generator of the order-q
// subgroup was found within the attempt budget.
type GeneratorSearchExhaustedError struct {
	Attempts int
}

func (e *GeneratorSearchExhaustedError) Error() string {
	return fmt.Sprintf("dh: no generator found in %d attempts", e.Attempts)
}

// IsSearchExhausted reports whether err is, or wraps, either exhaustion error.
func IsSearchExhausted(err error) bool {
	var pe *PrimeSearchExhaustedError
	var ge *GeneratorSearchExhaustedError
	return errors.As(err, &pe) || errors.As(err, &ge)
}

// MismatchError is returned by VerifyAgreement.
type MismatchError = kex.SharedSecretMismatchError

// SearchConfig bounds the rejection-sampling loops.
type SearchConfig struct {
	MaxAttempts int // candidates drawn before giving up
	Rounds      int // Miller-Rabin rounds per primality test
}

// DefaultSearchConfig returns the budget used when nothing is configured.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{MaxAttempts: 1 << 20, Rounds: modarith.DefaultRounds}
}

// Params are a safe prime P = 2Q + 1 and a generator G of the subgroup of
// order Q.
type Params struct {
	P, Q, G *big.Int
}

// ByteLen is the width of an element of GF(P) in bytes.
func (p *Params) ByteLen() int {
	return (p.P.BitLen() + 7) / 8
}

func (p *Params) String() string {
	return fmt.Sprintf("dh(%d-bit, g=%s)", p.P.BitLen(), p.G)
}

// Validate re-checks that P = 2Q + 1 with both prime and that G generates
// the subgroup of order Q.
func (p *Params) Validate(rng io.Reader, rounds int) error {
	if p.P == nil || p.Q == nil || p.G == nil {
		return errors.New("dh: incomplete parameters")
	}
	if new(big.Int).Add(new(big.Int).Lsh(p.Q, 1), one).Cmp(p.P) != 0 {
		return errors.New("dh: p != 2q + 1")
	}
	for _, v := range []*big.Int{p.Q, p.P} {
		prime, err := modarith.IsProbablePrime(rng, v, rounds)
		if err != nil {
			return err
		}
		if !prime {
			return errors.Errorf("dh: %s is composite", v)
		}
	}
	if !isGenerator(p.G, p.P, p.Q) {
		return errors.New("dh: g does not generate the order-q subgroup")
	}
	return nil
}

// GenerateSafePrime returns a safe prime p = 2q + 1 of exactly bits bits.
// Candidates q have bits-1 bits and are odd.
func GenerateSafePrime(rng io.Reader, bits int, cfg SearchConfig) (p, q *big.Int, err error) {
	if bits < 3 {
		return nil, nil, errors.Errorf("dh: safe prime needs at least 3 bits, got %d", bits)
	}
	lo := new(big.Int).Lsh(one, uint(bits-2))
	hi := new(big.Int).Lsh(one, uint(bits-1))
	hi.Sub(hi, one)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		q, err := modarith.RandInt(rng, lo, hi)
		if err != nil {
			return nil, nil, errors.Wrap(err, "dh: drawing candidate")
		}
		q.SetBit(q, 0, 1)
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, one)

		if !passesSieve(q) || !passesSieve(p) {
			continue
		}
		ok, err := modarith.IsProbablePrime(rng, q, cfg.Rounds)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		ok, err = modarith.IsProbablePrime(rng, p, cfg.Rounds)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			return p, q, nil
		}
	}
	return nil, nil, &PrimeSearchExhaustedError{Bits: bits, Attempts: cfg.MaxAttempts}
}

// passesSieve is false when n has an odd prime factor below 256 other than
// itself.
func passesSieve(n *big.Int) bool {
	if !n.IsUint64() {
		var d, m big.Int
		for _, sp := range sieve {
			if m.Mod(n, d.SetUint64(sp)).Sign() == 0 {
				return false
			}
		}
		return true
	}
	v := n.Uint64()
	for _, sp := range sieve {
		if v != sp && v%sp == 0 {
			return false
		}
	}
	return true
}

// FindGenerator samples g in [2, p-2] until g² ≠ 1 and g^q = 1 mod p.
func FindGenerator(rng io.Reader, p, q *big.Int, cfg SearchConfig) (*big.Int, error) {
	hi := new(big.Int).Sub(p, two)
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		g, err := modarith.RandInt(rng, two, hi)
		if err != nil {
			return nil, errors.Wrap(err, "dh: drawing generator candidate")
		}
		if isGenerator(g, p, q) {
			return g, nil
		}
	}
	return nil, &GeneratorSearchExhaustedError{Attempts: cfg.MaxAttempts}
}

func isGenerator(g, p, q *big.Int) bool {
	if g.Cmp(two) < 0 || g.Cmp(new(big.Int).Sub(p, one)) >= 0 {
		return false
	}
	if modarith.ModPow(g, two, p).Cmp(one) == 0 {
		return false
	}
	return modarith.ModPow(g, q, p).Cmp(one) == 0
}

// GenerateParams finds a bits-bit safe prime and a generator for it.
func GenerateParams(rng io.Reader, bits int, cfg SearchConfig) (*Params, error) {
	p, q, err := GenerateSafePrime(rng, bits, cfg)
	if err != nil {
		return nil, err
	}
	g, err := FindGenerator(rng, p, q, cfg)
	if err != nil {
		return nil, err
	}
	return &Params{P: p, Q: q, G: g}, nil
}

// KeyPair is a private exponent and g raised to it.
type KeyPair struct {
	Private *big.Int
	Public  *big.Int
	Params  *Params
}

// String never includes the private exponent.
func (k KeyPair) String() string {
	return fmt.Sprintf("KeyPair{%s, public: %s, private: [redacted]}", k.Params, k.Public)
}

// Format makes every verb print String.
func (k KeyPair) Format(f fmt.State, _ rune) {
	io.WriteString(f, k.String())
}

// GenerateKeyPair draws the private exponent uniformly from [2, p-2]. An
// exponent that is a multiple of q maps to 1, which no peer accepts, and is
// drawn again.
func GenerateKeyPair(rng io.Reader, params *Params) (*KeyPair, error) {
	hi := new(big.Int).Sub(params.P, two)
	for i := 0; i < maxKeyAttempts; i++ {
		x, err := modarith.RandInt(rng, two, hi)
		if err != nil {
			return nil, errors.Wrap(err, "dh: drawing private key")
		}
		y := modarith.ModPow(params.G, x, params.P)
		if y.Cmp(one) == 0 {
			continue
		}
		return &KeyPair{Private: x, Public: y, Params: params}, nil
	}
	return nil, errors.Errorf("dh: no usable private key after %d attempts", maxKeyAttempts)
}

// ComputeSharedSecret returns peerPublic^ownPrivate mod p after checking that
// the peer value lies in the order-q subgroup.
func ComputeSharedSecret(params *Params, ownPrivate, peerPublic *big.Int) (*big.Int, error) {
	if peerPublic == nil || peerPublic.Cmp(two) < 0 || peerPublic.Cmp(new(big.Int).Sub(params.P, one)) >= 0 {
		return nil, errors.Wrap(ErrInvalidPublicKey, "out of range")
	}
	if modarith.ModPow(peerPublic, params.Q, params.P).Cmp(one) != 0 {
		return nil, errors.Wrap(ErrInvalidPublicKey, "not in the order-q subgroup")
	}
	return modarith.ModPow(peerPublic, ownPrivate, params.P), nil
}

// VerifyAgreement compares two shared values in constant time.
func VerifyAgreement(params *Params, a, b *big.Int) error {
	n := params.ByteLen()
	if a.Sign() < 0 || b.Sign() < 0 || a.BitLen() > 8*n || b.BitLen() > 8*n {
		return &MismatchError{Scheme: fmt.Sprintf("dh/%d", params.P.BitLen())}
	}
	if subtle.ConstantTimeCompare(a.FillBytes(make([]byte, n)), b.FillBytes(make([]byte, n))) != 1 {
		return &MismatchError{Scheme: fmt.Sprintf("dh/%d", params.P.BitLen())}
	}
	return nil
}

// Result is the outcome of a local two-party exchange.
type Result struct {
	Alice, Bob *KeyPair
	Secret     *big.Int
}

// Exchange runs both sides in-process and verifies that they agree.
func Exchange(rng io.Reader, params *Params) (*Result, error) {
	alice, err := GenerateKeyPair(rng, params)
	if err != nil {
		return nil, err
	}
	bob, err := GenerateKeyPair(rng, params)
	if err != nil {
		return nil, err
	}
	sa, err := ComputeSharedSecret(params, alice.Private, bob.Public)
	if err != nil {
		return nil, errors.Wrap(err, "dh: alice")
	}
	sb, err := ComputeSharedSecret(params, bob.Private, alice.Public)
	if err != nil {
		return nil, errors.Wrap(err, "dh: bob")
	}
	if err := VerifyAgreement(params, sa, sb); err != nil {
		return nil, err
	}
	return &Result{Alice: alice, Bob: bob, Secret: sa}, nil
}
