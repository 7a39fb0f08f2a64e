package curves

import (
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/internal/crypto/modarith"
)

// Catalogue names.
const (
	Toy23           = "toy23"
	Secp160r1       = "secp160r1"
	Secp160k1       = "secp160k1"
	BrainpoolP160r1 = "brainpoolP160r1"
	Secp256k1       = "secp256k1"
	P256            = "P-256"
	Wei25519        = "wei25519"
)

// montgomeryA is the coefficient A of Curve25519 in Montgomery form.
var montgomeryA = big.NewInt(486662)

var catalogue = map[string]*Params{}

// order in which SupportedCurves lists the catalogue
var names []string

func init() {
	register(mustNew(Toy23,
		big.NewInt(23), big.NewInt(1), big.NewInt(1),
		big.NewInt(3), big.NewInt(10),
		big.NewInt(28)))

	register(mustNew(Secp160r1,
		hexInt("ffffffffffffffffffffffffffffffff7fffffff"),
		hexInt("ffffffffffffffffffffffffffffffff7ffffffc"),
		hexInt("1c97befc54bd7a8b65acf89f81d4d4adc565fa45"),
		hexInt("4a96b5688ef573284664698968c38bb913cbfc82"),
		hexInt("23a628553168947d59dcc912042351377ac5fb32"),
		hexInt("0100000000000000000001f4c8f927aed3ca752257")))

	register(mustNew(Secp160k1,
		hexInt("fffffffffffffffffffffffffffffffeffffac73"),
		big.NewInt(0), big.NewInt(7),
		hexInt("3b4c382ce37aa192a4019e763036f4f5dd4d7ebb"),
		hexInt("938cf935318fdced6bc28286531733c3f03c4fee"),
		hexInt("0100000000000000000001b8fa16dfab9aca16b6b3")))

	register(mustNew(BrainpoolP160r1,
		hexInt("e95e4a5f737059dc60dfc7ad95b3d8139515620f"),
		hexInt("340e7be2a280eb74e2be61bada745d97e8f7c300"),
		hexInt("1e589a8595423412134faa2dbdec95c8d8675e58"),
		hexInt("bed5af16ea3f6a4f62938c4631eb5af7bdbcdbc3"),
		hexInt("1667cb477a1a8ec338f94741669c976316da6321"),
		hexInt("e95e4a5f737059dc60df5991d45029409e60fc09")))

	k := secp256k1.S256().Params()
	register(mustNew(Secp256k1, k.P, big.NewInt(0), k.B, k.Gx, k.Gy, k.N))

	p256 := hexInt("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff")
	register(mustNew(P256,
		p256,
		new(big.Int).Sub(p256, big.NewInt(3)),
		hexInt("5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b"),
		hexInt("6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296"),
		hexInt("4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5"),
		hexInt("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551")))

	register(mustNew(Wei25519,
		hexInt("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed"),
		hexInt("2aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa984914a144"),
		hexInt("7b425ed097b425ed097b425ed097b425ed097b425ed097b4260b5e9c7710c864"),
		hexInt("2aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaad245a"),
		hexInt("20ae19a1b8a086b4e01edd2c7748d14c923d4d7e6d7c61b229e9c5a27eced3d9"),
		hexInt("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed")))
}

func register(c *Params) {
	catalogue[strings.ToLower(c.Name)] = c
	names = append(names, c.Name)
}

func hexInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("curves: bad constant " + s)
	}
	return v
}

// FromName returns a copy of the named catalogue curve. Lookup is
// case-insensitive.
func FromName(name string) (*Params, error) {
	c, ok := catalogue[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("curves: unsupported curve %q", name)
	}
	return c.Clone(), nil
}

// SupportedCurves lists the names understood by FromName.
func SupportedCurves() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Wei25519ToMontgomery maps the x-coordinate of a wei25519 point to the
// little-endian u-coordinate X25519 uses for the same point.
func Wei25519ToMontgomery(x *big.Int) []byte {
	c := catalogue[strings.ToLower(Wei25519)]

	// u = x - A/3
	third, err := modarith.ModInverse(three, c.P)
	if err != nil {
		panic(err)
	}
	shift := new(big.Int).Mul(montgomeryA, third)
	u := new(big.Int).Sub(x, shift)
	u.Mod(u, c.P)

	out := make([]byte, 32)
	u.FillBytes(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
