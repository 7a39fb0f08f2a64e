package ec

import (
	"encoding/binary"
	"math/big"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
)

// CacheStats is a snapshot of cache activity.
type CacheStats struct {
	Entries uint64
	Gets    uint64
	Misses  uint64
}

// point tags
const (
	tagInfinity byte = iota
	tagAffine
	tagJacobian
)

func cacheKey(op, backend string, c *curves.Params, k *big.Int, operands []Point) []byte {
	key := appendBytes(nil, []byte(op))
	key = appendBytes(key, []byte(backend))
	key = appendInt(key, c.P)
	key = appendInt(key, c.A)
	if k != nil {
		key = appendInt(key, k)
	}
	for _, p := range operands {
		key = appendPoint(key, p)
	}
	return key
}

func appendBytes(dst, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// appendInt writes the sign as a separate byte so k and -k differ.
func appendInt(dst []byte, v *big.Int) []byte {
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	dst = append(dst, sign)
	return appendBytes(dst, v.Bytes())
}

func appendPoint(dst []byte, p Point) []byte {
	switch v := p.(type) {
	case Infinity:
		return append(dst, tagInfinity)
	case Affine:
		dst = append(dst, tagAffine)
		dst = appendBytes(dst, v.X.Bytes())
		return appendBytes(dst, v.Y.Bytes())
	case Jacobian:
		dst = append(dst, tagJacobian)
		dst = appendBytes(dst, v.X.Bytes())
		dst = appendBytes(dst, v.Y.Bytes())
		return appendBytes(dst, v.Z.Bytes())
	default:
		panic(unknownPoint(p))
	}
}

func decodePoint(b []byte) (Point, bool) {
	if len(b) == 0 {
		return nil, false
	}
	tag, rest := b[0], b[1:]

	var n int
	switch tag {
	case tagInfinity:
		return Infinity{}, len(rest) == 0
	case tagAffine:
		n = 2
	case tagJacobian:
		n = 3
	default:
		return nil, false
	}

	coords := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		size, w := binary.Uvarint(rest)
		if w <= 0 || uint64(len(rest)-w) < size {
			return nil, false
		}
		rest = rest[w:]
		coords = append(coords, new(big.Int).SetBytes(rest[:size]))
		rest = rest[size:]
	}
	if len(rest) != 0 {
		return nil, false
	}
	if n == 2 {
		return Affine{X: coords[0], Y: coords[1]}, true
	}
	return Jacobian{X: coords[0], Y: coords[1], Z: coords[2]}, true
}
