package decimal

import (
	"math/big"
	"strings"
)

// MaxScale is the largest scale a decimal128 column can carry.
const MaxScale = 38

var (
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	mask128 = new(big.Int).Sub(two128, big.NewInt(1))
	ten     = big.NewInt(10)
)

// Limbs is a 128-bit two's-complement integer split into four 32-bit words.
// Limbs[0] is the least significant word, Limbs[3] the most significant.
type Limbs [4]uint32

// LimbsFromHalves builds limbs from the high and low 64-bit halves used by
// Arrow's decimal128.Num.
func LimbsFromHalves(hi int64, lo uint64) Limbs {
	h := uint64(hi)
	return Limbs{uint32(lo), uint32(lo >> 32), uint32(h), uint32(h >> 32)}
}

// LimbsFromInt64 sign-extends v to 128 bits.
func LimbsFromInt64(v int64) Limbs {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return LimbsFromHalves(hi, uint64(v))
}

// LimbsFromBigInt wraps v modulo 2^128 into limbs. Values inside the signed
// 128-bit range round-trip through BigInt unchanged.
func LimbsFromBigInt(v *big.Int) Limbs {
	if v == nil {
		return Limbs{}
	}
	// big.Int bitwise operations use infinite two's-complement semantics, so
	// masking a negative value yields its 128-bit pattern.
	m := new(big.Int).And(v, mask128)
	lo := new(big.Int).And(m, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(m, 64).Uint64()
	return LimbsFromHalves(int64(hi), lo)
}

// LimbsFromSlice converts a raw word slice. It reports false unless the slice
// holds exactly four words.
func LimbsFromSlice(words []uint32) (Limbs, bool) {
	var l Limbs
	if len(words) != len(l) {
		return l, false
	}
	copy(l[:], words)
	return l, true
}

// Halves returns the high and low 64-bit halves.
func (l Limbs) Halves() (hi int64, lo uint64) {
	lo = uint64(l[0]) | uint64(l[1])<<32
	hi = int64(uint64(l[2]) | uint64(l[3])<<32)
	return hi, lo
}

// Negative reports whether the sign bit (bit 31 of the top word) is set.
func (l Limbs) Negative() bool {
	return l[3]&0x80000000 != 0
}

// IsZero reports whether all words are zero.
func (l Limbs) IsZero() bool {
	return l == Limbs{}
}

// Magnitude composes the words into the unsigned 128-bit integer M.
func (l Limbs) Magnitude() *big.Int {
	m := new(big.Int)
	for i := len(l) - 1; i >= 0; i-- {
		m.Lsh(m, 32)
		m.Or(m, new(big.Int).SetUint64(uint64(l[i])))
	}
	return m
}

// BigInt returns the signed value. Negative patterns are negated as
// -(2^128 - M), which is exact for the most negative value as well.
func (l Limbs) BigInt() *big.Int {
	m := l.Magnitude()
	if !l.Negative() {
		return m
	}
	return m.Neg(new(big.Int).Sub(two128, m))
}

// pow10 returns 10^scale.
func pow10(scale uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(scale)), nil)
}

// Decode returns the base-10 integer quotient of the signed value by
// 10^scale, truncated toward zero. Fractional digits are not rendered.
func Decode(l Limbs, scale uint8) string {
	v := l.BigInt()
	if scale == 0 {
		return v.String()
	}
	return v.Quo(v, pow10(scale)).String()
}

// DecodeWords is Decode over a raw word slice. ok is false when the slice is
// not exactly four words long.
func DecodeWords(words []uint32, scale uint8) (s string, ok bool) {
	l, ok := LimbsFromSlice(words)
	if !ok {
		return "", false
	}
	return Decode(l, scale), true
}

// Format renders the exact value with scale digits after the decimal point.
func Format(l Limbs, scale uint8) string {
	v := l.BigInt()
	if scale == 0 {
		return v.String()
	}
	neg := v.Sign() < 0
	digits := v.Abs(v).String()
	if pad := int(scale) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	cut := len(digits) - int(scale)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(digits[:cut])
	b.WriteByte('.')
	b.WriteString(digits[cut:])
	return b.String()
}
