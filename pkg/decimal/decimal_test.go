package decimal

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "invalid big int literal %q", s)
	return v
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		limbs Limbs
		scale uint8
		want  string
	}{
		{"zero", Limbs{0, 0, 0, 0}, 2, "0"},
		{"zero scale zero", Limbs{}, 0, "0"},
		{"identity", LimbsFromInt64(12345), 0, "12345"},
		{"positive truncates", LimbsFromInt64(12345), 2, "123"},
		{"negative truncates toward zero", LimbsFromInt64(-12345), 2, "-123"},
		{"negative below one", LimbsFromInt64(-5), 1, "0"},
		{"minus one", Limbs{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}, 0, "-1"},
		{"most negative", Limbs{0, 0, 0, 0x80000000}, 0, "-170141183460469231731687303715884105728"},
		{"most positive", Limbs{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0x7FFFFFFF}, 0, "170141183460469231731687303715884105727"},
		{"most negative scaled", Limbs{0, 0, 0, 0x80000000}, 38, "-1"},
		{"word composition", Limbs{1, 1, 0, 0}, 0, "4294967297"},
		{"scale beyond precision", LimbsFromInt64(99), 200, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.limbs, tt.scale))
		})
	}
}

func TestLimbs_BigInt(t *testing.T) {
	minInt128 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(-1),
		big.NewInt(-12345),
		mustBig(t, "99999999999999999999999999999999999999"),
		mustBig(t, "-99999999999999999999999999999999999999"),
		minInt128,
		maxInt128,
	}

	for _, v := range values {
		l := LimbsFromBigInt(v)
		assert.Equal(t, v.String(), l.BigInt().String())
		assert.Equal(t, v.Sign() < 0, l.Negative())
	}
}

func TestLimbs_Halves(t *testing.T) {
	l := LimbsFromHalves(-2, 7)
	assert.Equal(t, Limbs{7, 0, 0xFFFFFFFE, 0xFFFFFFFF}, l)

	hi, lo := l.Halves()
	assert.Equal(t, int64(-2), hi)
	assert.Equal(t, uint64(7), lo)
}

func TestLimbs_Magnitude(t *testing.T) {
	l := Limbs{0, 0, 0, 0x80000000}
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 127).String(), l.Magnitude().String())
	assert.True(t, l.Negative())
	assert.False(t, l.IsZero())
	assert.True(t, Limbs{}.IsZero())
}

func TestLimbsFromSlice(t *testing.T) {
	_, ok := LimbsFromSlice([]uint32{1, 2, 3})
	assert.False(t, ok)

	_, ok = LimbsFromSlice(nil)
	assert.False(t, ok)

	l, ok := LimbsFromSlice([]uint32{1, 2, 3, 4})
	require.True(t, ok)
	assert.Equal(t, Limbs{1, 2, 3, 4}, l)

	s, ok := DecodeWords([]uint32{100, 0, 0, 0}, 1)
	require.True(t, ok)
	assert.Equal(t, "10", s)

	_, ok = DecodeWords([]uint32{100}, 1)
	assert.False(t, ok)
}

// Decoding then scaling back reproduces the unscaled value up to the
// truncated remainder.
func TestDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		l := Limbs{rng.Uint32(), rng.Uint32(), rng.Uint32(), rng.Uint32()}
		scale := uint8(rng.Intn(MaxScale + 1))

		got, ok := new(big.Int).SetString(Decode(l, scale), 10)
		require.True(t, ok)

		orig := l.BigInt()
		_, rem := new(big.Int).QuoRem(orig, pow10(scale), new(big.Int))
		back := new(big.Int).Mul(got, pow10(scale))
		back.Add(back, rem)

		assert.Equal(t, orig.String(), back.String(), "limbs %v scale %d", l, scale)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		limbs Limbs
		scale uint8
		want  string
	}{
		{LimbsFromInt64(-12345), 2, "-123.45"},
		{LimbsFromInt64(12345), 0, "12345"},
		{LimbsFromInt64(5), 3, "0.005"},
		{LimbsFromInt64(-5), 3, "-0.005"},
		{Limbs{}, 2, "0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.limbs, tt.scale))
	}
}
