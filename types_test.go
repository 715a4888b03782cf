package amqp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertType encodes v, checks the chosen code and encoded length, and
// verifies the round trip back to an equal value.
func assertType(t *testing.T, v Value, wantLen int, wantCode TypeCode) []byte {
	t.Helper()

	var buf bytes.Buffer
	code, err := v.Encode(&buf)
	require.NoError(t, err)
	assert.Equal(t, wantCode, code)
	assert.Equal(t, wantLen, buf.Len())

	encoded := append([]byte(nil), buf.Bytes()...)
	decoded, err := DecodeValue(&buf)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
	return encoded
}

func TestCheckTypes(t *testing.T) {
	assertType(t, Null{}, 1, TypeCodeNull)
	assertType(t, Bool(true), 1, TypeCodeBoolTrue)
	assertType(t, Bool(false), 1, TypeCodeBoolFalse)

	assertType(t, Ubyte(7), 2, TypeCodeUbyte)
	assertType(t, Ushort(512), 3, TypeCodeUshort)

	assertType(t, Uint(0), 1, TypeCodeUint0)
	assertType(t, Uint(255), 2, TypeCodeSmallUint)
	assertType(t, Uint(256), 5, TypeCodeUint)

	assertType(t, Ulong(0), 1, TypeCodeUlong0)
	assertType(t, Ulong(123), 2, TypeCodeSmallUlong)
	assertType(t, Ulong(1234), 9, TypeCodeUlong)

	assertType(t, Byte(-1), 2, TypeCodeByte)
	assertType(t, Short(-1024), 3, TypeCodeShort)

	assertType(t, Int(127), 2, TypeCodeSmallInt)
	assertType(t, Int(128), 5, TypeCodeInt)
	assertType(t, Int(-128), 2, TypeCodeSmallInt)
	assertType(t, Int(-129), 5, TypeCodeInt)

	assertType(t, Long(127), 2, TypeCodeSmallLong)
	assertType(t, Long(128), 9, TypeCodeLong)
	assertType(t, Long(-128), 2, TypeCodeSmallLong)
	assertType(t, Long(-129), 9, TypeCodeLong)

	assertType(t, String("Hello, world"), 14, TypeCodeStr8)
	assertType(t, String(strings.Repeat("a", 255)), 257, TypeCodeStr8)
	assertType(t, String(strings.Repeat("a", 256)), 261, TypeCodeStr32)
	assertType(t, Symbol("amqp:decode-error"), 19, TypeCodeSym8)
	assertType(t, Binary([]byte{1, 2, 3}), 5, TypeCodeBin8)
	assertType(t, Binary(bytes.Repeat([]byte{0xAB}, 300)), 305, TypeCodeBin32)
}

func TestExactBytes(t *testing.T) {
	b := assertType(t, Ulong(123), 2, TypeCodeSmallUlong)
	assert.Equal(t, []byte{0x53, 0x7B}, b)

	b = assertType(t, Ulong(1234), 9, TypeCodeUlong)
	assert.Equal(t, []byte{0x80, 0, 0, 0, 0, 0, 0, 0x04, 0xD2}, b)

	b = assertType(t, String("Hello, world"), 14, TypeCodeStr8)
	assert.Equal(t, append([]byte{0xA1, 0x0C}, []byte("Hello, world")...), b)

	long := strings.Repeat("a", 370)
	b = assertType(t, String(long), 375, TypeCodeStr32)
	assert.Equal(t, []byte{0xB1, 0, 0, 0x01, 0x72}, b[:5])
	assert.Equal(t, long, string(b[5:]))

	b = assertType(t, Uint(0), 1, TypeCodeUint0)
	assert.Equal(t, []byte{0x43}, b)
}

func TestListEncoding(t *testing.T) {
	b := assertType(t, List{
		Ulong(1),
		Ulong(42),
		String("Hello, world"),
	}, 21, TypeCodeList8)
	// size counts the count byte plus the encoded elements
	assert.Equal(t, []byte{0xC0, 0x13, 0x03}, b[:3])

	assertType(t, List{}, 1, TypeCodeList0)

	// a single oversized element pushes the list into the wide form
	b = assertType(t, List{String(strings.Repeat("x", 300))}, 314, TypeCodeList32)
	assert.Equal(t, byte(0xD0), b[0])

	// nested composites
	assertType(t, List{
		List{Uint(1), Uint(2)},
		Described{Descriptor: Ulong(0x1D), Body: List{String("a"), String("b")}},
		NewMap(MapEntry{Key: String("k"), Value: Bool(true)}),
	}, 29, TypeCodeList8)
}

func TestArrayEncoding(t *testing.T) {
	b := assertType(t, Array{Ulong(10), Ulong(20), Ulong(30)}, 7, TypeCodeArray8)
	assert.Equal(t, []byte{0xE0, 0x05, 0x03, 0x53, 0x0A, 0x14, 0x1E}, b)

	assertType(t, Array{String("a"), String("bb")}, 9, TypeCodeArray8)

	// empty arrays have no wire form of their own
	var buf bytes.Buffer
	code, err := Array{}.Encode(&buf)
	require.NoError(t, err)
	assert.Equal(t, TypeCodeNull, code)
	decoded, err := DecodeValue(&buf)
	require.NoError(t, err)
	assert.Equal(t, Null{}, decoded)
}

func TestArrayHomogeneity(t *testing.T) {
	// 1 encodes with the small constructor, 300 with the wide one
	var buf bytes.Buffer
	_, err := Array{Ulong(1), Ulong(300)}.Encode(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constructor")

	_, err = Array{Uint(5), String("no")}.Encode(&buf)
	require.Error(t, err)
}

func TestMapEncoding(t *testing.T) {
	m := NewMap(
		MapEntry{Key: String("b"), Value: Uint(2)},
		MapEntry{Key: String("a"), Value: Uint(1)},
	)
	b := assertType(t, m, 13, TypeCodeMap8)
	// the wire count is elements, not pairs
	assert.Equal(t, []byte{0xC1, 0x0B, 0x04}, b[:3])
	// insertion order is irrelevant: "a" sorts first
	assert.Equal(t, []byte{0xA1, 0x01, 'a'}, b[3:6])

	big := make([]MapEntry, 0, 130)
	for i := 0; i < 130; i++ {
		big = append(big, MapEntry{Key: Ubyte(uint8(i)), Value: Null{}})
	}
	assertType(t, NewMap(big...), 9+130*3, TypeCodeMap32)
}

func TestMapPutGet(t *testing.T) {
	m := NewMap()
	m = m.Put(String("x"), Uint(1))
	m = m.Put(String("x"), Uint(2))
	require.Len(t, m, 1)

	v, ok := m.Get(String("x"))
	require.True(t, ok)
	assert.Equal(t, Uint(2), v)

	_, ok = m.Get(String("y"))
	assert.False(t, ok)
}

func TestDescribedEncoding(t *testing.T) {
	v := Described{
		Descriptor: Ulong(0x1D),
		Body:       List{String("amqp:decode-error"), String("bad frame")},
	}
	b := assertType(t, v, 36, TypeCodeDescribed)
	assert.Equal(t, []byte{0x00, 0x53, 0x1D, 0xC0}, b[:4])
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare(Uint(1), Uint(1)))
	assert.Equal(t, -1, Compare(Uint(1), Uint(2)))
	assert.Equal(t, 1, Compare(String("b"), String("a")))
	assert.NotEqual(t, 0, Compare(Uint(1), Ulong(1)))
	assert.True(t, Equal(
		List{Symbol("a"), Binary([]byte{1})},
		List{Symbol("a"), Binary([]byte{1})},
	))
	assert.False(t, Equal(Null{}, Bool(false)))
}

func TestEncodeInvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	_, err := String([]byte{0xFF, 0xFE}).Encode(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid UTF-8 string")
}
