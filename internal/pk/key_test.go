package pk

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeySize pins the handle's size contract: one pointer, well inside the
// two-machine-word (16 byte on amd64) budget the codec must honour.
func TestKeySize(t *testing.T) {
	var k Key
	assert.LessOrEqual(t, unsafe.Sizeof(k), uintptr(16))
}

func TestSingleIntOverhead(t *testing.T) {
	k := MustEncode([]Value{Int(42)})
	// 1 byte count + 1 byte tag + 4 byte i32 = 6 bytes.
	assert.Len(t, k.Bytes(), 6)
}

func TestRoundtripInt(t *testing.T) {
	k := MustEncode([]Value{Int(42)})
	assert.Equal(t, 1, k.Len())
	v, ok := k.Get(0)
	require.True(t, ok)
	assert.Equal(t, Int(42), v)
	_, ok = k.Get(1)
	assert.False(t, ok)
}

func TestRoundtripMultipleColumns(t *testing.T) {
	k := MustEncode([]Value{Int(1), Text("hello")})
	assert.Equal(t, 2, k.Len())
	v0, _ := k.Get(0)
	v1, _ := k.Get(1)
	assert.Equal(t, Int(1), v0)
	assert.Equal(t, Text("hello"), v1)
}

func TestRoundtripAllScalarTypes(t *testing.T) {
	var uuid UUID
	copy(uuid[:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	timeUUID := TimeUUID(uuid)

	values := []Value{
		Empty{},
		Boolean(true),
		TinyInt(7),
		TinyInt(-128),
		TinyInt(127),
		SmallInt(256),
		SmallInt(-256),
		Int(100_000),
		Int(-100_000),
		BigInt(123_456_789_000),
		BigInt(-123_456_789_000),
		Float(3.14159),
		Float(-3.14159),
		Double(2.71828182845),
		Double(-2.71828182845),
		Text("hello world"),
		Ascii("ascii"),
		Blob([]byte{0xDE, 0xAD, 0xBE, 0xEF}),
		uuid,
		timeUUID,
		Date(19000),
		Time(43_200_000_000_000),
		Timestamp(1_700_000_000_000),
		Timestamp(-1_700_000_000_000),
		InetV4{127, 0, 0, 1},
		InetV6{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		Counter(42),
	}

	k := MustEncode(values)
	require.Equal(t, len(values), k.Len())
	for i, want := range values {
		got, ok := k.Get(i)
		require.True(t, ok, "index %d", i)
		assert.True(t, Equal(want, got), "mismatch at index %d: want %v got %v", i, want, got)
	}
}

func TestEqualityAndHashConsistency(t *testing.T) {
	k1 := MustEncode([]Value{Int(42), Text("foo")})
	k2 := MustEncode([]Value{Int(42), Text("foo")})
	k3 := MustEncode([]Value{Int(99)})

	assert.True(t, k1.Equal(k2))
	assert.False(t, k1.Equal(k3))

	assert.Equal(t, k1.Hash(), k2.Hash())
	assert.NotEqual(t, k1.Hash(), k3.Hash())
}

func TestHashPrefixConsistency(t *testing.T) {
	k1 := MustEncode([]Value{Int(42), Text("foo")})
	k2 := MustEncode([]Value{Int(42), Text("bar")})

	assert.Equal(t, k1.HashPrefix(1), k2.HashPrefix(1))
	assert.NotEqual(t, k1.HashPrefix(2), k2.HashPrefix(2))
}

// TestHashPrefixDisjointFromHash checks the two hash domains never collide
// for the common case of a single-column key, where count == n.
func TestHashPrefixDisjointFromHash(t *testing.T) {
	k := MustEncode([]Value{Int(42)})
	assert.NotEqual(t, k.Hash(), k.HashPrefix(k.Len()))
}

func TestIterYieldsAllValues(t *testing.T) {
	k := MustEncode([]Value{Int(1), Int(2), Int(3)})
	var got []Value
	for v := range k.Iter() {
		got = append(got, v)
	}
	assert.Equal(t, []Value{Int(1), Int(2), Int(3)}, got)
}

func TestStringFormat(t *testing.T) {
	k := MustEncode([]Value{Int(42)})
	s := k.String()
	assert.Contains(t, s, "Key(")
	assert.Contains(t, s, "42")
}

func TestBuilderProducesSameResultAsEncode(t *testing.T) {
	values := []Value{Int(42), Text("hello"), Boolean(true)}
	fromEncode := MustEncode(values)

	b := NewBuilder()
	b.MustPush(Int(42)).MustPush(Text("hello")).MustPush(Boolean(true))
	fromBuilder := b.Build()

	assert.True(t, fromEncode.Equal(fromBuilder))
}

func TestBuilderEmpty(t *testing.T) {
	k := NewBuilder().Build()
	assert.Equal(t, 0, k.Len())
	assert.True(t, k.IsEmpty())
	_, ok := k.Get(0)
	assert.False(t, ok)
}

func TestBuilderSingleValue(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Push(Int(99)))
	k := b.Build()
	assert.Equal(t, 1, k.Len())
	v, ok := k.Get(0)
	require.True(t, ok)
	assert.Equal(t, Int(99), v)
}

func TestCloneIsCheap(t *testing.T) {
	k1 := MustEncode([]Value{Int(42)})
	k2 := k1
	assert.True(t, k1.buf == k2.buf)
}

func TestMax255ColumnsIsAccepted(t *testing.T) {
	values := make([]Value, 255)
	for i := range values {
		values[i] = Int(int32(i))
	}
	k := MustEncode(values)
	assert.Equal(t, 255, k.Len())
}

func TestEncodeMoreThan255ColumnsReturnsError(t *testing.T) {
	values := make([]Value, 256)
	for i := range values {
		values[i] = Int(int32(i))
	}
	_, err := Encode(values)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 255 columns")
}

func TestMustEncodeMoreThan255ColumnsPanics(t *testing.T) {
	values := make([]Value, 256)
	for i := range values {
		values[i] = Int(int32(i))
	}
	assert.Panics(t, func() {
		MustEncode(values)
	})
}

func TestBuilderMoreThan255ColumnsErrors(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 255; i++ {
		require.NoError(t, b.Push(Int(int32(i))))
	}
	err := b.Push(Int(255))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 255 columns")
}

func TestEmptyKeyHasZeroLen(t *testing.T) {
	var k Key
	assert.Equal(t, 0, k.Len())
	assert.True(t, k.IsEmpty())
}
