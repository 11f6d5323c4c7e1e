package pk

import (
	"bytes"
	"fmt"
	"hash/maphash"
	"iter"
	"strings"
)

// MaxColumns is the largest number of values a Key can hold. The column
// count is stored as a single byte, so 255 is a hard ceiling.
const MaxColumns = 255

// Key is a compact, cheaply-cloned encoding of a primary key.
//
// Key wraps a single pointer to its backing buffer, so copying a Key is a
// pointer copy that shares the same bytes — the Go analogue of the source
// encoding's reference-counted buffer, and well within the "one pointer,
// one length word" budget the type is required to stay inside (see
// TestKeySize).
type Key struct {
	buf *[]byte
}

// Encode serializes values into a Key. It fails if len(values) exceeds
// MaxColumns or if a Text/Ascii/Blob payload is too large for its u32
// length prefix.
func Encode(values []Value) (Key, error) {
	if len(values) > MaxColumns {
		return Key{}, fmt.Errorf("pk: Key supports at most %d columns, got %d", MaxColumns, len(values))
	}

	size := 1
	for _, v := range values {
		n, err := valueSize(v)
		if err != nil {
			return Key{}, err
		}
		size += n
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(len(values)))
	for _, v := range values {
		buf = appendValue(buf, v)
	}
	return Key{buf: &buf}, nil
}

// MustEncode is Encode, panicking instead of returning an error. Use it
// when the value count is known in advance to be within bounds (e.g. a
// fixed schema's column list), mirroring Encode the way the source's `new`
// mirrors `try_new`.
func MustEncode(values []Value) Key {
	k, err := Encode(values)
	if err != nil {
		panic(err)
	}
	return k
}

// Len returns the number of values in k. The zero Key has length 0.
func (k Key) Len() int {
	if k.buf == nil {
		return 0
	}
	return int((*k.buf)[0])
}

// IsEmpty reports whether k holds no values.
func (k Key) IsEmpty() bool {
	return k.Len() == 0
}

// Get decodes the value at index, reporting false if index is out of range.
// Decoding walks the buffer from the start, so this is O(index) — fine for
// the handful of columns a primary key typically has.
func (k Key) Get(index int) (Value, bool) {
	count := k.Len()
	if index < 0 || index >= count {
		return nil, false
	}
	data := *k.buf
	offset := 1
	for i := 0; i < index; i++ {
		offset += skipValue(data[offset:])
	}
	v, _ := decodeValue(data[offset:])
	return v, true
}

// Iter yields every value in k in order.
func (k Key) Iter() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		if k.buf == nil {
			return
		}
		data := *k.buf
		offset := 1
		for i := 0; i < k.Len(); i++ {
			v, n := decodeValue(data[offset:])
			offset += n
			if !yield(v) {
				return
			}
		}
	}
}

// Bytes exposes the raw encoded buffer. Callers must not mutate it.
func (k Key) Bytes() []byte {
	if k.buf == nil {
		return nil
	}
	return *k.buf
}

// Equal reports whether two keys encode the same value sequence. Per the
// encoding's determinism guarantee, this is exactly byte equality of the
// two buffers.
func (k Key) Equal(other Key) bool {
	return bytes.Equal(k.Bytes(), other.Bytes())
}

// hashSeed is process-wide so that two Keys hash equal within one process
// iff they compare Equal; it is not stable across restarts, which is fine
// for an in-memory index.
var hashSeed = maphash.MakeSeed()

// Hash hashes the full buffer, count byte included.
func (k Key) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	h.Write(k.Bytes())
	return h.Sum64()
}

// HashPrefix hashes only the first n values, in a domain deliberately
// disjoint from Hash: it mixes a prefix marker byte and n itself (not the
// stored count byte) ahead of the value bytes, so HashPrefix(k, k.Len())
// never hashes the same bytes as Hash(k). This keeps partition-key hashing (a prefix of the primary key)
// from colliding with full primary-key hashing.
//
// HashPrefix panics if n exceeds k.Len().
func (k Key) HashPrefix(n int) uint64 {
	count := k.Len()
	if n > count {
		panic(fmt.Sprintf("pk: HashPrefix(%d) called on Key with %d columns", n, count))
	}
	data := k.Bytes()
	offset := 1
	for i := 0; i < n; i++ {
		offset += skipValue(data[offset:])
	}

	var h maphash.Hash
	h.SetSeed(hashSeed)
	h.WriteByte(0xFF)
	h.WriteByte(byte(n))
	h.Write(data[1:offset])
	return h.Sum64()
}

// String renders k as a debug tuple, e.g. "Key(Int(42), Text(hello))".
func (k Key) String() string {
	var sb strings.Builder
	sb.WriteString("Key(")
	first := true
	for v := range k.Iter() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%v", v)
	}
	sb.WriteString(")")
	return sb.String()
}

// Builder constructs a Key from individual values without first collecting
// them into a slice — useful when columns are produced one at a time while
// scanning a row.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{buf: []byte{0}}
}

// Push appends a value, failing if the builder already holds MaxColumns
// values or the value can't be sized (e.g. an oversized Text payload).
func (b *Builder) Push(v Value) error {
	if int(b.buf[0]) >= MaxColumns {
		return fmt.Errorf("pk: Key supports at most %d columns", MaxColumns)
	}
	if _, err := valueSize(v); err != nil {
		return err
	}
	b.buf = appendValue(b.buf, v)
	b.buf[0]++
	return nil
}

// MustPush is Push, panicking instead of returning an error.
func (b *Builder) MustPush(v Value) *Builder {
	if err := b.Push(v); err != nil {
		panic(err)
	}
	return b
}

// Build finalizes the builder into a Key. The Builder must not be reused
// afterwards.
func (b *Builder) Build() Key {
	buf := b.buf
	return Key{buf: &buf}
}
