// Package pk implements the compact primary-key encoding used to keep
// per-indexed-row memory small.
//
// A naive representation of a CQL primary key — a slice of a tagged sum-type
// value — costs one large fixed-size struct per element regardless of how
// small the actual value is (a single Int column still pays for the widest
// variant). For an index holding millions of rows that overhead dominates.
//
// A Key instead serializes its values into one contiguous byte buffer:
// [count byte][value0][value1]…[valueN-1], where each value is
// [tag byte][payload], payload using little-endian fixed width for scalars
// and a u32 length prefix for text/ascii/blob. Values are decoded on demand
// via Get or Iter; equality and hashing operate on the raw bytes.
package pk
