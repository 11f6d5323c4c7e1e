package pk

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type tag constants for the compact encoding. Fixed-size types have a known
// payload length once the tag is known; variable-length types (Text, Ascii,
// Blob) carry a u32 length prefix after the tag.
const (
	tagEmpty byte = iota
	tagBoolean
	tagTinyInt
	tagSmallInt
	tagInt
	tagBigInt
	tagFloat
	tagDouble
	tagText
	tagAscii
	tagUUID
	tagTimeUUID
	tagDate
	tagTime
	tagTimestamp
	tagInetV4
	tagInetV6
	tagCounter
	tagBlob
)

const (
	tagSize    = 1
	varLenSize = 4 // u32 length prefix, little-endian
	uuidSize   = 16
	ipv4Size   = 4
)

// valueSize returns the number of bytes (tag + payload) a value occupies
// once encoded, or an error if a variable-length payload exceeds the u32
// length prefix.
func valueSize(v Value) (int, error) {
	switch t := v.(type) {
	case Empty:
		return tagSize, nil
	case Boolean:
		return tagSize + 1, nil
	case TinyInt:
		return tagSize + 1, nil
	case SmallInt:
		return tagSize + 2, nil
	case Int:
		return tagSize + 4, nil
	case BigInt:
		return tagSize + 8, nil
	case Float:
		return tagSize + 4, nil
	case Double:
		return tagSize + 8, nil
	case Text:
		return varLenPayloadSize("Text", len(t))
	case Ascii:
		return varLenPayloadSize("Ascii", len(t))
	case Blob:
		return varLenPayloadSize("Blob", len(t))
	case UUID:
		return tagSize + uuidSize, nil
	case TimeUUID:
		return tagSize + uuidSize, nil
	case Date:
		return tagSize + 4, nil
	case Time:
		return tagSize + 8, nil
	case Timestamp:
		return tagSize + 8, nil
	case InetV4:
		return tagSize + ipv4Size, nil
	case InetV6:
		return tagSize + uuidSize, nil
	case Counter:
		return tagSize + 8, nil
	default:
		return 0, fmt.Errorf("pk: unsupported value type %T", v)
	}
}

func varLenPayloadSize(kind string, n int) (int, error) {
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("pk: %s value too large for Key encoding (%d bytes)", kind, n)
	}
	return tagSize + varLenSize + n, nil
}

// appendValue appends the tag and payload of v to buf. Callers must have
// already validated v's size via valueSize.
func appendValue(buf []byte, v Value) []byte {
	switch t := v.(type) {
	case Empty:
		return append(buf, tagEmpty)
	case Boolean:
		b := byte(0)
		if t {
			b = 1
		}
		return append(buf, tagBoolean, b)
	case TinyInt:
		return append(buf, tagTinyInt, byte(t))
	case SmallInt:
		buf = append(buf, tagSmallInt)
		return binary.LittleEndian.AppendUint16(buf, uint16(t))
	case Int:
		buf = append(buf, tagInt)
		return binary.LittleEndian.AppendUint32(buf, uint32(t))
	case BigInt:
		buf = append(buf, tagBigInt)
		return binary.LittleEndian.AppendUint64(buf, uint64(t))
	case Float:
		buf = append(buf, tagFloat)
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(t)))
	case Double:
		buf = append(buf, tagDouble)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(float64(t)))
	case Text:
		return appendVarLen(buf, tagText, []byte(t))
	case Ascii:
		return appendVarLen(buf, tagAscii, []byte(t))
	case Blob:
		return appendVarLen(buf, tagBlob, []byte(t))
	case UUID:
		return append(append(buf, tagUUID), t[:]...)
	case TimeUUID:
		return append(append(buf, tagTimeUUID), t[:]...)
	case Date:
		buf = append(buf, tagDate)
		return binary.LittleEndian.AppendUint32(buf, uint32(t))
	case Time:
		buf = append(buf, tagTime)
		return binary.LittleEndian.AppendUint64(buf, uint64(t))
	case Timestamp:
		buf = append(buf, tagTimestamp)
		return binary.LittleEndian.AppendUint64(buf, uint64(t))
	case InetV4:
		return append(append(buf, tagInetV4), t[:]...)
	case InetV6:
		return append(append(buf, tagInetV6), t[:]...)
	case Counter:
		buf = append(buf, tagCounter)
		return binary.LittleEndian.AppendUint64(buf, uint64(t))
	default:
		panic(fmt.Sprintf("pk: unsupported value type %T", v))
	}
}

func appendVarLen(buf []byte, tag byte, payload []byte) []byte {
	buf = append(buf, tag)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

// skipValue returns the number of bytes (tag + payload) the value at the
// start of data occupies, without decoding it.
func skipValue(data []byte) int {
	switch data[0] {
	case tagEmpty:
		return tagSize
	case tagBoolean, tagTinyInt:
		return tagSize + 1
	case tagSmallInt:
		return tagSize + 2
	case tagInt, tagFloat, tagDate:
		return tagSize + 4
	case tagBigInt, tagDouble, tagTime, tagTimestamp, tagCounter:
		return tagSize + 8
	case tagUUID, tagTimeUUID, tagInetV6:
		return tagSize + uuidSize
	case tagInetV4:
		return tagSize + ipv4Size
	case tagText, tagAscii, tagBlob:
		return tagSize + varLenSize + int(readVarLen(data))
	default:
		panic(fmt.Sprintf("pk: unknown tag in Key data: %d", data[0]))
	}
}

func readVarLen(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[tagSize : tagSize+varLenSize])
}

// decodeValue decodes the value at the start of data, returning it along
// with the number of bytes consumed.
func decodeValue(data []byte) (Value, int) {
	switch data[0] {
	case tagEmpty:
		return Empty{}, tagSize

	case tagBoolean:
		return Boolean(data[tagSize] != 0), tagSize + 1
	case tagTinyInt:
		return TinyInt(int8(data[tagSize])), tagSize + 1
	case tagSmallInt:
		v := int16(binary.LittleEndian.Uint16(data[tagSize : tagSize+2]))
		return SmallInt(v), tagSize + 2
	case tagInt:
		v := int32(binary.LittleEndian.Uint32(data[tagSize : tagSize+4]))
		return Int(v), tagSize + 4
	case tagBigInt:
		v := int64(binary.LittleEndian.Uint64(data[tagSize : tagSize+8]))
		return BigInt(v), tagSize + 8
	case tagFloat:
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[tagSize : tagSize+4]))
		return Float(v), tagSize + 4
	case tagDouble:
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[tagSize : tagSize+8]))
		return Double(v), tagSize + 8

	case tagText:
		n := int(readVarLen(data))
		start := tagSize + varLenSize
		return Text(data[start : start+n]), start + n
	case tagAscii:
		n := int(readVarLen(data))
		start := tagSize + varLenSize
		return Ascii(data[start : start+n]), start + n
	case tagBlob:
		n := int(readVarLen(data))
		start := tagSize + varLenSize
		b := make([]byte, n)
		copy(b, data[start:start+n])
		return Blob(b), start + n

	case tagUUID:
		var u UUID
		copy(u[:], data[tagSize:tagSize+uuidSize])
		return u, tagSize + uuidSize
	case tagTimeUUID:
		var u TimeUUID
		copy(u[:], data[tagSize:tagSize+uuidSize])
		return u, tagSize + uuidSize

	case tagDate:
		v := binary.LittleEndian.Uint32(data[tagSize : tagSize+4])
		return Date(v), tagSize + 4
	case tagTime:
		v := int64(binary.LittleEndian.Uint64(data[tagSize : tagSize+8]))
		return Time(v), tagSize + 8
	case tagTimestamp:
		v := int64(binary.LittleEndian.Uint64(data[tagSize : tagSize+8]))
		return Timestamp(v), tagSize + 8

	case tagInetV4:
		var a InetV4
		copy(a[:], data[tagSize:tagSize+ipv4Size])
		return a, tagSize + ipv4Size
	case tagInetV6:
		var a InetV6
		copy(a[:], data[tagSize:tagSize+uuidSize])
		return a, tagSize + uuidSize

	case tagCounter:
		v := int64(binary.LittleEndian.Uint64(data[tagSize : tagSize+8]))
		return Counter(v), tagSize + 8

	default:
		panic(fmt.Sprintf("pk: unknown tag in Key data: %d", data[0]))
	}
}
