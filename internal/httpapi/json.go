package httpapi

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/scylladb/vector-store/internal/pk"
)

// cqlDateBias is the offset CQL's native date encoding applies so that an
// unsigned u32 can represent dates on both sides of the Unix epoch: day 0 of
// the epoch is stored as 1<<31, per the CQL binary protocol's "date" type.
const cqlDateBias = uint32(1) << 31

// toJSON converts a decoded primary-key column value into the JSON shape
// clients see in an /ann response, matching the field-by-field mapping a
// CqlValue gets on the wire: booleans and numbers pass through, text-like
// and temporal values become strings, and blobs are base64-encoded since
// JSON has no binary type.
func toJSON(v pk.Value) (any, error) {
	switch t := v.(type) {
	case pk.Empty:
		return nil, nil
	case pk.Boolean:
		return bool(t), nil
	case pk.TinyInt:
		return int8(t), nil
	case pk.SmallInt:
		return int16(t), nil
	case pk.Int:
		return int32(t), nil
	case pk.BigInt:
		return int64(t), nil
	case pk.Counter:
		return int64(t), nil
	case pk.Float:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("httpapi: non-finite float value")
		}
		return f, nil
	case pk.Double:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("httpapi: non-finite double value")
		}
		return f, nil
	case pk.Text:
		return string(t), nil
	case pk.Ascii:
		return string(t), nil
	case pk.Blob:
		return base64.StdEncoding.EncodeToString(t), nil
	case pk.UUID:
		return uuid.UUID(t).String(), nil
	case pk.TimeUUID:
		return uuid.UUID(t).String(), nil
	case pk.Date:
		return dateToISO(t), nil
	case pk.Time:
		return timeToISO(t), nil
	case pk.Timestamp:
		return timestampToISO(t), nil
	case pk.InetV4:
		return fmt.Sprintf("%d.%d.%d.%d", t[0], t[1], t[2], t[3]), nil
	case pk.InetV6:
		return fmt.Sprintf("%x", t[:]), nil
	default:
		return nil, fmt.Errorf("httpapi: unsupported primary key value type %T", v)
	}
}

// dateToISO turns a CQL-native date (days since epoch, biased by
// 1<<31) into its ISO-8601 calendar-date string.
func dateToISO(d pk.Date) string {
	days := int64(uint32(d)) - int64(cqlDateBias)
	t := time.Unix(days*86400, 0).UTC()
	return t.Format("2006-01-02")
}

// timeToISO turns a CQL "time" value (nanoseconds since midnight) into its
// ISO-8601 time-of-day string.
func timeToISO(v pk.Time) string {
	d := time.Duration(v)
	t := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d)
	return t.Format("15:04:05.999999999")
}

// timestampToISO turns a CQL "timestamp" value (milliseconds since the Unix
// epoch) into an ISO-8601 datetime string with an explicit UTC offset.
func timestampToISO(v pk.Timestamp) string {
	t := time.UnixMilli(int64(v)).UTC()
	return t.Format("2006-01-02T15:04:05.999999999Z")
}
