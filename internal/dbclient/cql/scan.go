package cql

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/pk"
)

// The embedding column is modeled as a CQL list<float> rather than the
// native vector<float, n> type: gocql has no built-in marshaler for CQL's
// vector type as of this driver version, while list<float> round-trips
// through Scan into a plain []float32 with no custom codec.
const cdcLogSuffix = "_scylla_cdc_log"

// cdc$operation values from ScyllaDB's CDC log schema. Anything >=
// opRowDelete removes the row instead of updating its embedding.
const opRowDelete = 3

func (d *DB) tableName(ctx context.Context, id dbclient.IndexId) (string, error) {
	var table string
	if err := d.session.Query(
		`SELECT table_name FROM system_schema.vector_indexes WHERE keyspace_name = ? AND index_name = ?`,
		string(id.Keyspace), id.Index,
	).WithContext(ctx).Scan(&table); err != nil {
		return "", fmt.Errorf("cql: resolve table for %s: %w", id, err)
	}
	return table, nil
}

func (d *DB) columnTypes(ctx context.Context, keyspace, table string) (map[string]string, error) {
	iter := d.session.Query(
		`SELECT column_name, type FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?`,
		keyspace, table,
	).WithContext(ctx).Iter()

	types := make(map[string]string)
	var col, typ string
	for iter.Scan(&col, &typ) {
		types[col] = typ
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cql: column types for %s.%s: %w", keyspace, table, err)
	}
	return types, nil
}

// scanSchema is everything ScanPage/CDCTail need to turn raw query results
// into pk.Key + embedding pairs without re-deriving it per page.
type scanSchema struct {
	table      string
	pkColumns  []dbclient.ColumnName
	targetCol  dbclient.ColumnName
	colTypes   map[string]string
}

func (d *DB) resolveScanSchema(ctx context.Context, id dbclient.IndexId) (scanSchema, error) {
	table, err := d.tableName(ctx, id)
	if err != nil {
		return scanSchema{}, err
	}
	pkCols, err := d.GetPrimaryKeyColumns(ctx, id)
	if err != nil {
		return scanSchema{}, err
	}
	targetCol, _, _, err := d.GetIndexTargetType(ctx, id)
	if err != nil {
		return scanSchema{}, err
	}
	types, err := d.columnTypes(ctx, string(id.Keyspace), table)
	if err != nil {
		return scanSchema{}, err
	}
	return scanSchema{table: table, pkColumns: pkCols, targetCol: targetCol, colTypes: types}, nil
}

// newScanDest returns a pointer gocql's Scan can decode a column of the
// given CQL type into, and a converter from that pointer's value to a
// pk.Value of the matching variant.
func newScanDest(cqlType string) (dest any, convert func() (pk.Value, error)) {
	switch cqlType {
	case "text", "varchar":
		v := new(string)
		return v, func() (pk.Value, error) { return pk.Text(*v), nil }
	case "ascii":
		v := new(string)
		return v, func() (pk.Value, error) { return pk.Ascii(*v), nil }
	case "boolean":
		v := new(bool)
		return v, func() (pk.Value, error) { return pk.Boolean(*v), nil }
	case "tinyint":
		v := new(int8)
		return v, func() (pk.Value, error) { return pk.TinyInt(*v), nil }
	case "smallint":
		v := new(int16)
		return v, func() (pk.Value, error) { return pk.SmallInt(*v), nil }
	case "int":
		v := new(int32)
		return v, func() (pk.Value, error) { return pk.Int(*v), nil }
	case "bigint":
		v := new(int64)
		return v, func() (pk.Value, error) { return pk.BigInt(*v), nil }
	case "counter":
		v := new(int64)
		return v, func() (pk.Value, error) { return pk.Counter(*v), nil }
	case "float":
		v := new(float32)
		return v, func() (pk.Value, error) { return pk.Float(*v), nil }
	case "double":
		v := new(float64)
		return v, func() (pk.Value, error) { return pk.Double(*v), nil }
	case "blob":
		v := new([]byte)
		return v, func() (pk.Value, error) { return pk.Blob(*v), nil }
	case "uuid":
		v := new(gocql.UUID)
		return v, func() (pk.Value, error) { return pk.UUID(*v), nil }
	case "timeuuid":
		v := new(gocql.UUID)
		return v, func() (pk.Value, error) { return pk.TimeUUID(*v), nil }
	case "date":
		v := new(time.Time)
		// CQL dates are days since the epoch biased by 1<<31.
		return v, func() (pk.Value, error) { return pk.Date(uint32(v.Unix()/86400 + 1<<31)), nil }
	case "time":
		v := new(time.Duration)
		return v, func() (pk.Value, error) { return pk.Time(int64(*v)), nil }
	case "timestamp":
		v := new(time.Time)
		return v, func() (pk.Value, error) { return pk.Timestamp(v.UnixMilli()), nil }
	case "inet":
		v := new(net.IP)
		return v, func() (pk.Value, error) {
			if ip4 := v.To4(); ip4 != nil {
				var a [4]byte
				copy(a[:], ip4)
				return pk.InetV4(a), nil
			}
			var a [16]byte
			copy(a[:], v.To16())
			return pk.InetV6(a), nil
		}
	default:
		return nil, nil
	}
}

func decodeKey(schema scanSchema, converters []func() (pk.Value, error)) (pk.Key, error) {
	values := make([]pk.Value, len(converters))
	for i, conv := range converters {
		v, err := conv()
		if err != nil {
			return pk.Key{}, fmt.Errorf("cql: decode primary key column %s: %w", schema.pkColumns[i], err)
		}
		values[i] = v
	}
	return pk.Encode(values)
}

func (d *DB) ScanPage(ctx context.Context, id dbclient.IndexId, token []byte, pageSize int) (dbclient.ScanPage, error) {
	schema, err := d.resolveScanSchema(ctx, id)
	if err != nil {
		return dbclient.ScanPage{}, err
	}

	colNames := make([]string, 0, len(schema.pkColumns)+1)
	for _, c := range schema.pkColumns {
		colNames = append(colNames, string(c))
	}
	colNames = append(colNames, string(schema.targetCol))

	q := d.session.Query(
		fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(colNames, ", "), id.Keyspace, schema.table),
	).WithContext(ctx).PageSize(pageSize)
	if token != nil {
		q = q.PageState(token)
	}
	iter := q.Iter()

	var rows []dbclient.Row
	for {
		dests := make([]any, 0, len(colNames))
		converters := make([]func() (pk.Value, error), 0, len(schema.pkColumns))
		for _, c := range schema.pkColumns {
			dst, conv := newScanDest(schema.colTypes[string(c)])
			if dst == nil {
				iter.Close()
				return dbclient.ScanPage{}, fmt.Errorf("cql: unsupported primary key column type %q for %s", schema.colTypes[string(c)], c)
			}
			dests = append(dests, dst)
			converters = append(converters, conv)
		}
		var embedding []float32
		dests = append(dests, &embedding)

		if !iter.Scan(dests...) {
			break
		}
		key, err := decodeKey(schema, converters)
		if err != nil {
			iter.Close()
			return dbclient.ScanPage{}, err
		}
		rows = append(rows, dbclient.Row{Key: key, Embedding: embedding})
	}

	next := dbclient.Position(iter.PageState())
	if err := iter.Close(); err != nil {
		return dbclient.ScanPage{}, fmt.Errorf("cql: scan page for %s: %w", id, err)
	}
	var nextToken []byte
	if len(next) > 0 {
		nextToken = next
	}
	return dbclient.ScanPage{Rows: rows, NextToken: nextToken}, nil
}

func (d *DB) CDCTail(ctx context.Context, id dbclient.IndexId, position dbclient.Position) ([]dbclient.CDCEntry, dbclient.Position, error) {
	schema, err := d.resolveScanSchema(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	colNames := make([]string, 0, len(schema.pkColumns)+3)
	for _, c := range schema.pkColumns {
		colNames = append(colNames, string(c))
	}
	colNames = append(colNames, string(schema.targetCol), `"cdc$time"`, `"cdc$operation"`)

	var afterTime gocql.UUID
	if len(position) == 16 {
		copy(afterTime[:], position)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s.%s WHERE "cdc$time" > ? ALLOW FILTERING`,
		strings.Join(colNames, ", "), id.Keyspace, schema.table+cdcLogSuffix,
	)
	iter := d.session.Query(query, afterTime).WithContext(ctx).Iter()

	var entries []dbclient.CDCEntry
	lastTime := afterTime
	for {
		dests := make([]any, 0, len(colNames))
		converters := make([]func() (pk.Value, error), 0, len(schema.pkColumns))
		for _, c := range schema.pkColumns {
			dst, conv := newScanDest(schema.colTypes[string(c)])
			if dst == nil {
				iter.Close()
				return nil, nil, fmt.Errorf("cql: unsupported primary key column type %q for %s", schema.colTypes[string(c)], c)
			}
			dests = append(dests, dst)
			converters = append(converters, conv)
		}
		var embedding []float32
		var cdcTime gocql.UUID
		var op int
		dests = append(dests, &embedding, &cdcTime, &op)

		if !iter.Scan(dests...) {
			break
		}
		key, err := decodeKey(schema, converters)
		if err != nil {
			iter.Close()
			return nil, nil, err
		}
		entry := dbclient.CDCEntry{Key: key, Embedding: embedding}
		if op >= opRowDelete {
			entry.Embedding = nil
		}
		entries = append(entries, entry)
		lastTime = cdcTime
	}
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("cql: cdc tail for %s: %w", id, err)
	}
	return entries, dbclient.Position(lastTime[:]), nil
}
