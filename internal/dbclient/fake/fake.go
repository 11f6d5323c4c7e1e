// Package fake is an in-memory dbclient.DB for unit tests that exercise the
// reconciliation and ingestion loops (monitorindexes, monitoritems) without
// a live cluster. It is a plain mutex-guarded struct rather than a
// message-passing mock: a test double has no reason to pay for an actor's
// mailbox when a lock will do.
package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/scylladb/vector-store/internal/dbclient"
)

// indexRecord is everything the fake needs to answer the per-index metadata
// queries dbclient.DB defines.
type indexRecord struct {
	custom  dbclient.DbCustomIndex
	version uuid.UUID
	column  dbclient.ColumnName
	dims    int
	kind    dbclient.SimilarityValueKind
	params  dbclient.IndexParams
	space   dbclient.SpaceType
	pkCols  []dbclient.ColumnName
	valid   bool

	rows []dbclient.Row
	cdc  []dbclient.CDCEntry
}

// DB is a fake dbclient.DB. Zero value is usable.
type DB struct {
	mu            sync.Mutex
	schemaVersion uuid.UUID
	indexes       map[dbclient.IndexId]*indexRecord
}

// New returns an empty DB.
func New() *DB {
	return &DB{indexes: make(map[dbclient.IndexId]*indexRecord)}
}

// BumpSchemaVersion assigns a fresh random schema version, the way a real
// schema-change notification would.
func (d *DB) BumpSchemaVersion() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schemaVersion = uuid.New()
}

// AddIndex declares a new index (or replaces an existing one in place,
// bumping its version) and bumps the schema version.
func (d *DB) AddIndex(id dbclient.IndexId, table dbclient.TableName, column dbclient.ColumnName, dims int, pkCols []dbclient.ColumnName) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.indexes[id] = &indexRecord{
		custom:  dbclient.DbCustomIndex{Id: id},
		version: uuid.New(),
		column:  column,
		dims:    dims,
		kind:    dbclient.SimilarityF32,
		space:   dbclient.SpaceEuclidean,
		pkCols:  pkCols,
		valid:   true,
	}
	_ = table
	d.schemaVersion = uuid.New()
}

// RemoveIndex drops a declared index and bumps the schema version.
func (d *DB) RemoveIndex(id dbclient.IndexId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.indexes, id)
	d.schemaVersion = uuid.New()
}

// SetRows replaces the base-table rows an index's scan will return.
func (d *DB) SetRows(id dbclient.IndexId, rows []dbclient.Row) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.indexes[id]; ok {
		rec.rows = rows
	}
}

// PushCDC appends entries to an index's CDC log.
func (d *DB) PushCDC(id dbclient.IndexId, entries ...dbclient.CDCEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.indexes[id]; ok {
		rec.cdc = append(rec.cdc, entries...)
	}
}

func (d *DB) LatestSchemaVersion(ctx context.Context) (uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schemaVersion, nil
}

func (d *DB) GetIndexes(ctx context.Context) ([]dbclient.DbCustomIndex, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dbclient.DbCustomIndex, 0, len(d.indexes))
	for _, rec := range d.indexes {
		out = append(out, rec.custom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.String() < out[j].Id.String() })
	return out, nil
}

func (d *DB) GetIndexVersion(ctx context.Context, id dbclient.IndexId) (uuid.UUID, error) {
	rec, err := d.lookup(id)
	if err != nil {
		return uuid.UUID{}, err
	}
	return rec.version, nil
}

func (d *DB) GetIndexTargetType(ctx context.Context, id dbclient.IndexId) (dbclient.ColumnName, int, dbclient.SimilarityValueKind, error) {
	rec, err := d.lookup(id)
	if err != nil {
		return "", 0, 0, err
	}
	return rec.column, rec.dims, rec.kind, nil
}

func (d *DB) GetIndexParams(ctx context.Context, id dbclient.IndexId) (dbclient.IndexParams, dbclient.SpaceType, error) {
	rec, err := d.lookup(id)
	if err != nil {
		return dbclient.IndexParams{}, 0, err
	}
	return rec.params, rec.space, nil
}

func (d *DB) IsValidIndex(ctx context.Context, meta dbclient.IndexMetadata) (bool, error) {
	rec, err := d.lookup(meta.Id)
	if err != nil {
		return false, nil
	}
	return rec.valid, nil
}

func (d *DB) GetPrimaryKeyColumns(ctx context.Context, id dbclient.IndexId) ([]dbclient.ColumnName, error) {
	rec, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	return rec.pkCols, nil
}

func (d *DB) ScanPage(ctx context.Context, id dbclient.IndexId, token []byte, pageSize int) (dbclient.ScanPage, error) {
	rec, err := d.lookup(id)
	if err != nil {
		return dbclient.ScanPage{}, err
	}
	start := 0
	if token != nil {
		start = int(token[0])
	}
	end := start + pageSize
	if end > len(rec.rows) {
		end = len(rec.rows)
	}
	page := dbclient.ScanPage{Rows: rec.rows[start:end]}
	if end < len(rec.rows) {
		page.NextToken = []byte{byte(end)}
	}
	return page, nil
}

func (d *DB) CDCTail(ctx context.Context, id dbclient.IndexId, position dbclient.Position) ([]dbclient.CDCEntry, dbclient.Position, error) {
	rec, err := d.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	start := 0
	if position != nil {
		start = int(position[0])
	}
	if start >= len(rec.cdc) {
		return nil, position, nil
	}
	batch := rec.cdc[start:]
	return batch, dbclient.Position([]byte{byte(len(rec.cdc))}), nil
}

func (d *DB) lookup(id dbclient.IndexId) (*indexRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.indexes[id]
	if !ok {
		return nil, fmt.Errorf("fake: unknown index %s", id)
	}
	return rec, nil
}

var _ dbclient.DB = (*DB)(nil)
