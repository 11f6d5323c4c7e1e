// Package cql is the gocql-backed implementation of dbclient.DB. It issues
// schema/metadata queries against system_schema and a per-table CDC log
// (ScyllaDB's "<table>_scylla_cdc_log"), exposing typed Go methods rather
// than letting raw CQL strings leak into the rest of the codebase — the
// same façade-over-a-driver layering the teacher uses for its SQL access.
package cql

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/logging"
)

var log = logging.GetLogger("dbclient.cql")

// Config configures the cluster connection.
type Config struct {
	URI         string // e.g. "127.0.0.1:9042,127.0.0.2:9042"
	Keyspace    string
	NumConns    int
	Consistency gocql.Consistency
}

// DB wraps a *gocql.Session behind the dbclient.DB interface.
type DB struct {
	session *gocql.Session
}

// Open connects to the cluster described by cfg. The returned DB owns the
// session's connection pool; callers must call Close when done.
func Open(cfg Config) (*DB, error) {
	cluster := gocql.NewCluster(splitHosts(cfg.URI)...)
	cluster.Keyspace = cfg.Keyspace
	if cfg.NumConns > 0 {
		cluster.NumConns = cfg.NumConns
	}
	if cfg.Consistency != 0 {
		cluster.Consistency = cfg.Consistency
	} else {
		cluster.Consistency = gocql.Quorum
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cql: connect to %s: %w", cfg.URI, err)
	}
	log.Info("connected to cluster", "uri", cfg.URI, "keyspace", cfg.Keyspace)
	return &DB{session: session}, nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() {
	d.session.Close()
}

func (d *DB) LatestSchemaVersion(ctx context.Context) (uuid.UUID, error) {
	var id gocql.UUID
	err := d.session.Query(
		`SELECT schema_version FROM system.local WHERE key = 'local'`,
	).WithContext(ctx).Scan(&id)
	if err != nil {
		if err == gocql.ErrNotFound {
			return uuid.UUID{}, nil
		}
		return uuid.UUID{}, fmt.Errorf("cql: latest schema version: %w", err)
	}
	return uuid.UUID(id), nil
}

func (d *DB) GetIndexes(ctx context.Context) ([]dbclient.DbCustomIndex, error) {
	iter := d.session.Query(
		`SELECT keyspace_name, index_name FROM system_schema.vector_indexes`,
	).WithContext(ctx).Iter()

	var out []dbclient.DbCustomIndex
	var ks, idx string
	for iter.Scan(&ks, &idx) {
		out = append(out, dbclient.DbCustomIndex{
			Id: dbclient.IndexId{Keyspace: dbclient.KeyspaceName(ks), Index: idx},
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cql: get indexes: %w", err)
	}
	return out, nil
}

func (d *DB) GetIndexVersion(ctx context.Context, id dbclient.IndexId) (uuid.UUID, error) {
	var v gocql.UUID
	err := d.session.Query(
		`SELECT version FROM system_schema.vector_indexes WHERE keyspace_name = ? AND index_name = ?`,
		string(id.Keyspace), id.Index,
	).WithContext(ctx).Scan(&v)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("cql: index version for %s: %w", id, err)
	}
	return uuid.UUID(v), nil
}

func (d *DB) GetIndexTargetType(ctx context.Context, id dbclient.IndexId) (dbclient.ColumnName, int, dbclient.SimilarityValueKind, error) {
	var column string
	var dims int
	var kind string
	err := d.session.Query(
		`SELECT target_column, dimensions, value_kind FROM system_schema.vector_indexes WHERE keyspace_name = ? AND index_name = ?`,
		string(id.Keyspace), id.Index,
	).WithContext(ctx).Scan(&column, &dims, &kind)
	if err != nil {
		return "", 0, 0, fmt.Errorf("cql: index target type for %s: %w", id, err)
	}
	vk := dbclient.SimilarityF32
	if kind == "bit1" {
		vk = dbclient.SimilarityBit1
	}
	return dbclient.ColumnName(column), dims, vk, nil
}

func (d *DB) GetIndexParams(ctx context.Context, id dbclient.IndexId) (dbclient.IndexParams, dbclient.SpaceType, error) {
	var connectivity, expAdd, expSearch int
	var space string
	err := d.session.Query(
		`SELECT connectivity, expansion_add, expansion_search, similarity_space FROM system_schema.vector_indexes WHERE keyspace_name = ? AND index_name = ?`,
		string(id.Keyspace), id.Index,
	).WithContext(ctx).Scan(&connectivity, &expAdd, &expSearch, &space)
	if err != nil {
		return dbclient.IndexParams{}, 0, fmt.Errorf("cql: index params for %s: %w", id, err)
	}
	return dbclient.IndexParams{
		Connectivity:    connectivity,
		ExpansionAdd:    expAdd,
		ExpansionSearch: expSearch,
	}, parseSpace(space), nil
}

func parseSpace(s string) dbclient.SpaceType {
	switch s {
	case "cosine":
		return dbclient.SpaceCosine
	case "dot_product":
		return dbclient.SpaceDotProduct
	default:
		return dbclient.SpaceEuclidean
	}
}

// IsValidIndex has no database-side check beyond what the metadata queries
// already validated; it exists so callers don't need to special-case the
// cql backend versus a backend that does enforce an extra policy.
func (d *DB) IsValidIndex(ctx context.Context, meta dbclient.IndexMetadata) (bool, error) {
	return meta.Dimensions > 0, nil
}

func (d *DB) GetPrimaryKeyColumns(ctx context.Context, id dbclient.IndexId) ([]dbclient.ColumnName, error) {
	var table string
	if err := d.session.Query(
		`SELECT table_name FROM system_schema.vector_indexes WHERE keyspace_name = ? AND index_name = ?`,
		string(id.Keyspace), id.Index,
	).WithContext(ctx).Scan(&table); err != nil {
		return nil, fmt.Errorf("cql: resolve table for %s: %w", id, err)
	}

	iter := d.session.Query(
		`SELECT column_name FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ? AND kind IN ('partition_key', 'clustering')`,
		string(id.Keyspace), table,
	).WithContext(ctx).Iter()

	var out []dbclient.ColumnName
	var col string
	for iter.Scan(&col) {
		out = append(out, dbclient.ColumnName(col))
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cql: primary key columns for %s: %w", id, err)
	}
	return out, nil
}

// ScanPage and CDCTail live in scan.go: both need the column-type lookups
// and pk.Value decoding helpers defined there.

func splitHosts(uri string) []string {
	var hosts []string
	start := 0
	for i := 0; i <= len(uri); i++ {
		if i == len(uri) || uri[i] == ',' {
			if i > start {
				hosts = append(hosts, uri[start:i])
			}
			start = i + 1
		}
	}
	if len(hosts) == 0 {
		hosts = []string{uri}
	}
	return hosts
}

var _ dbclient.DB = (*DB)(nil)
