// Package dbclient defines the façade this service consumes to talk to the
// wide-column database: schema/metadata discovery, per-index column lookup,
// a paginated base-table scan and a CDC tail. Session establishment,
// authentication and CQL-level serialization belong to the implementations
// under dbclient/cql and dbclient/fake, not to this package.
package dbclient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scylladb/vector-store/internal/pk"
)

// KeyspaceName, TableName and ColumnName are newtypes over string so that a
// caller can't accidentally pass a keyspace where a column name is expected.
type (
	KeyspaceName string
	TableName    string
	ColumnName   string
)

// IndexId identifies a declared vector index by keyspace and index name. It
// is stable across restarts and compares by value.
type IndexId struct {
	Keyspace KeyspaceName
	Index    string
}

func (id IndexId) String() string {
	return fmt.Sprintf("%s.%s", id.Keyspace, id.Index)
}

// SpaceType is the similarity space an index was declared with.
type SpaceType int

const (
	SpaceCosine SpaceType = iota
	SpaceEuclidean
	SpaceDotProduct
)

func (s SpaceType) String() string {
	switch s {
	case SpaceCosine:
		return "cosine"
	case SpaceEuclidean:
		return "euclidean"
	case SpaceDotProduct:
		return "dot_product"
	default:
		return "unknown"
	}
}

// SimilarityValueKind is the on-disk representation of each vector
// component.
type SimilarityValueKind int

const (
	SimilarityF32 SimilarityValueKind = iota
	SimilarityBit1
)

// IndexParams are the ANN tuning knobs carried in the schema. A zero value
// for any of these means "use the vector-index backend's default" — see
// internal/vectorindex, which normalises these before graph construction.
type IndexParams struct {
	Connectivity     int
	ExpansionAdd     int
	ExpansionSearch  int
}

// IndexMetadata fully describes one declared index as of a given schema
// version. Two IndexMetadata sharing an IndexId but differing in Version
// are distinct: the later supersedes the earlier, and the earlier's actor
// must be torn down.
type IndexMetadata struct {
	Id               IndexId
	TableName        TableName
	TargetColumn     ColumnName
	Dimensions       int
	Params           IndexParams
	Space            SpaceType
	ValueKind        SimilarityValueKind
	Version          uuid.UUID
}

// DbCustomIndex is the row shape returned by GetIndexes: just enough to
// resolve an IndexId into the keyspace/index pair metadata queries need.
type DbCustomIndex struct {
	Id IndexId
}

// Row is one base-table row surfaced by a scan or CDC batch: its primary
// key and (if present — it may be null on a delete) its embedding.
type Row struct {
	Key       pk.Key
	Embedding []float32 // nil on a delete/removal entry
}

// ScanPage is one page of a paginated, ordered base-table scan.
type ScanPage struct {
	Rows       []Row
	NextToken  []byte // nil when the scan is complete
}

// Position is an opaque, monotonically advancing CDC tail checkpoint. It is
// never persisted; a nil Position reads the CDC log from its beginning,
// which is where tailing starts after every start.
type Position []byte

// CDCEntry is one change-data-capture log entry.
type CDCEntry struct {
	Key       pk.Key
	Embedding []float32 // nil signals a Remove (delete or overwrite-with-null)
}

// DB is the capability this service consumes from the database driver: an
// out-of-scope collaborator per the specification (session establishment,
// auth and CQL serialization are someone else's problem). The two concrete
// implementations are dbclient/cql (gocql-backed, talks to a live cluster)
// and dbclient/fake (in-memory, for tests).
type DB interface {
	// LatestSchemaVersion returns the most recent schema-change time-UUID,
	// or the zero UUID if unknown.
	LatestSchemaVersion(ctx context.Context) (uuid.UUID, error)

	// GetIndexes enumerates declared vector indexes.
	GetIndexes(ctx context.Context) ([]DbCustomIndex, error)

	GetIndexVersion(ctx context.Context, id IndexId) (uuid.UUID, error)
	GetIndexTargetType(ctx context.Context, id IndexId) (ColumnName, int, SimilarityValueKind, error)
	GetIndexParams(ctx context.Context, id IndexId) (IndexParams, SpaceType, error)

	// IsValidIndex runs a user-defined validity check over metadata already
	// resolved from the other Get* calls.
	IsValidIndex(ctx context.Context, meta IndexMetadata) (bool, error)

	GetPrimaryKeyColumns(ctx context.Context, id IndexId) ([]ColumnName, error)

	// ScanPage reads the next page of an ordered, paginated base-table
	// scan for id. Pass a nil token to start from the beginning.
	ScanPage(ctx context.Context, id IndexId, token []byte, pageSize int) (ScanPage, error)

	// CDCTail reads CDC entries strictly after position, returning the
	// batch and the position to resume from on the next call.
	CDCTail(ctx context.Context, id IndexId, position Position) ([]CDCEntry, Position, error)
}
