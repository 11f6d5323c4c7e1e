package vectorindex

import (
	"context"
	"fmt"

	"github.com/scylladb/vector-store/internal/dbclient"
)

// Match is one ANN result: the internal graph node id and its distance
// under the index's similarity space, lower being closer.
type Match struct {
	Id       uint64
	Distance float32
}

// Params are the build/query knobs resolved from an index's declared
// metadata. A zero value in any numeric field means "implementation
// default" per the specification; Normalize fills those in before a Params
// reaches a backend, since some backends (Qdrant) treat a literal 0 as a
// real value rather than "unset".
type Params struct {
	Dimensions      int
	Connectivity    int
	ExpansionAdd    int
	ExpansionSearch int
	Space           dbclient.SpaceType
}

// Default tuning values used whenever the schema leaves a knob at zero.
const (
	DefaultConnectivity    = 16
	DefaultExpansionAdd    = 128
	DefaultExpansionSearch = 64
)

// Normalize replaces zero-valued knobs with the backend-wide defaults.
func (p Params) Normalize() Params {
	if p.Connectivity == 0 {
		p.Connectivity = DefaultConnectivity
	}
	if p.ExpansionAdd == 0 {
		p.ExpansionAdd = DefaultExpansionAdd
	}
	if p.ExpansionSearch == 0 {
		p.ExpansionSearch = DefaultExpansionSearch
	}
	return p
}

// Index is the capability an indexactor.Actor owns exclusively: one ANN
// graph scoped to a single declared index. Every method is synchronous;
// callers dispatch to a worker pool themselves (see internal/indexactor).
type Index interface {
	// Add inserts or replaces the vector stored at id.
	Add(ctx context.Context, id uint64, vector []float32) error
	// Remove retires id. Removing an absent id is not an error.
	Remove(ctx context.Context, id uint64) error
	// Search returns up to limit matches in nondecreasing distance order.
	Search(ctx context.Context, vector []float32, limit int) ([]Match, error)
	// Count returns the number of live ids at the time of the call.
	Count(ctx context.Context) (int, error)
	// Close releases any resources (network connections, memory) the
	// index holds.
	Close() error
}

// Factory builds a new Index for one declared index's metadata.
type Factory func(params Params) (Index, error)

// ErrDimension is returned by a backend's Add/Search when the supplied
// vector's length doesn't match the index's declared dimensionality.
type ErrDimension struct {
	Expected int
	Actual   int
}

func (e *ErrDimension) Error() string {
	return fmt.Sprintf("vectorindex: wrong embedding dimension: expected %d, got %d", e.Expected, e.Actual)
}
