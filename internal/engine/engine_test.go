package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/dbclient/fake"
	"github.com/scylladb/vector-store/internal/metrics"
	"github.com/scylladb/vector-store/internal/nodestate"
	"github.com/scylladb/vector-store/internal/pk"
	"github.com/scylladb/vector-store/internal/vectorindex"
)

func newTestHandle(t *testing.T, ctx context.Context, fdb dbclient.DB) Handle {
	t.Helper()
	node := nodestate.New(ctx)
	m := metrics.NewRegistry()
	return New(ctx, fdb, vectorindex.NewBruteForce(), node, m, 2)
}

func TestAddIndexThenAnnServesScannedRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})
	fdb.SetRows(id, []dbclient.Row{
		{Key: pk.MustEncode([]pk.Value{pk.Int(1)}), Embedding: []float32{1, 1}},
		{Key: pk.MustEncode([]pk.Value{pk.Int(2)}), Embedding: []float32{2, 2}},
	})

	h := newTestHandle(t, ctx, fdb)

	meta := dbclient.IndexMetadata{Id: id, Dimensions: 2, Space: dbclient.SpaceEuclidean, Version: uuid.New()}
	require.NoError(t, h.AddIndex(ctx, meta))

	actor, _, ok := h.GetIndex(ctx, id)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		n, _ := actor.Count(ctx)
		return n == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, []dbclient.IndexId{id}, h.GetIndexIds(ctx))
}

func TestAddIndexIsIdempotentForSameVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	h := newTestHandle(t, ctx, fdb)

	version := uuid.New()
	meta := dbclient.IndexMetadata{Id: id, Dimensions: 2, Space: dbclient.SpaceEuclidean, Version: version}
	require.NoError(t, h.AddIndex(ctx, meta))
	first, _, _ := h.GetIndex(ctx, id)

	require.NoError(t, h.AddIndex(ctx, meta))
	second, _, _ := h.GetIndex(ctx, id)

	assert.Equal(t, first, second)
}

func TestAddIndexReplacesOnVersionChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	h := newTestHandle(t, ctx, fdb)

	meta1 := dbclient.IndexMetadata{Id: id, Dimensions: 2, Space: dbclient.SpaceEuclidean, Version: uuid.New()}
	require.NoError(t, h.AddIndex(ctx, meta1))
	first, _, _ := h.GetIndex(ctx, id)

	meta2 := meta1
	meta2.Version = uuid.New()
	require.NoError(t, h.AddIndex(ctx, meta2))
	second, _, _ := h.GetIndex(ctx, id)

	assert.NotEqual(t, first, second)
	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("old index actor never drained after version bump")
	}
}

func TestDelIndexWaitsForDrainAndIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	h := newTestHandle(t, ctx, fdb)
	meta := dbclient.IndexMetadata{Id: id, Dimensions: 2, Space: dbclient.SpaceEuclidean, Version: uuid.New()}
	require.NoError(t, h.AddIndex(ctx, meta))

	actor, _, ok := h.GetIndex(ctx, id)
	require.True(t, ok)

	h.DelIndex(ctx, id)

	select {
	case <-actor.Done():
	default:
		t.Fatal("index actor should have drained by the time DelIndex returns")
	}

	_, _, ok = h.GetIndex(ctx, id)
	assert.False(t, ok)

	// Deleting an already-absent id must not block or panic.
	h.DelIndex(ctx, id)
}

func TestAddIndexFailurePropagatesFromFactory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	boom := errors.New("boom")
	failingFactory := func(vectorindex.Params) (vectorindex.Index, error) {
		return nil, boom
	}

	node := nodestate.New(ctx)
	m := metrics.NewRegistry()
	h := New(ctx, fdb, failingFactory, node, m, 2)

	meta := dbclient.IndexMetadata{Id: id, Dimensions: 2, Space: dbclient.SpaceEuclidean, Version: uuid.New()}
	err := h.AddIndex(ctx, meta)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, _, ok := h.GetIndex(ctx, id)
	assert.False(t, ok)
}
