package monitorindexes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/dbclient/fake"
	"github.com/scylladb/vector-store/internal/engine"
	"github.com/scylladb/vector-store/internal/metrics"
	"github.com/scylladb/vector-store/internal/nodestate"
	"github.com/scylladb/vector-store/internal/vectorindex"
)

func newTestEngine(t *testing.T, ctx context.Context, fdb dbclient.DB, node nodestate.Handle) engine.Handle {
	t.Helper()
	m := metrics.NewRegistry()
	return engine.New(ctx, fdb, vectorindex.NewBruteForce(), node, m, 2)
}

func TestRunAddsDiscoveredIndexAndServesItThroughEngine(t *testing.T) {
	old := tickInterval
	tickInterval = 5 * time.Millisecond
	defer func() { tickInterval = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	node := nodestate.New(ctx)
	eng := newTestEngine(t, ctx, fdb, node)

	done := make(chan struct{})
	go func() {
		Run(ctx, fdb, eng, node)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, _, ok := eng.GetIndex(ctx, id)
		return ok
	}, time.Second, time.Millisecond)

	assert.Equal(t, []dbclient.IndexId{id}, eng.GetIndexIds(ctx))

	cancel()
	<-done
}

func TestRunRemovesIndexDroppedFromSchema(t *testing.T) {
	old := tickInterval
	tickInterval = 5 * time.Millisecond
	defer func() { tickInterval = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	node := nodestate.New(ctx)
	eng := newTestEngine(t, ctx, fdb, node)

	done := make(chan struct{})
	go func() {
		Run(ctx, fdb, eng, node)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, _, ok := eng.GetIndex(ctx, id)
		return ok
	}, time.Second, time.Millisecond)

	fdb.RemoveIndex(id)

	require.Eventually(t, func() bool {
		_, _, ok := eng.GetIndex(ctx, id)
		return !ok
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestRunReplacesIndexWhoseVersionChanged(t *testing.T) {
	old := tickInterval
	tickInterval = 5 * time.Millisecond
	defer func() { tickInterval = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	node := nodestate.New(ctx)
	eng := newTestEngine(t, ctx, fdb, node)

	done := make(chan struct{})
	go func() {
		Run(ctx, fdb, eng, node)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, _, ok := eng.GetIndex(ctx, id)
		return ok
	}, time.Second, time.Millisecond)

	first, _, _ := eng.GetIndex(ctx, id)

	// Re-declaring the same id bumps its version in place (fake.DB.AddIndex),
	// the same shape a redefined index takes in the real schema.
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	require.Eventually(t, func() bool {
		second, _, ok := eng.GetIndex(ctx, id)
		return ok && second != first
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestRunDoesNotReprocessUnchangedSchema(t *testing.T) {
	old := tickInterval
	tickInterval = 5 * time.Millisecond
	defer func() { tickInterval = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := dbclient.IndexId{Keyspace: "ks", Index: "idx"}
	fdb := fake.New()
	fdb.AddIndex(id, "items", "embedding", 2, []dbclient.ColumnName{"id"})

	node := nodestate.New(ctx)
	eng := newTestEngine(t, ctx, fdb, node)

	done := make(chan struct{})
	go func() {
		Run(ctx, fdb, eng, node)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, _, ok := eng.GetIndex(ctx, id)
		return ok
	}, time.Second, time.Millisecond)

	first, _, _ := eng.GetIndex(ctx, id)
	time.Sleep(50 * time.Millisecond)
	second, _, _ := eng.GetIndex(ctx, id)
	assert.Equal(t, first, second)

	cancel()
	<-done
}
