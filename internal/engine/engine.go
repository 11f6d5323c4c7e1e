package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/dbindexactor"
	"github.com/scylladb/vector-store/internal/indexactor"
	"github.com/scylladb/vector-store/internal/metrics"
	"github.com/scylladb/vector-store/internal/monitoritems"
	"github.com/scylladb/vector-store/internal/nodestate"
	"github.com/scylladb/vector-store/internal/vectorindex"
)

// mailboxDepth mirrors the other actors' bounded-inbox backpressure.
const mailboxDepth = 10

type entry struct {
	actor       indexactor.Handle
	dbIndex     dbindexactor.Handle
	version     uuid.UUID
	cancel      context.CancelFunc
	monitorDone chan struct{}
}

type addMsg struct {
	meta  dbclient.IndexMetadata
	reply chan error
}

type delMsg struct {
	id    dbclient.IndexId
	reply chan struct{}
}

type getMsg struct {
	id    dbclient.IndexId
	reply chan getResult
}

type getResult struct {
	actor   indexactor.Handle
	dbIndex dbindexactor.Handle
	ok      bool
}

type getIdsMsg struct {
	reply chan []dbclient.IndexId
}

type message struct {
	add    *addMsg
	del    *delMsg
	get    *getMsg
	getIds *getIdsMsg
}

// Actor is the registry's mailbox goroutine. Only run touches entries
// directly, so no mutex is needed.
type Actor struct {
	inbox   chan message
	entries map[dbclient.IndexId]*entry

	db          dbclient.DB
	indexes     vectorindex.Factory
	node        nodestate.Handle
	metrics     *metrics.Registry
	workerLimit int
}

// Handle is the registry's external, concurrency-safe face.
type Handle struct {
	a *Actor
}

// New starts the registry's mailbox goroutine. indexes builds the ANN
// backend for each declared index (internal/vectorindex.NewBruteForce or
// internal/vectorindex.NewQdrant); workerLimit bounds each index actor's
// concurrent Ann/Count dispatch.
func New(ctx context.Context, db dbclient.DB, indexes vectorindex.Factory, node nodestate.Handle, m *metrics.Registry, workerLimit int) Handle {
	a := &Actor{
		inbox:       make(chan message, mailboxDepth),
		entries:     make(map[dbclient.IndexId]*entry),
		db:          db,
		indexes:     indexes,
		node:        node,
		metrics:     m,
		workerLimit: workerLimit,
	}
	go a.run(ctx)
	return Handle{a: a}
}

func (a *Actor) run(ctx context.Context) {
	defer a.drainAll()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.inbox:
			switch {
			case msg.add != nil:
				msg.add.reply <- a.handleAdd(ctx, msg.add.meta)
			case msg.del != nil:
				a.handleDel(msg.del.id)
				close(msg.del.reply)
			case msg.get != nil:
				msg.get.reply <- a.handleGet(msg.get.id)
			case msg.getIds != nil:
				msg.getIds.reply <- a.handleGetIds()
			}
		}
	}
}

// handleAdd is idempotent: an unchanged (id, version) pair is a no-op,
// a changed version tears the old pair down before building the new one.
func (a *Actor) handleAdd(ctx context.Context, meta dbclient.IndexMetadata) error {
	if e, exists := a.entries[meta.Id]; exists {
		if e.version == meta.Version {
			return nil
		}
		a.handleDel(meta.Id)
	}

	params := vectorindex.Params{
		Dimensions:      meta.Dimensions,
		Connectivity:    meta.Params.Connectivity,
		ExpansionAdd:    meta.Params.ExpansionAdd,
		ExpansionSearch: meta.Params.ExpansionSearch,
		Space:           meta.Space,
	}
	idx, err := a.indexes(params)
	if err != nil {
		return fmt.Errorf("engine: build index %s: %w", meta.Id, err)
	}

	childCtx, cancel := context.WithCancel(ctx)
	actorHandle := indexactor.New(childCtx, idx, meta.Dimensions, a.workerLimit)
	dbHandle := dbindexactor.New(a.db, meta.Id)

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitoritems.Run(childCtx, meta, actorHandle, dbHandle, a.node, a.metrics)
	}()

	a.entries[meta.Id] = &entry{
		actor:       actorHandle,
		dbIndex:     dbHandle,
		version:     meta.Version,
		cancel:      cancel,
		monitorDone: monitorDone,
	}
	return nil
}

// handleDel is idempotent and never fails: deleting an absent id is a
// no-op. It cancels the per-index context and waits for both the index
// actor and the monitor-items goroutine to finish draining before
// returning, per the engine's "waits for their drain" contract.
func (a *Actor) handleDel(id dbclient.IndexId) {
	e, exists := a.entries[id]
	if !exists {
		return
	}
	delete(a.entries, id)
	e.cancel()
	<-e.actor.Done()
	<-e.monitorDone
}

func (a *Actor) handleGet(id dbclient.IndexId) getResult {
	e, exists := a.entries[id]
	if !exists {
		return getResult{}
	}
	return getResult{actor: e.actor, dbIndex: e.dbIndex, ok: true}
}

func (a *Actor) handleGetIds() []dbclient.IndexId {
	ids := make([]dbclient.IndexId, 0, len(a.entries))
	for id := range a.entries {
		ids = append(ids, id)
	}
	return ids
}

// drainAll tears every remaining index down when the registry itself is
// shut down (root context canceled), so per-index goroutines don't leak.
func (a *Actor) drainAll() {
	for id := range a.entries {
		a.handleDel(id)
	}
}

// AddIndex declares or updates an index. Idempotent against an unchanged
// (id, version) pair; fails only if the underlying ANN backend can't be
// constructed.
func (h Handle) AddIndex(ctx context.Context, meta dbclient.IndexMetadata) error {
	reply := make(chan error, 1)
	select {
	case h.a.inbox <- message{add: &addMsg{meta: meta, reply: reply}}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DelIndex removes an index, waiting for both its actors to drain. Never
// fails; deleting an absent id is a no-op.
func (h Handle) DelIndex(ctx context.Context, id dbclient.IndexId) {
	reply := make(chan struct{})
	select {
	case h.a.inbox <- message{del: &delMsg{id: id, reply: reply}}:
	case <-ctx.Done():
		return
	}
	select {
	case <-reply:
	case <-ctx.Done():
	}
}

// GetIndex returns the index actor and its paired DB-index actor for id, if
// declared.
func (h Handle) GetIndex(ctx context.Context, id dbclient.IndexId) (indexactor.Handle, dbindexactor.Handle, bool) {
	reply := make(chan getResult, 1)
	select {
	case h.a.inbox <- message{get: &getMsg{id: id, reply: reply}}:
	case <-ctx.Done():
		return indexactor.Handle{}, dbindexactor.Handle{}, false
	}
	select {
	case r := <-reply:
		return r.actor, r.dbIndex, r.ok
	case <-ctx.Done():
		return indexactor.Handle{}, dbindexactor.Handle{}, false
	}
}

// GetIndexIds returns every currently declared index's id.
func (h Handle) GetIndexIds(ctx context.Context) []dbclient.IndexId {
	reply := make(chan []dbclient.IndexId, 1)
	select {
	case h.a.inbox <- message{getIds: &getIdsMsg{reply: reply}}:
	case <-ctx.Done():
		return nil
	}
	select {
	case ids := <-reply:
		return ids
	case <-ctx.Done():
		return nil
	}
}
