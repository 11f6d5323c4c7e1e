package indexactor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/scylladb/vector-store/internal/logging"
	"github.com/scylladb/vector-store/internal/pk"
	"github.com/scylladb/vector-store/internal/vectorindex"
)

var log = logging.GetLogger("indexactor")

// ErrWrongDimension is returned when a caller's embedding length doesn't
// match the index's declared dimensionality.
type ErrWrongDimension struct {
	Expected int
	Actual   int
}

func (e *ErrWrongDimension) Error() string {
	return fmt.Sprintf("indexactor: wrong embedding dimension: expected %d, got %d", e.Expected, e.Actual)
}

// Match pairs a caller-facing primary key with its distance from the query
// embedding, in the same order vectorindex.Index.Search returns them.
type Match struct {
	Key      pk.Key
	Distance float32
}

type addOrReplaceMsg struct {
	key       pk.Key
	embedding []float32
}

type removeMsg struct {
	key pk.Key
}

type annMsg struct {
	embedding []float32
	limit     int
	reply     chan annResult
}

type annResult struct {
	matches []Match
	err     error
}

type countMsg struct {
	reply chan countResult
}

type countResult struct {
	count int
	err   error
}

type message struct {
	addOrReplace *addOrReplaceMsg
	remove       *removeMsg
	ann          *annMsg
	count        *countMsg
}

// mailboxDepth bounds the actor's inbox per spec's backpressure contract: a
// slow index blocks its callers rather than growing memory unboundedly.
const mailboxDepth = 10

// Actor owns one ANN graph exclusively. Only run's goroutine touches the
// key<->node id bijection or the underlying vectorindex.Index directly;
// everything else goes through a Handle.
type Actor struct {
	inbox   chan message
	index   vectorindex.Index
	workers *errgroup.Group

	// keyToID is keyed by the encoded bytes: pk.Key's == compares the
	// buffer pointer, so two equal keys decoded separately would differ.
	keyToID map[string]uint64
	idToKey map[uint64]pk.Key
	nextID  uint64

	dimensions int
	done       chan struct{}
}

// Handle is the external, concurrency-safe face of an Actor.
type Handle struct {
	a *Actor
}

// New starts an actor's mailbox goroutine and returns a Handle to it.
// workerLimit bounds concurrent Ann/Count dispatches (the configured
// background-thread count); 0 means "let errgroup decide" (no limit).
func New(ctx context.Context, index vectorindex.Index, dimensions int, workerLimit int) Handle {
	g := new(errgroup.Group)
	if workerLimit > 0 {
		g.SetLimit(workerLimit)
	}
	a := &Actor{
		inbox:      make(chan message, mailboxDepth),
		index:      index,
		workers:    g,
		keyToID:    make(map[string]uint64),
		idToKey:    make(map[uint64]pk.Key),
		dimensions: dimensions,
		done:       make(chan struct{}),
	}
	go a.run(ctx)
	return Handle{a: a}
}

func (a *Actor) run(ctx context.Context) {
	defer close(a.done)
	defer a.index.Close()
	defer a.workers.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.inbox:
			switch {
			case msg.addOrReplace != nil:
				a.handleAddOrReplace(ctx, msg.addOrReplace)
			case msg.remove != nil:
				a.handleRemove(ctx, msg.remove)
			case msg.ann != nil:
				a.dispatchAnn(ctx, msg.ann)
			case msg.count != nil:
				a.dispatchCount(ctx, msg.count)
			}
		}
	}
}

// handleAddOrReplace runs on the mailbox goroutine so the bijection never
// needs a mutex: inserts are applied in the order they were submitted.
// Dimension is already validated by Handle.AddOrReplace before the message
// is ever enqueued.
func (a *Actor) handleAddOrReplace(ctx context.Context, m *addOrReplaceMsg) {
	id, exists := a.keyToID[string(m.key.Bytes())]
	if !exists {
		id = a.nextID
		a.nextID++
		a.keyToID[string(m.key.Bytes())] = id
		a.idToKey[id] = m.key
	}
	if err := a.index.Add(ctx, id, m.embedding); err != nil {
		log.Error("add_or_replace: backend rejected embedding", "key", m.key, "id", id, "error", err)
	}
}

func (a *Actor) handleRemove(ctx context.Context, m *removeMsg) {
	id, exists := a.keyToID[string(m.key.Bytes())]
	if !exists {
		return
	}
	delete(a.keyToID, string(m.key.Bytes()))
	delete(a.idToKey, id)
	if err := a.index.Remove(ctx, id); err != nil {
		log.Error("remove: backend failed to remove entry", "key", m.key, "id", id, "error", err)
	}
}

// dispatchAnn hands the CPU-bound search off to the worker pool, keeping the
// mailbox free to keep draining writes while the search runs.
func (a *Actor) dispatchAnn(ctx context.Context, m *annMsg) {
	if err := validateDimensions(len(m.embedding), a.dimensions); err != nil {
		m.reply <- annResult{err: err}
		return
	}
	// The worker resolves ids against a snapshot of idToKey taken here, so
	// writes applied on this mailbox goroutine while the search runs never
	// touch the map the worker reads.
	idToKey := make(map[uint64]pk.Key, len(a.idToKey))
	for id, k := range a.idToKey {
		idToKey[id] = k
	}
	index := a.index
	a.workers.Go(func() error {
		vmatches, err := index.Search(ctx, m.embedding, m.limit)
		if err != nil {
			m.reply <- annResult{err: err}
			return nil
		}
		matches := make([]Match, 0, len(vmatches))
		for _, vm := range vmatches {
			key, ok := idToKey[vm.Id]
			if !ok {
				continue
			}
			matches = append(matches, Match{Key: key, Distance: vm.Distance})
		}
		m.reply <- annResult{matches: matches}
		return nil
	})
}

func (a *Actor) dispatchCount(ctx context.Context, m *countMsg) {
	index := a.index
	a.workers.Go(func() error {
		n, err := index.Count(ctx)
		m.reply <- countResult{count: n, err: err}
		return nil
	})
}

func validateDimensions(actual, expected int) error {
	if actual != expected {
		return &ErrWrongDimension{Expected: expected, Actual: actual}
	}
	return nil
}

// AddOrReplace inserts or updates the embedding stored at key.
func (h Handle) AddOrReplace(ctx context.Context, key pk.Key, embedding []float32) error {
	if err := validateDimensions(len(embedding), h.a.dimensions); err != nil {
		return err
	}
	select {
	case h.a.inbox <- message{addOrReplace: &addOrReplaceMsg{key: key, embedding: embedding}}:
	case <-ctx.Done():
	}
	return nil
}

// Remove retires key. Removing an absent key is not an error.
func (h Handle) Remove(ctx context.Context, key pk.Key) {
	select {
	case h.a.inbox <- message{remove: &removeMsg{key: key}}:
	case <-ctx.Done():
	}
}

// Ann runs an approximate nearest-neighbor search and returns up to limit
// matches in nondecreasing distance order.
func (h Handle) Ann(ctx context.Context, embedding []float32, limit int) ([]Match, error) {
	if err := validateDimensions(len(embedding), h.a.dimensions); err != nil {
		return nil, err
	}
	reply := make(chan annResult, 1)
	select {
	case h.a.inbox <- message{ann: &annMsg{embedding: embedding, limit: limit, reply: reply}}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.matches, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed once the actor's goroutine has stopped
// reading its mailbox (messages still queued are dropped), waited for
// in-flight worker-pool jobs, and closed the underlying vectorindex.Index. Callers tearing an index down should wait
// on this after canceling the actor's context.
func (h Handle) Done() <-chan struct{} {
	return h.a.done
}

// Count returns the number of live entries in the index.
func (h Handle) Count(ctx context.Context) (int, error) {
	reply := make(chan countResult, 1)
	select {
	case h.a.inbox <- message{count: &countMsg{reply: reply}}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.count, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
