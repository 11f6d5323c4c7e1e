// Package nodestate folds an event stream into a single observable Status,
// the value the HTTP surface's /status route reports. It is a single-writer
// actor the way every other mutable piece of shared state in this service
// is: a mailbox goroutine rather than a mutex, so GetStatus always observes
// an event applied-or-not, never a half-applied one.
package nodestate

import (
	"context"

	"github.com/scylladb/vector-store/internal/dbclient"
)

// Status is a totally ordered, monotone value. It only moves backward on an
// explicit ConnectingToDb or DiscoveringIndexes event.
type Status int

const (
	Initializing Status = iota
	ConnectingToDb
	DiscoveringIndexes
	IndexingEmbeddings
	Serving
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "INITIALIZING"
	case ConnectingToDb:
		return "CONNECTING_TO_DB"
	case DiscoveringIndexes:
		return "DISCOVERING_INDEXES"
	case IndexingEmbeddings:
		return "INDEXING_EMBEDDINGS"
	case Serving:
		return "SERVING"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the SCREAMING_SNAKE_CASE form used on the wire.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// eventKind discriminates the Event union below.
type eventKind int

const (
	eventConnectingToDb eventKind = iota
	eventConnectedToDb
	eventDiscoveringIndexes
	eventIndexesDiscovered
	eventFullScanFinished
	// eventGetStatus is a status query, not a state change; it travels on the
	// events channel so it observes every event sent before it.
	eventGetStatus
)

// Event is the input to the actor's fold. Construct one with the matching
// constructor function rather than the struct literal.
type Event struct {
	kind     eventKind
	indexes  map[dbclient.IndexId]struct{}
	finished dbclient.IndexId
	reply    chan Status
}

func EventConnectingToDb() Event    { return Event{kind: eventConnectingToDb} }
func EventConnectedToDb() Event     { return Event{kind: eventConnectedToDb} }
func EventDiscoveringIndexes() Event { return Event{kind: eventDiscoveringIndexes} }

// EventIndexesDiscovered reports the full set of indexes found by the most
// recent monitor-indexes tick.
func EventIndexesDiscovered(ids []dbclient.IndexId) Event {
	set := make(map[dbclient.IndexId]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Event{kind: eventIndexesDiscovered, indexes: set}
}

// EventFullScanFinished reports that one index's initial full scan has
// completed.
func EventFullScanFinished(id dbclient.IndexId) Event {
	return Event{kind: eventFullScanFinished, finished: id}
}

// Actor is the node-state mailbox goroutine.
type Actor struct {
	events chan Event
}

// Handle is the public, send-only view of Actor a component gets passed.
type Handle struct {
	a *Actor
}

// New starts the actor and returns a handle. Cancel ctx to stop it.
func New(ctx context.Context) Handle {
	a := &Actor{
		events: make(chan Event, 10),
	}
	go a.run(ctx)
	return Handle{a: a}
}

// SendEvent applies event to the status fold. It never blocks on a reply.
func (h Handle) SendEvent(ctx context.Context, event Event) {
	select {
	case h.a.events <- event:
	case <-ctx.Done():
	}
}

// GetStatus returns the current status.
func (h Handle) GetStatus(ctx context.Context) Status {
	reply := make(chan Status, 1)
	select {
	case h.a.events <- Event{kind: eventGetStatus, reply: reply}:
	case <-ctx.Done():
		return Initializing
	}
	select {
	case s := <-reply:
		return s
	case <-ctx.Done():
		return Initializing
	}
}

func (a *Actor) run(ctx context.Context) {
	status := Initializing
	pending := make(map[dbclient.IndexId]struct{})

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-a.events:
			switch ev.kind {
			case eventConnectingToDb:
				status = ConnectingToDb
			case eventConnectedToDb:
				// consumed: no status change
			case eventDiscoveringIndexes:
				status = DiscoveringIndexes
			case eventIndexesDiscovered:
				if status == DiscoveringIndexes {
					pending = ev.indexes
					if len(pending) == 0 {
						status = Serving
					} else {
						status = IndexingEmbeddings
					}
				}
			case eventFullScanFinished:
				delete(pending, ev.finished)
				if status == IndexingEmbeddings && len(pending) == 0 {
					status = Serving
				}
			case eventGetStatus:
				ev.reply <- status
			}
		}
	}
}
