// Package monitorindexes is the single background loop that keeps
// internal/engine's registry in sync with the database's declared vector
// indexes. Every second it checks whether the schema has changed at all; if
// it has, it re-resolves the full index list and diffs it against what the
// engine already runs, adding new indexes and tearing down removed ones.
//
// One individual index failing metadata resolution or engine.AddIndex never
// aborts the tick: it's logged and skipped. An engine.AddIndex failure also
// resets the schema-version cache so the next tick retries it rather than
// giving up on the whole schedule.
package monitorindexes
