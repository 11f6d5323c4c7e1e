// Package dbindexactor hides one index's source-table schema from C3 and
// C6: callers ask for primary-key columns, a single row by key, or the next
// CDC batch, and never see keyspace/table/column names directly. A dropped
// DB session is retried a bounded number of times with backoff before the
// error reaches the caller, so
// C5 can treat a dbindexactor.Handle as restartable infrastructure instead
// of tearing the whole index down on a transient connection error.
package dbindexactor
