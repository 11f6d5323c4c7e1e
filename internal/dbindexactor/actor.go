package dbindexactor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/pk"
)

// scanPageSize bounds GetBaseRowByKey's linear scan per DB round trip; it
// has no other effect since that method isn't paginated to its caller.
const scanPageSize = 500

// ErrKeyNotFound is returned by GetBaseRowByKey when no row matches.
var ErrKeyNotFound = errors.New("dbindexactor: key not found in base table")

// Handle hides one index's source-table schema from C3 and C6. Every
// method retries DB errors with capped exponential backoff, up to
// maxAttempts retries, and only then returns the last error, so a brief
// session drop looks like latency to the caller rather than a hard failure —
// C5 only needs to rebuild a Handle if the index itself is dropped from the
// schema, not on every blip.
type Handle struct {
	db dbclient.DB
	id dbclient.IndexId
}

// New wraps db scoped to one declared index.
func New(db dbclient.DB, id dbclient.IndexId) Handle {
	return Handle{db: db, id: id}
}

// maxAttempts bounds retries so a permanent (non-connection) error from the
// DB façade — an unknown index, a malformed query — fails in finite time
// instead of spinning until the caller's context expires.
const maxAttempts = 5

// newBackOff is a var so tests can swap in a near-instant policy instead of
// waiting out real exponential delays.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 10 * time.Second
	return backoff.WithMaxRetries(b, maxAttempts)
}

// GetPrimaryKeyColumns returns the source table's partition + clustering
// columns, in the order pk.Encode expects them.
func (h Handle) GetPrimaryKeyColumns(ctx context.Context) ([]dbclient.ColumnName, error) {
	var cols []dbclient.ColumnName
	err := backoff.Retry(func() error {
		var err error
		cols, err = h.db.GetPrimaryKeyColumns(ctx, h.id)
		return retryable(ctx, err)
	}, backoff.WithContext(newBackOff(), ctx))
	return cols, err
}

// ScanPage reads the next page of the ordered base-table scan, the
// Scanning half of monitoritems.Run. It surfaces decoded rows, not raw
// columns, so calling it doesn't leak the source table's schema any more
// than GetBaseRowByKey or CDCNextBatch do.
func (h Handle) ScanPage(ctx context.Context, token []byte) (dbclient.ScanPage, error) {
	var page dbclient.ScanPage
	err := backoff.Retry(func() error {
		var err error
		page, err = h.db.ScanPage(ctx, h.id, token, scanPageSize)
		return retryable(ctx, err)
	}, backoff.WithContext(newBackOff(), ctx))
	return page, err
}

// GetBaseRowByKey fetches one row's current embedding directly from the
// base table. There is no by-key lookup in the DB façade, so this walks
// ScanPage until it finds a matching key or exhausts the table; acceptable
// since the hot paths (Scanning, Tailing) never call this; it exists for
// callers that already have a single key in hand (e.g. a reconciliation
// check) and don't want to drive a full scan themselves.
func (h Handle) GetBaseRowByKey(ctx context.Context, key pk.Key) (dbclient.Row, error) {
	var token []byte
	for {
		var page dbclient.ScanPage
		err := backoff.Retry(func() error {
			var err error
			page, err = h.db.ScanPage(ctx, h.id, token, scanPageSize)
			return retryable(ctx, err)
		}, backoff.WithContext(newBackOff(), ctx))
		if err != nil {
			return dbclient.Row{}, err
		}
		for _, row := range page.Rows {
			if row.Key.Equal(key) {
				return row, nil
			}
		}
		if page.NextToken == nil {
			return dbclient.Row{}, ErrKeyNotFound
		}
		token = page.NextToken
	}
}

// CDCNextBatch returns CDC entries strictly after position, and the
// position to resume from on the next call.
func (h Handle) CDCNextBatch(ctx context.Context, position dbclient.Position) ([]dbclient.CDCEntry, dbclient.Position, error) {
	var batch []dbclient.CDCEntry
	var next dbclient.Position
	err := backoff.Retry(func() error {
		var err error
		batch, next, err = h.db.CDCTail(ctx, h.id, position)
		return retryable(ctx, err)
	}, backoff.WithContext(newBackOff(), ctx))
	return batch, next, err
}

// retryable wraps err so backoff.Retry keeps trying, unless the context is
// already done — in which case retrying would just spin until the
// WithContext wrapper gives up anyway, so fail fast instead.
func retryable(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return backoff.Permanent(fmt.Errorf("dbindexactor: %w", ctx.Err()))
	}
	return err
}
