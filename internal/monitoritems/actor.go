package monitoritems

import (
	"context"
	"time"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/dbindexactor"
	"github.com/scylladb/vector-store/internal/indexactor"
	"github.com/scylladb/vector-store/internal/logging"
	"github.com/scylladb/vector-store/internal/metrics"
	"github.com/scylladb/vector-store/internal/nodestate"
)

var log = logging.GetLogger("monitoritems")

// cdcPollInterval is how long Tailing sleeps between empty CDC reads. A
// real implementation might instead subscribe to change notifications;
// polling is the simple, restartable option and matches the 1s cadence C5
// already uses for schema discovery.
var cdcPollInterval = time.Second

// scanRetryInterval paces retries of a failed ScanPage call so a persistent
// failure doesn't spin the loop hot.
var scanRetryInterval = time.Second

// Run drives meta from an empty index actor through a full scan and into
// CDC tailing, until ctx is canceled. It never returns an error: every
// individual row problem is logged and skipped, and every DB error is
// retried with capped backoff, matching the "retry, don't surface"
// contract C5/C7 expect from a per-index background task.
func Run(
	ctx context.Context,
	meta dbclient.IndexMetadata,
	index indexactor.Handle,
	db dbindexactor.Handle,
	node nodestate.Handle,
	m *metrics.Registry,
) {
	if !scan(ctx, meta, index, db, m) {
		return
	}
	node.SendEvent(ctx, nodestate.EventFullScanFinished(meta.Id))
	tail(ctx, meta, index, db, m)
}

// scan walks the base table page by page, pushing every row into index.
// Returns false if ctx was canceled before the scan completed.
func scan(ctx context.Context, meta dbclient.IndexMetadata, index indexactor.Handle, db dbindexactor.Handle, m *metrics.Registry) bool {
	var token []byte
	for {
		if ctx.Err() != nil {
			return false
		}

		page, err := db.ScanPage(ctx, token)
		if err != nil {
			log.Error("scan: retrying base-table page", "index", meta.Id, "error", err)
			select {
			case <-ctx.Done():
				return false
			case <-time.After(scanRetryInterval):
			}
			continue
		}

		for _, row := range page.Rows {
			if len(row.Embedding) != meta.Dimensions {
				m.ScanDroppedRows.WithLabelValues(string(meta.Id.Keyspace), meta.Id.Index).Inc()
				log.Debug("scan: dropping row with wrong embedding length", "index", meta.Id, "expected", meta.Dimensions, "actual", len(row.Embedding))
				continue
			}
			if err := index.AddOrReplace(ctx, row.Key, row.Embedding); err != nil {
				m.ScanDroppedRows.WithLabelValues(string(meta.Id.Keyspace), meta.Id.Index).Inc()
				log.Debug("scan: dropping row rejected by index", "index", meta.Id, "error", err)
			}
		}

		if page.NextToken == nil {
			return true
		}
		token = page.NextToken
	}
}

// tail reads CDC batches after a locally tracked position, applying each
// entry to the index. Runs until ctx is canceled; the position starts nil
// (the beginning of the CDC log) and is never persisted, so a restart never
// resumes a stale checkpoint.
func tail(ctx context.Context, meta dbclient.IndexMetadata, index indexactor.Handle, db dbindexactor.Handle, m *metrics.Registry) {
	var position dbclient.Position
	ticker := time.NewTicker(cdcPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		batch, next, err := db.CDCNextBatch(ctx, position)
		if err != nil {
			log.Error("tail: giving up on cdc batch", "index", meta.Id, "error", err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		position = next

		for _, entry := range batch {
			if entry.Embedding == nil {
				index.Remove(ctx, entry.Key)
				continue
			}
			if len(entry.Embedding) != meta.Dimensions {
				m.ScanDroppedRows.WithLabelValues(string(meta.Id.Keyspace), meta.Id.Index).Inc()
				continue
			}
			if err := index.AddOrReplace(ctx, entry.Key, entry.Embedding); err != nil {
				m.ScanDroppedRows.WithLabelValues(string(meta.Id.Keyspace), meta.Id.Index).Inc()
			}
		}
	}
}
