package monitorindexes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/engine"
	"github.com/scylladb/vector-store/internal/logging"
	"github.com/scylladb/vector-store/internal/nodestate"
)

var log = logging.GetLogger("monitorindexes")

// tickInterval is how often the schema is checked for changes.
var tickInterval = time.Second

// Run polls the schema every tickInterval, and on a change, re-resolves the
// full index list and reconciles it against what engine already runs. It
// blocks until ctx is canceled.
func Run(ctx context.Context, db dbclient.DB, eng engine.Handle, node nodestate.Handle) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var lastVersion uuid.UUID
	known := make(map[dbclient.IndexId]dbclient.IndexMetadata)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		version, err := db.LatestSchemaVersion(ctx)
		if err != nil {
			log.Warn("monitorindexes: unable to get latest schema version", "error", err)
			lastVersion = uuid.UUID{}
			continue
		}
		if version == lastVersion {
			continue
		}
		lastVersion = version

		node.SendEvent(ctx, nodestate.EventDiscoveringIndexes())
		found, err := resolveIndexes(ctx, db)
		if err != nil {
			log.Debug("monitorindexes: unable to get the list of indexes", "error", err)
			lastVersion = uuid.UUID{}
			continue
		}

		ids := make([]dbclient.IndexId, 0, len(found))
		for id := range found {
			ids = append(ids, id)
		}
		node.SendEvent(ctx, nodestate.EventIndexesDiscovered(ids))

		// A known id whose version no longer matches found's is treated as a
		// remove+add, not an unchanged index: it is dropped here so the add
		// loop below sees it as absent and re-adds it under its new version.
		for id, meta := range known {
			foundMeta, stillPresent := found[id]
			if !stillPresent || foundMeta.Version != meta.Version {
				eng.DelIndex(ctx, id)
				delete(known, id)
			}
		}

		hasFailures := false
		for id, meta := range found {
			if existing, already := known[id]; already && existing.Version == meta.Version {
				continue
			}
			if err := eng.AddIndex(ctx, meta); err != nil {
				log.Warn("monitorindexes: unable to add index", "index", id, "error", err)
				hasFailures = true
				continue
			}
			known[id] = meta
		}
		if hasFailures {
			// Force a re-resolve next tick even if the schema itself doesn't
			// change again, so a transient add_index failure gets retried.
			lastVersion = uuid.UUID{}
		}
	}
}

// resolveIndexes turns the raw list of declared indexes into fully resolved
// metadata, skipping (and logging, not failing) any index whose metadata
// queries fail, or that is missing a version, has an unsupported target
// column type, or fails its validity check — each is a per-index problem,
// not a reason to abort the whole tick.
func resolveIndexes(ctx context.Context, db dbclient.DB) (map[dbclient.IndexId]dbclient.IndexMetadata, error) {
	raw, err := db.GetIndexes(ctx)
	if err != nil {
		return nil, err
	}

	found := make(map[dbclient.IndexId]dbclient.IndexMetadata, len(raw))
	for _, idx := range raw {
		version, err := db.GetIndexVersion(ctx, idx.Id)
		if err != nil {
			log.Warn("monitorindexes: unable to get index version", "index", idx.Id, "error", err)
			continue
		}
		if version == (uuid.UUID{}) {
			log.Debug("monitorindexes: no version for index", "index", idx.Id)
			continue
		}

		column, dims, kind, err := db.GetIndexTargetType(ctx, idx.Id)
		if err != nil {
			log.Warn("monitorindexes: unable to get index target type", "index", idx.Id, "error", err)
			continue
		}
		if dims <= 0 {
			log.Debug("monitorindexes: missing or unsupported type for index", "index", idx.Id)
			continue
		}

		params, space, err := db.GetIndexParams(ctx, idx.Id)
		if err != nil {
			log.Warn("monitorindexes: unable to get index params", "index", idx.Id, "error", err)
			continue
		}

		meta := dbclient.IndexMetadata{
			Id:           idx.Id,
			TargetColumn: column,
			Dimensions:   dims,
			Params:       params,
			Space:        space,
			ValueKind:    kind,
			Version:      version,
		}

		valid, err := db.IsValidIndex(ctx, meta)
		if err != nil {
			log.Warn("monitorindexes: unable to validate index", "index", idx.Id, "error", err)
			continue
		}
		if !valid {
			log.Debug("monitorindexes: not a valid index", "index", idx.Id)
			continue
		}

		found[idx.Id] = meta
	}
	return found, nil
}
