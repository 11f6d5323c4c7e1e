// Package monitoritems drives one declared index from empty to fully
// populated, then tracks its source table forever: a Scanning phase walks
// the base table page by page, followed by a Tailing phase that reads CDC
// batches after a locally (never persisted) checkpointed position. Modeled
// on original_source/crates/vector-store/src/monitor_indexes.rs's
// single-goroutine-plus-ticker shape, generalized from "watch the schema"
// to "watch one index's rows".
package monitoritems
