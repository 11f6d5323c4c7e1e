// Package indexactor runs one ANN graph (internal/vectorindex.Index) behind
// a single-goroutine mailbox, the way original_source/src/index/actor.rs
// runs one mpsc::Receiver<Index> per index. Writes (AddOrReplace, Remove)
// are applied in submission order by the mailbox goroutine itself; reads
// (Ann, Count) are dispatched to a worker pool since vectorindex work is
// CPU-bound and shouldn't block the mailbox from draining writes.
package indexactor
