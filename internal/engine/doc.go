// Package engine is the registry of live indexes: for each declared
// dbclient.IndexId it owns one indexactor.Handle (the ANN graph),
// one dbindexactor.Handle (the schema-hiding DB façade) and the
// monitoritems.Run goroutine tying the two together. Mutations go through
// a mailbox goroutine rather than a mutex, the same shared-mutable-state
// pattern every other actor in this service uses.
package engine
