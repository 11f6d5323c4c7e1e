// Package vectorindex defines the "provided vector index capability": the
// pluggable ANN backend an indexactor.Actor drives. The concrete algorithm
// (graph construction, neighbour selection) is someone else's problem per
// the specification; this package only fixes the contract two backends
// satisfy it through — an in-process default (bruteforce.go) and an
// HTTP-based alternate backed by a Qdrant-compatible server (qdrant.go).
package vectorindex
