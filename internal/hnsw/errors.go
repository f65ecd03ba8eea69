package hnsw

import "errors"

// ErrBadInput covers a dimension mismatch, a zero dimension, or an
// unrecognized quantization kind.
var ErrBadInput = errors.New("hnsw: bad input")

// ErrOutOfMemory names the allocation-failure error kind. No operation in
// this package returns it, and Insert has no path that unwinds partially
// installed links.
var ErrOutOfMemory = errors.New("hnsw: out of memory")

// ErrConflict is returned by CommitInsert when the observed version
// diverged from the current writer version; the caller should retry
// through the locked Insert path.
var ErrConflict = errors.New("hnsw: optimistic insert conflict")

// ErrNotFound is returned when an operation names a node ID the index does
// not currently hold live.
var ErrNotFound = errors.New("hnsw: node not found")
