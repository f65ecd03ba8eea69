// Package store provides the node arena backing an HNSW index: node
// allocation, the per-level adjacency arrays, and the doubly-linked list of
// live nodes rooted at the index's head. The store never rearranges
// existing nodes; pointers it returns are stable for the node's lifetime.
package store

import (
	"encoding/json"
	"sync/atomic"

	"github.com/annkit/annkit/internal/distance"
)

// neighborList is one level's adjacency array, held behind an atomic
// pointer so readers can walk it without a lock while the writer installs
// a new slice, the way the example pack's lock-free neighbor cache
// publishes copy-on-write updates.
type neighborList struct {
	ptr atomic.Pointer[[]uint32]
}

func (l *neighborList) load() []uint32 {
	p := l.ptr.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (l *neighborList) store(v []uint32) {
	cp := make([]uint32, len(v))
	copy(cp, v)
	l.ptr.Store(&cp)
}

// Node is one vertex of the HNSW graph.
type Node struct {
	// InternalID is this node's stable index into the arena, used as the
	// compact reference stored in neighbor adjacency lists.
	InternalID uint32
	// ID is the caller-assigned external identifier, unique within an
	// index.
	ID uint64
	// Value is a caller-opaque payload (e.g. the word a vector encodes).
	Value any
	// Vector is this node's quantized representation.
	Vector distance.Vector
	// Norm is the pre-normalization magnitude.
	Norm float32
	// Level is the highest layer this node participates in.
	Level int
	// Attrs is the opaque JSON blob the filter compiler's evaluator reads
	// selectors against. Nil if the node was inserted without attributes.
	Attrs json.RawMessage

	// Deleted marks the node dead; a dead node keeps its arena slot, which
	// is never freed or reused.
	Deleted atomic.Bool
	// DeadVersion is the writer version in effect when this node was
	// unsplice'd from the live list; the engine's delete waits until every
	// read slot has advanced past it before clearing Value and Attrs.
	DeadVersion uint64

	neighbors []neighborList

	// prev/next form the intrusive doubly-linked live list.
	prev, next *Node
}

// NewNode allocates a node with level+1 empty adjacency lists.
func NewNode(id uint64, value any, vec distance.Vector, norm float32, level int, attrs json.RawMessage) *Node {
	return &Node{
		ID:        id,
		Value:     value,
		Vector:    vec,
		Norm:      norm,
		Level:     level,
		Attrs:     attrs,
		neighbors: make([]neighborList, level+1),
	}
}

// NeighborsAt returns a snapshot of the adjacency slice at level lvl, or
// nil if the node doesn't participate at that level. Safe to call without
// external synchronization: it never observes a partially-written slice.
func (n *Node) NeighborsAt(lvl int) []uint32 {
	if lvl < 0 || lvl >= len(n.neighbors) {
		return nil
	}
	return n.neighbors[lvl].load()
}

// SetNeighborsAt atomically publishes a new adjacency list at level lvl.
// Must be called only by the writer holding the index's write lock.
func (n *Node) SetNeighborsAt(lvl int, ids []uint32) {
	n.neighbors[lvl].store(ids)
}
