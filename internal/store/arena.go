package store

import "sync/atomic"

// Arena owns every node of one index. Callers must serialize Alloc/Reserve/
// Publish/Unsplice the same way the engine serializes its writer (a single
// write lock). The backing node slice itself is published through an
// atomic.Pointer so unsynchronized concurrent readers (Search,
// PrepareInsert) calling Get never observe a torn slice header — the same
// discipline node.go's per-level neighborList already applies to adjacency.
type Arena struct {
	nodes atomic.Pointer[[]*Node]
	head  *Node // most recently inserted live node
	tail  *Node
	count int
}

// NewArena returns an empty arena with room for an initial batch of nodes,
// doubling from there the way the teacher's growNodes amortizes allocation.
func NewArena() *Arena {
	a := &Arena{}
	nodes := make([]*Node, 0, 1024)
	a.nodes.Store(&nodes)
	return a
}

// Alloc reserves the next InternalID, stores n at it, and splices n onto
// the head of the live list. Must be called under the writer's lock.
func (a *Arena) Alloc(n *Node) uint32 {
	id := a.Reserve(n)
	a.Publish(n)
	return id
}

// Reserve assigns n the next InternalID and makes it resolvable via Get,
// without yet splicing it onto the live list. This lets the engine finish
// wiring a new node's adjacency (which references its InternalID) before
// the node becomes visible to validate_graph/Iterate — the arena-level half
// of "links are installed before the node is made discoverable".
//
// The new backing slice is published with a single atomic pointer store
// after appending, so a concurrent Get never sees a length that outruns
// the elements actually written: append either grows in place (writing
// only into capacity no published header yet describes) or allocates a
// fresh array, and either way the old header stays valid for whoever is
// still holding it until this store completes.
func (a *Arena) Reserve(n *Node) uint32 {
	cur := *a.nodes.Load()
	id := uint32(len(cur))
	n.InternalID = id

	next := append(cur, n)
	a.nodes.Store(&next)
	return id
}

// Publish splices a reserved node onto the head of the live list, the
// final step of committing an insert.
func (a *Arena) Publish(n *Node) {
	a.splice(n)
	a.count++
}

// Get returns the node at internal index id, or nil if id is out of range.
// The returned pointer may reference a soft-deleted node; callers check
// n.Deleted. Safe to call without holding writeLock.
func (a *Arena) Get(id uint32) *Node {
	nodes := *a.nodes.Load()
	if int(id) >= len(nodes) {
		return nil
	}
	return nodes[id]
}

// Len returns the number of live nodes.
func (a *Arena) Len() int { return a.count }

// Cap returns the number of allocated slots, live or dead. Safe to call
// without holding writeLock.
func (a *Arena) Cap() int { return len(*a.nodes.Load()) }

// Head returns the most recently inserted live node, or nil if the arena
// is empty.
func (a *Arena) Head() *Node { return a.head }

// splice adds n to the head of the live list.
func (a *Arena) splice(n *Node) {
	n.prev = nil
	n.next = a.head
	if a.head != nil {
		a.head.prev = n
	}
	a.head = n
	if a.tail == nil {
		a.tail = n
	}
}

// Unsplice removes n from the live list and marks it dead at deadVersion.
// The node's arena slot is left populated; physical reuse is not
// implemented, matching the teacher's flat never-compacted node slice, but
// the slot is no longer reachable from the live list or Iterate.
func (a *Arena) Unsplice(n *Node, deadVersion uint64) {
	if n.prev != nil {
		n.prev.next = n.next
	} else if a.head == n {
		a.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if a.tail == n {
		a.tail = n.prev
	}
	n.prev, n.next = nil, nil
	n.Deleted.Store(true)
	n.DeadVersion = deadVersion
	a.count--
}

// Iterate walks the live list head to tail, calling fn for each node until
// fn returns false.
func (a *Arena) Iterate(fn func(*Node) bool) {
	for n := a.head; n != nil; n = n.next {
		if !fn(n) {
			return
		}
	}
}
