package hnsw

import "github.com/annkit/annkit/internal/store"

// ValidationReport is the result of ValidateGraph: a debug primitive that
// BFS's from the entry point and checks every live node is reached at
// level 0 and every link has its inverse.
type ValidationReport struct {
	ConnectedNodes int
	AllReciprocal  bool
	UnreachableIDs []uint64
	NonReciprocal  int
}

// ValidateGraph walks the graph structure under the write lock (a debug
// operation, not part of the hot path) and reports connectivity and
// link-reciprocity.
func (idx *Index) ValidateGraph() ValidationReport {
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()

	report := ValidationReport{AllReciprocal: true}

	reached := make(map[uint32]bool)
	if ep := idx.entryPoint.Load(); ep != nil {
		idx.bfsLevel0(ep.InternalID, reached)
	}

	var unreachable []uint64
	idx.arena.Iterate(func(n *store.Node) bool {
		if !reached[n.InternalID] {
			unreachable = append(unreachable, n.ID)
		}
		return true
	})
	report.ConnectedNodes = len(reached)
	report.UnreachableIDs = unreachable

	nonRecip := 0
	idx.arena.Iterate(func(n *store.Node) bool {
		for l := 0; l <= n.Level; l++ {
			for _, nb := range n.NeighborsAt(l) {
				other := idx.arena.Get(nb)
				if other == nil || other.Deleted.Load() {
					nonRecip++
					continue
				}
				if !containsID(other.NeighborsAt(l), n.InternalID) {
					nonRecip++
				}
			}
		}
		return true
	})
	report.NonReciprocal = nonRecip
	report.AllReciprocal = nonRecip == 0

	return report
}

func containsID(list []uint32, id uint32) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// bfsLevel0 walks level-0 links starting from entry, marking every reached
// internal id in reached. Level 0 is the layer every live node
// participates in, so this alone certifies spec invariant 3.
func (idx *Index) bfsLevel0(entry uint32, reached map[uint32]bool) {
	stack := []uint32{entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		n := idx.arena.Get(id)
		if n == nil || n.Deleted.Load() {
			continue
		}
		reached[id] = true
		for _, nb := range n.NeighborsAt(0) {
			if !reached[nb] {
				stack = append(stack, nb)
			}
		}
	}
}
