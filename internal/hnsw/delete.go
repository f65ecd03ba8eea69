package hnsw

import (
	"log/slog"
	"sort"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/store"
)

// DeleteNode removes the live node with external id id: it unlinks it from
// every level, relinks its ex-neighbors to preserve connectivity (spec §9's
// fixed relink policy), retires it as entry point if needed, and defers
// physical reclamation of its heavy fields until every read slot has
// advanced past the version at which it was removed.
func (idx *Index) DeleteNode(id uint64) error {
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()

	node, ok := idx.idIndex[id]
	if !ok || node.Deleted.Load() {
		return ErrNotFound
	}

	for l := node.Level; l >= 0; l-- {
		idx.unlinkAndRelink(node, l)
	}

	if idx.entryPoint.Load() == node {
		idx.pickNewEntryPoint()
	}

	deadVersion := idx.slots.CurrentVersion()
	idx.arena.Unsplice(node, deadVersion)
	delete(idx.idIndex, id)
	idx.slots.Advance()
	idx.metrics.deletes.Inc()

	idx.slots.WaitPast(deadVersion)
	node.Value = nil
	node.Attrs = nil

	return nil
}

// unlinkAndRelink removes node's back-links from its level-l neighbors,
// then, for each ex-neighbor whose degree fell below capL/2, attempts to
// restore it by linking to the remaining ex-neighbors of node in ascending
// distance order, subject to the heuristic selector, until capL/2 is
// restored or the candidate pool is exhausted.
func (idx *Index) unlinkAndRelink(node *store.Node, level int) {
	exNeighbors := node.NeighborsAt(level)
	if len(exNeighbors) == 0 {
		return
	}
	for _, vID := range exNeighbors {
		idx.removeNeighbor(idx.arena.Get(vID), level, node.InternalID)
	}

	capL := idx.cfg.capForLevel(level)
	half := capL / 2

	for _, vID := range exNeighbors {
		v := idx.arena.Get(vID)
		if v == nil || v.Deleted.Load() {
			continue
		}
		current := v.NeighborsAt(level)
		if len(current) >= half {
			continue
		}

		present := make(map[uint32]bool, len(current)+1)
		for _, id := range current {
			present[id] = true
		}
		present[vID] = true

		cands := make([]candidate, 0, len(exNeighbors))
		for _, otherID := range exNeighbors {
			if present[otherID] {
				continue
			}
			other := idx.arena.Get(otherID)
			if other == nil || other.Deleted.Load() {
				continue
			}
			d, err := distance.Distance(v.Vector, other.Vector)
			if err != nil {
				continue
			}
			cands = append(cands, candidate{otherID, d})
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

		linked := append([]uint32{}, current...)
		for _, c := range cands {
			if len(linked) >= half {
				break
			}
			cNode := idx.arena.Get(c.id)
			good := true
			for _, lID := range linked {
				lNode := idx.arena.Get(lID)
				if lNode == nil {
					continue
				}
				d, err := distance.Distance(cNode.Vector, lNode.Vector)
				if err == nil && d < c.dist {
					good = false
					break
				}
			}
			if !good {
				continue
			}
			otherList := cNode.NeighborsAt(level)
			if len(otherList) >= capL {
				continue
			}
			linked = append(linked, c.id)
			v.SetNeighborsAt(level, linked)
			cNode.SetNeighborsAt(level, append(append([]uint32{}, otherList...), vID))
		}
	}
}

// pickNewEntryPoint scans the arena for the highest-level surviving node
// other than the entry point being deleted and installs it as the new entry
// point, decrementing maxLevel if no node remains at the current one.
// Called with writeLock held.
func (idx *Index) pickNewEntryPoint() {
	slog.Info("[HNSW] Entry point was deleted. Electing new entry point...")

	old := idx.entryPoint.Load()
	var best *store.Node
	for i := 0; i < idx.arena.Cap(); i++ {
		n := idx.arena.Get(uint32(i))
		if n == nil || n.Deleted.Load() || n == old {
			continue
		}
		if best == nil || n.Level > best.Level {
			best = n
		}
	}
	if best == nil {
		idx.entryPoint.Store(nil)
		idx.maxLevel.Store(0)
		slog.Info("[HNSW] Graph is now empty")
		return
	}
	idx.entryPoint.Store(best)
	idx.maxLevel.Store(int64(best.Level))
	slog.Info("[HNSW] New entry point elected", "node_id", best.ID, "max_level", best.Level)
}
