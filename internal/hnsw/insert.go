package hnsw

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/store"
)

// Insert adds a vector under the locked API: it holds the write lock for
// its whole duration. Re-inserting an id already present returns the
// existing node without modifying the graph.
func (idx *Index) Insert(id uint64, vec []float32, value any, attrs json.RawMessage, ef int) (*store.Node, error) {
	start := time.Now()
	defer func() { idx.metrics.insertLat.Observe(time.Since(start).Seconds()) }()

	if len(vec) != idx.Dim {
		return nil, ErrBadInput
	}
	if ef <= 0 {
		ef = idx.cfg.EFConstruction
	}

	cp := make([]float32, len(vec))
	copy(cp, vec)
	norm := distance.Normalize(cp)
	qv, err := distance.Encode(idx.Kind, cp)
	if err != nil {
		return nil, err
	}

	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()

	if existing, ok := idx.idIndex[id]; ok {
		return existing, nil
	}

	node := store.NewNode(id, value, qv, norm, randomLevel(idx.rng, idx.mL), attrs)
	idx.commitNewNode(node, ef)
	idx.metrics.inserts.Inc()
	return node, nil
}

// commitNewNode performs the greedy descent, per-layer candidate search,
// heuristic neighbor selection, and bidirectional linking of spec §4.4
// steps 3-8. Caller must hold writeLock.
func (idx *Index) commitNewNode(node *store.Node, ef int) {
	idx.arena.Reserve(node)

	ep := idx.entryPoint.Load()
	if ep == nil {
		idx.arena.Publish(node)
		idx.entryPoint.Store(node)
		idx.maxLevel.Store(int64(node.Level))
		idx.idIndex[node.ID] = node
		idx.slots.Advance()
		return
	}

	maxLevel := int(idx.maxLevel.Load())
	curID, curDist := ep.InternalID, distanceToVector(node.Vector, ep.Vector)
	for l := maxLevel; l > node.Level; l-- {
		curID, curDist = idx.greedyStep(node.Vector, curID, curDist, l)
	}

	for l := min(node.Level, maxLevel); l >= 0; l-- {
		cands := idx.searchLayer(node.Vector, curID, l, ef)
		capL := idx.cfg.capForLevel(l)
		neighborIDs := idx.selectNeighborsHeuristic(cands, capL)
		idx.linkAtLevel(node, l, neighborIDs, capL)
		if len(cands) > 0 {
			curID = cands[0].id
		}
	}

	idx.arena.Publish(node)
	idx.idIndex[node.ID] = node

	if node.Level > maxLevel {
		idx.entryPoint.Store(node)
		idx.maxLevel.Store(int64(node.Level))
	}
	idx.slots.Advance()
}

// selectNeighborsHeuristic implements the Malkov & Yashunin extended
// heuristic: from candidates sorted by distance to the new node, accept c
// iff no already-accepted c' is closer to c than c is to the new node.
// Ties are broken by ascending internal candidate id for reproducibility.
func (idx *Index) selectNeighborsHeuristic(candidates []candidate, m int) []uint32 {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].dist != sorted[j].dist {
			return sorted[i].dist < sorted[j].dist
		}
		return sorted[i].id < sorted[j].id
	})

	accepted := make([]candidate, 0, m)
	for _, c := range sorted {
		if len(accepted) >= m {
			break
		}
		cNode := idx.arena.Get(c.id)
		if cNode == nil {
			continue
		}
		good := true
		for _, a := range accepted {
			aNode := idx.arena.Get(a.id)
			if aNode == nil {
				continue
			}
			d, err := distance.Distance(cNode.Vector, aNode.Vector)
			if err == nil && d < c.dist {
				good = false
				break
			}
		}
		if good {
			accepted = append(accepted, c)
		}
	}
	ids := make([]uint32, len(accepted))
	for i, a := range accepted {
		ids[i] = a.id
	}
	return ids
}

// linkAtLevel installs node's adjacency at level and the reciprocal
// back-links, pruning any neighbor whose list now exceeds capL via the
// same heuristic selector and removing the pruned links symmetrically
// (spec §4.4 step 6).
func (idx *Index) linkAtLevel(node *store.Node, level int, neighborIDs []uint32, capL int) {
	node.SetNeighborsAt(level, neighborIDs)

	for _, nbID := range neighborIDs {
		nbNode := idx.arena.Get(nbID)
		if nbNode == nil {
			continue
		}
		existing := nbNode.NeighborsAt(level)
		merged := make([]uint32, 0, len(existing)+1)
		merged = append(merged, existing...)
		merged = append(merged, node.InternalID)

		if len(merged) <= capL {
			nbNode.SetNeighborsAt(level, merged)
			continue
		}

		cands := make([]candidate, 0, len(merged))
		for _, id := range merged {
			other := idx.arena.Get(id)
			if other == nil {
				continue
			}
			d, err := distance.Distance(nbNode.Vector, other.Vector)
			if err != nil {
				continue
			}
			cands = append(cands, candidate{id, d})
		}
		pruned := idx.selectNeighborsHeuristic(cands, capL)
		nbNode.SetNeighborsAt(level, pruned)

		keep := make(map[uint32]bool, len(pruned))
		for _, id := range pruned {
			keep[id] = true
		}
		for _, id := range merged {
			if keep[id] {
				continue
			}
			idx.removeNeighbor(idx.arena.Get(id), level, nbNode.InternalID)
		}
	}
}

// removeNeighbor drops target from n's adjacency at level, if present.
func (idx *Index) removeNeighbor(n *store.Node, level int, target uint32) {
	if n == nil {
		return
	}
	cur := n.NeighborsAt(level)
	out := make([]uint32, 0, len(cur))
	for _, id := range cur {
		if id != target {
			out = append(out, id)
		}
	}
	n.SetNeighborsAt(level, out)
}
