package hnsw

import (
	"container/heap"
	"sort"
	"time"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/store"
)

// distTo computes the kernel distance between an already-encoded query and
// the vector stored at arena internal id. Missing nodes, and nodes whose
// vector the kernel rejects, report an effectively infinite distance so
// they sort last. Deleted nodes are returned with their real distance;
// callers check n.Deleted themselves.
func (idx *Index) distTo(query distance.Vector, id uint32) (float32, *store.Node) {
	n := idx.arena.Get(id)
	if n == nil {
		return math32Max, nil
	}
	d, err := distance.Distance(query, n.Vector)
	if err != nil {
		return math32Max, n
	}
	return d, n
}

const math32Max = 3.4028235e38

// searchLayer runs the ef-bounded candidate search of spec §4.4 step 3 at a
// single level, starting from entry and returning up to ef results sorted
// ascending by distance. It never returns a deleted node.
func (idx *Index) searchLayer(query distance.Vector, entry uint32, level, ef int) []candidate {
	visited := newBitSet(uint32(idx.arena.Cap()))
	visited.Add(entry)

	entryDist, entryNode := idx.distTo(query, entry)
	frontier := newMinHeap(ef + 1)
	best := newMaxHeap(ef + 1)
	if entryNode != nil && !entryNode.Deleted.Load() {
		heap.Push(frontier, candidate{entry, entryDist})
		heap.Push(best, candidate{entry, entryDist})
	}

	for frontier.Len() > 0 {
		c := heap.Pop(frontier).(candidate)
		if best.Len() >= ef && c.dist > (*best)[0].dist {
			break
		}
		node := idx.arena.Get(c.id)
		if node == nil {
			continue
		}
		for _, nb := range node.NeighborsAt(level) {
			if visited.Has(nb) {
				continue
			}
			visited.Add(nb)
			d, nbNode := idx.distTo(query, nb)
			if nbNode == nil || nbNode.Deleted.Load() {
				continue
			}
			if best.Len() < ef || d < (*best)[0].dist {
				heap.Push(frontier, candidate{nb, d})
				heap.Push(best, candidate{nb, d})
				if best.Len() > ef {
					heap.Pop(best)
				}
			}
		}
	}

	result := make([]candidate, best.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(best).(candidate)
	}
	return result
}

// greedyStep walks from (curID, curDist) to the locally nearest neighbor at
// level, repeating until no neighbor improves on the current node. Used
// for the single-nearest-node descent through upper layers.
func (idx *Index) greedyStep(query distance.Vector, curID uint32, curDist float32, level int) (uint32, float32) {
	for {
		node := idx.arena.Get(curID)
		if node == nil {
			return curID, curDist
		}
		improved := false
		for _, nb := range node.NeighborsAt(level) {
			d, nbNode := idx.distTo(query, nb)
			if nbNode == nil || nbNode.Deleted.Load() {
				continue
			}
			if d < curDist {
				curDist = d
				curID = nb
				improved = true
			}
		}
		if !improved {
			return curID, curDist
		}
	}
}

// Result is one hit from Search: the external node ID and its distance to
// the query.
type Result struct {
	ID       uint64
	Distance float32
}

// FilterFunc reports whether a node's JSON attributes satisfy a compiled
// predicate. A nil FilterFunc means "match everything".
type FilterFunc func(attrs []byte) bool

// SearchOptions configures Search. Zero values mean "use the index's
// defaults".
type SearchOptions struct {
	// EF is the dynamic candidate list size; if 0, max(k, EFConstruction)
	// is used.
	EF int
	// Filter restricts results to nodes whose attributes satisfy it.
	Filter FilterFunc
	// FilterEF bounds how many candidates get tested against Filter
	// before giving up, compensating for predicate selectivity. If 0 and
	// Filter is set, the index's configured default (or k*100) applies.
	FilterEF int
}

// Search finds up to k nearest live nodes to query, optionally restricted
// by a compiled filter predicate. Callers must not hold a read slot when
// calling Search; it acquires and releases one internally.
func (idx *Index) Search(query []float32, k int, opts SearchOptions) ([]Result, error) {
	start := time.Now()
	defer func() { idx.metrics.searchLat.Observe(time.Since(start).Seconds()) }()

	if len(query) != idx.Dim {
		return nil, ErrBadInput
	}
	if k <= 0 {
		return nil, nil
	}

	s := idx.AcquireReadSlot()
	defer idx.ReleaseReadSlot(s)

	ep := idx.EntryPoint()
	if ep == nil {
		return nil, nil
	}

	cp := make([]float32, len(query))
	copy(cp, query)
	distance.Normalize(cp)
	qv, err := distance.Encode(idx.Kind, cp)
	if err != nil {
		return nil, err
	}

	ef := opts.EF
	if ef < k {
		if idx.cfg.EFConstruction > k {
			ef = idx.cfg.EFConstruction
		} else {
			ef = k
		}
	}

	curID, curDist := ep.InternalID, distanceToVector(qv, ep.Vector)
	for l := idx.MaxLevel(); l > 0; l-- {
		curID, curDist = idx.greedyStep(qv, curID, curDist, l)
	}

	var cands []candidate
	if opts.Filter == nil {
		cands = idx.searchLayer(qv, curID, 0, ef)
		if len(cands) > k {
			cands = cands[:k]
		}
	} else {
		filterEF := opts.FilterEF
		if filterEF <= 0 {
			if idx.cfg.FilterEF > 0 {
				filterEF = idx.cfg.FilterEF
			} else {
				filterEF = k * 100
			}
		}
		cands = idx.searchLayerFiltered(qv, curID, ef, filterEF, k, opts.Filter)
	}

	results := make([]Result, len(cands))
	for i, c := range cands {
		n := idx.arena.Get(c.id)
		results[i] = Result{ID: n.ID, Distance: c.dist}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results, nil
}

// searchLayerFiltered implements spec §4.4 step 4: candidates are consumed
// by graph exploration regardless of whether they match the predicate, but
// only emitted into the result set when they do. The loop stops when
// either ef candidates have been examined or filterEF candidates have been
// tested against the predicate, whichever comes first.
func (idx *Index) searchLayerFiltered(query distance.Vector, entry uint32, ef, filterEF, k int, filter FilterFunc) []candidate {
	visited := newBitSet(uint32(idx.arena.Cap()))
	visited.Add(entry)

	entryDist, entryNode := idx.distTo(query, entry)
	frontier := newMinHeap(ef + 1)
	if entryNode == nil || entryNode.Deleted.Load() {
		return nil
	}
	heap.Push(frontier, candidate{entry, entryDist})

	matched := make([]candidate, 0, k)
	examined := 0
	tested := 0

	for frontier.Len() > 0 && examined < ef && tested < filterEF {
		c := heap.Pop(frontier).(candidate)
		examined++
		node := idx.arena.Get(c.id)
		if node == nil {
			continue
		}
		if tested < filterEF {
			tested++
			if filter(node.Attrs) {
				matched = append(matched, c)
			}
		}
		for _, nb := range node.NeighborsAt(0) {
			if visited.Has(nb) {
				continue
			}
			visited.Add(nb)
			d, nbNode := idx.distTo(query, nb)
			if nbNode == nil || nbNode.Deleted.Load() {
				continue
			}
			heap.Push(frontier, candidate{nb, d})
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].dist < matched[j].dist })
	if len(matched) > k {
		matched = matched[:k]
	}
	return matched
}
