package hnsw

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/store"
)

// PreparedInsert is the off-lock half of the optimistic insert protocol of
// spec §5 and §9: it carries a candidate-search result computed without
// the write lock, plus the graph version observed while computing it, so
// CommitInsert can detect whether the graph moved underneath it.
type PreparedInsert struct {
	node    *store.Node
	version uint64
	epNil   bool
	maxAt   int
	cands   map[int][]candidate
}

// PrepareInsert runs the candidate-search phase of insert without
// acquiring the write lock, the key performance lever of the optimistic
// path. The level draw uses math/rand's package-level source, which is safe
// for concurrent use without external synchronization, standing in for
// the design's per-thread counter-seeded RNG.
func (idx *Index) PrepareInsert(id uint64, vec []float32, value any, attrs json.RawMessage, ef int) (*PreparedInsert, error) {
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

	version := idx.slots.CurrentVersion()
	ep := idx.entryPoint.Load()
	maxLevel := idx.MaxLevel()
	level := optimisticLevel(idx.mL)

	node := store.NewNode(id, value, qv, norm, level, attrs)
	p := &PreparedInsert{node: node, version: version, epNil: ep == nil, maxAt: maxLevel}

	if ep == nil {
		return p, nil
	}

	p.cands = make(map[int][]candidate, level+1)
	curID, curDist := ep.InternalID, distanceToVector(qv, ep.Vector)
	for l := maxLevel; l > level; l-- {
		curID, curDist = idx.greedyStep(qv, curID, curDist, l)
	}
	for l := min(level, maxLevel); l >= 0; l-- {
		cands := idx.searchLayer(qv, curID, l, ef)
		p.cands[l] = cands
		if len(cands) > 0 {
			curID = cands[0].id
		}
	}
	return p, nil
}

func optimisticLevel(mL float64) int {
	u := rand.Float64()
	for u == 0 {
		u = rand.Float64()
	}
	return int(-math.Log(u) * mL)
}

// CommitInsert verifies the graph version observed by PrepareInsert is
// still current and, if so, installs the prepared node under the write
// lock. A version mismatch means some other write interleaved and returns
// ErrConflict; the caller should retry through Insert.
func (idx *Index) CommitInsert(p *PreparedInsert) (*store.Node, error) {
	start := time.Now()
	defer func() { idx.metrics.insertLat.Observe(time.Since(start).Seconds()) }()

	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()

	if existing, ok := idx.idIndex[p.node.ID]; ok {
		return existing, nil
	}
	if idx.slots.CurrentVersion() != p.version {
		return nil, ErrConflict
	}

	idx.arena.Reserve(p.node)

	if p.epNil {
		idx.arena.Publish(p.node)
		idx.entryPoint.Store(p.node)
		idx.maxLevel.Store(int64(p.node.Level))
		idx.idIndex[p.node.ID] = p.node
		idx.slots.Advance()
		idx.metrics.inserts.Inc()
		return p.node, nil
	}

	for l := min(p.node.Level, p.maxAt); l >= 0; l-- {
		capL := idx.cfg.capForLevel(l)
		neighborIDs := idx.selectNeighborsHeuristic(p.cands[l], capL)
		idx.linkAtLevel(p.node, l, neighborIDs, capL)
	}

	idx.arena.Publish(p.node)
	idx.idIndex[p.node.ID] = p.node

	if p.node.Level > p.maxAt {
		idx.entryPoint.Store(p.node)
		idx.maxLevel.Store(int64(p.node.Level))
	}
	idx.slots.Advance()
	idx.metrics.inserts.Inc()
	return p.node, nil
}
