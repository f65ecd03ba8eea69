package hnsw

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/slot"
	"github.com/annkit/annkit/internal/store"
)

// Index owns every node of one HNSW graph. It is the only shared mutable
// structure in the design: nodes' adjacency arrays are mutated only by
// whichever goroutine currently holds writeLock. There is no process-wide
// singleton — every operation takes an explicit *Index.
type Index struct {
	Dim  int
	Kind distance.Kind
	cfg  Config

	writeLock sync.Mutex
	arena     *store.Arena
	slots     *slot.Registry

	// entryPoint and maxLevel are read off-lock by the optimistic insert
	// path's prepare phase, so both are published through atomics rather
	// than plain fields even though the writer serializes their updates
	// under writeLock.
	entryPoint atomic.Pointer[store.Node]
	maxLevel   atomic.Int64

	// idIndex maps the caller-assigned external ID to its live node.
	// Mutated only under writeLock.
	idIndex map[uint64]*store.Node

	// rng draws insertion levels for the locked Insert path and is only
	// used while holding writeLock. Optimistic inserts do not use it; they
	// draw from math/rand's package-level source (see optimistic.go).
	rng *rand.Rand
	mL  float64

	metrics *metrics
}

// New creates an empty index of dimension dim storing vectors in the given
// quantization kind.
func New(dim int, kind distance.Kind, cfg Config) (*Index, error) {
	if dim <= 0 {
		return nil, ErrBadInput
	}
	switch kind {
	case distance.FP32, distance.Q8, distance.BIN:
	default:
		return nil, ErrBadInput
	}
	if cfg.M <= 1 {
		cfg = DefaultConfig()
	}
	return &Index{
		Dim:      dim,
		Kind:     kind,
		cfg:      cfg,
		arena:    store.NewArena(),
		slots:    slot.New(),
		idIndex:  make(map[uint64]*store.Node),
		rng:      rand.New(rand.NewSource(1)),
		mL:       1 / math.Log(float64(cfg.M)),
		metrics:  newMetrics(),
	}, nil
}

// NodeCount returns the number of live nodes.
func (idx *Index) NodeCount() int {
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()
	return idx.arena.Len()
}

// AcquireReadSlot registers the caller as a reader observing the current
// graph version and returns the slot index. Every search must acquire a
// slot before touching the graph and release it (see ReleaseReadSlot) when
// done.
func (idx *Index) AcquireReadSlot() int {
	s := idx.slots.Acquire()
	idx.metrics.slotBusy.Set(float64(idx.slots.Busy()))
	return s
}

// ReleaseReadSlot frees a slot acquired via AcquireReadSlot.
func (idx *Index) ReleaseReadSlot(s int) {
	idx.slots.Release(s)
	idx.metrics.slotBusy.Set(float64(idx.slots.Busy()))
}

// GetNodeVector writes the dequantized, de-normalized fp32 vector for the
// live node with external id id.
func (idx *Index) GetNodeVector(id uint64) ([]float32, error) {
	idx.writeLock.Lock()
	n, ok := idx.idIndex[id]
	idx.writeLock.Unlock()
	if !ok || n.Deleted.Load() {
		return nil, ErrNotFound
	}
	return distance.Decode(n.Vector, n.Norm)
}

// randomLevel draws a level from floor(-ln(U)*mL), U~U(0,1). Must be
// called while holding writeLock, or against a call-local RNG for the
// optimistic path.
func randomLevel(rng *rand.Rand, mL float64) int {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return int(math.Floor(-math.Log(u) * mL))
}

func distanceToVector(a distance.Vector, b distance.Vector) float32 {
	d, err := distance.Distance(a, b)
	if err != nil {
		return math.MaxFloat32
	}
	return d
}

// WalkLiveIDs calls fn once per live node's external ID, in current
// list order, stopping early if fn returns false.
func (idx *Index) WalkLiveIDs(fn func(id uint64) bool) {
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()
	idx.arena.Iterate(func(n *store.Node) bool {
		return fn(n.ID)
	})
}

// EntryPoint returns the current top-level node, or nil if the index is
// empty. Safe to call without holding writeLock.
func (idx *Index) EntryPoint() *store.Node { return idx.entryPoint.Load() }

// MaxLevel returns the current maximum level. Safe to call without holding
// writeLock.
func (idx *Index) MaxLevel() int { return int(idx.maxLevel.Load()) }
