package hnsw

import (
	"fmt"
	"strings"
)

// Stats summarizes an index's shape for operator-facing introspection.
type Stats struct {
	NodeCount      int
	MaxLevel       int
	Dim            int
	Kind           string
	MeanDegree     []float64 // MeanDegree[l] is the mean level-l degree
	DeletedPending int
}

// PrintStats gathers and formats Stats the way the teacher's GetInfo
// exposes index introspection.
func (idx *Index) PrintStats() string {
	s := idx.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "nodes=%d max_level=%d dim=%d kind=%s deleted_pending=%d\n",
		s.NodeCount, s.MaxLevel, s.Dim, s.Kind, s.DeletedPending)
	for l, deg := range s.MeanDegree {
		fmt.Fprintf(&b, "  level %d: mean_degree=%.2f\n", l, deg)
	}
	return b.String()
}

// Stats computes the current Stats snapshot under the write lock.
func (idx *Index) Stats() Stats {
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()

	maxLevel := int(idx.maxLevel.Load())
	degreeSum := make([]int, maxLevel+1)
	degreeCount := make([]int, maxLevel+1)
	deletedPending := 0

	for i := 0; i < idx.arena.Cap(); i++ {
		n := idx.arena.Get(uint32(i))
		if n == nil {
			continue
		}
		if n.Deleted.Load() {
			deletedPending++
			continue
		}
		for l := 0; l <= n.Level && l <= maxLevel; l++ {
			degreeSum[l] += len(n.NeighborsAt(l))
			degreeCount[l]++
		}
	}

	mean := make([]float64, maxLevel+1)
	for l := range mean {
		if degreeCount[l] > 0 {
			mean[l] = float64(degreeSum[l]) / float64(degreeCount[l])
		}
	}

	return Stats{
		NodeCount:      idx.arena.Len(),
		MaxLevel:       maxLevel,
		Dim:            idx.Dim,
		Kind:           idx.Kind.String(),
		MeanDegree:     mean,
		DeletedPending: deletedPending,
	}
}
