package hnsw

import (
	"math/rand"
	"sort"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/store"
)

// TestGraphRecall picks up to samples random live nodes, runs a k-NN
// search with each as its own query, and compares the result set against
// a linear scan baseline (mirroring the teacher's BruteForceIndex used for
// exactly this comparison). It reports mean recall@k.
func (idx *Index) TestGraphRecall(samples, k int) float64 {
	idx.writeLock.Lock()
	var live []*store.Node
	idx.arena.Iterate(func(n *store.Node) bool {
		live = append(live, n)
		return true
	})
	idx.writeLock.Unlock()

	if len(live) == 0 {
		return 0
	}
	if samples > len(live) {
		samples = len(live)
	}
	rand.Shuffle(len(live), func(i, j int) { live[i], live[j] = live[j], live[i] })
	chosen := live[:samples]

	var totalRecall float64
	for _, n := range chosen {
		query, err := distance.Decode(n.Vector, n.Norm)
		if err != nil {
			continue
		}
		approx, err := idx.Search(query, k, SearchOptions{})
		if err != nil {
			continue
		}
		exact := idx.bruteForceKNN(n.Vector, k, n.ID)

		hits := 0
		exactSet := make(map[uint64]bool, len(exact))
		for _, id := range exact {
			exactSet[id] = true
		}
		for _, r := range approx {
			if exactSet[r.ID] {
				hits++
			}
		}
		if len(exact) > 0 {
			totalRecall += float64(hits) / float64(len(exact))
		}
	}
	recall := totalRecall / float64(samples)
	idx.metrics.recallGauge.Set(recall)
	return recall
}

// bruteForceKNN linearly scans every live node and returns the k nearest
// external ids to query, excluding self.
func (idx *Index) bruteForceKNN(query distance.Vector, k int, self uint64) []uint64 {
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()

	type scored struct {
		id   uint64
		dist float32
	}
	var all []scored
	idx.arena.Iterate(func(n *store.Node) bool {
		if n.ID == self {
			return true
		}
		d, err := distance.Distance(query, n.Vector)
		if err == nil {
			all = append(all, scored{n.ID, d})
		}
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if len(all) > k {
		all = all[:k]
	}
	ids := make([]uint64, len(all))
	for i, s := range all {
		ids[i] = s.id
	}
	return ids
}
