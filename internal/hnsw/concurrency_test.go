package hnsw

import (
	"sync"
	"testing"
	"time"

	"github.com/annkit/annkit/internal/distance"
)

// TestConcurrentReadersAndWriters exercises spec §8's concurrent-safety
// property: N writers and N readers running against the same index for a
// bounded duration, followed by a validator pass.
func TestConcurrentReadersAndWriters(t *testing.T) {
	idx := mustNew(t, 8, distance.FP32)
	for i := 0; i < 50; i++ {
		v := make([]float32, 8)
		v[i%8] = 1
		idx.Insert(uint64(i+1), v, nil, nil, 0)
	}

	stop := time.After(200 * time.Millisecond)
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			nextID := uint64(base*100000 + 1000)
			for {
				select {
				case <-stop:
					return
				default:
				}
				v := make([]float32, 8)
				v[int(nextID)%8] = 1
				idx.Insert(nextID, v, nil, nil, 0)
				nextID++
			}
		}(w)
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := make([]float32, 8)
			query[0] = 1
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := idx.Search(query, 5, SearchOptions{}); err != nil {
					t.Errorf("search error: %v", err)
				}
			}
		}()
	}

	wg.Wait()

	report := idx.ValidateGraph()
	if !report.AllReciprocal {
		t.Errorf("expected reciprocal links after concurrent load, found %d violations", report.NonReciprocal)
	}
	if report.ConnectedNodes != idx.NodeCount() {
		t.Errorf("connected=%d, want %d", report.ConnectedNodes, idx.NodeCount())
	}
}

func TestMassDeletionThenRecall(t *testing.T) {
	idx := buildRandomIndex(t, 1000, 16, distance.FP32)
	total := idx.NodeCount()
	toDelete := int(float64(total) * 0.95)

	deleted := 0
	for i := uint64(1); i <= uint64(total) && deleted < toDelete; i += 3 {
		if err := idx.DeleteNode(i); err == nil {
			deleted++
		}
	}
	for i := uint64(2); i <= uint64(total) && deleted < toDelete; i += 3 {
		if err := idx.DeleteNode(i); err == nil {
			deleted++
		}
	}

	report := idx.ValidateGraph()
	if !report.AllReciprocal {
		t.Errorf("expected reciprocal links after mass deletion, found %d violations", report.NonReciprocal)
	}
	if report.ConnectedNodes != idx.NodeCount() {
		t.Errorf("connected=%d, want %d", report.ConnectedNodes, idx.NodeCount())
	}

	if idx.NodeCount() > 0 {
		idx.TestGraphRecall(min(10, idx.NodeCount()), 5)
	}
}
