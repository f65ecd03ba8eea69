package hnsw

import (
	"testing"

	"github.com/annkit/annkit/internal/distance"
)

func mustNew(t *testing.T, dim int, kind distance.Kind) *Index {
	t.Helper()
	idx, err := New(dim, kind, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return idx
}

// TestEndToEndScenario1 is spec's literal scenario 1: three orthonormal
// basis vectors, searching for the axis closest to [1,0,0].
func TestEndToEndScenario1(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	if _, err := idx.Insert(1, []float32{1, 0, 0}, nil, nil, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Insert(2, []float32{0, 1, 0}, nil, nil, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Insert(3, []float32{0, 0, 1}, nil, nil, 0); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0, 0}, 2, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != 1 {
		t.Errorf("nearest id = %d, want 1", results[0].ID)
	}
	if results[0].Distance > 1e-5 {
		t.Errorf("nearest distance = %f, want ~0", results[0].Distance)
	}
	if results[1].ID != 2 && results[1].ID != 3 {
		t.Errorf("second id = %d, want 2 or 3", results[1].ID)
	}
	if results[1].Distance < 1.9 || results[1].Distance > 2.1 {
		t.Errorf("second distance = %f, want ~2", results[1].Distance)
	}
}

// TestEndToEndScenario2 is spec's literal scenario 2: same three vectors
// under BIN quantization; distances land in {0, 2/3*2, 2}.
func TestEndToEndScenario2(t *testing.T) {
	idx := mustNew(t, 3, distance.BIN)
	idx.Insert(1, []float32{1, 0, 0}, nil, nil, 0)
	idx.Insert(2, []float32{0, 1, 0}, nil, nil, 0)
	idx.Insert(3, []float32{0, 0, 1}, nil, nil, 0)

	results, err := idx.Search([]float32{1, 0, 0}, 3, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		valid := closeTo(r.Distance, 0) || closeTo(r.Distance, 2.0/3.0*2) || closeTo(r.Distance, 2)
		if !valid {
			t.Errorf("distance %f not in {0, 4/3, 2}", r.Distance)
		}
	}
}

func closeTo(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.05
}

func TestFP32RoundTripInvariant(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	v := []float32{0.6, 0.8, 0}
	n, err := idx.Insert(1, v, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	back, err := idx.GetNodeVector(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range v {
		if !closeTo(back[i], c) {
			t.Errorf("component %d: got %f, want %f", i, back[i], c)
		}
	}
}

func TestInsertDuplicateIDReturnsExisting(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	n1, err := idx.Insert(1, []float32{1, 0, 0}, "first", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := idx.Insert(1, []float32{0, 1, 0}, "second", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 {
		t.Error("expected the same node handle on duplicate insert")
	}
	if n2.Value != "first" {
		t.Errorf("got value %v, want unchanged \"first\"", n2.Value)
	}
}

func TestInsertRejectsDimensionMismatch(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	if _, err := idx.Insert(1, []float32{1, 0}, nil, nil, 0); err == nil {
		t.Error("expected ErrBadInput for dimension mismatch")
	}
}

func buildRandomIndex(t *testing.T, n, dim int, kind distance.Kind) *Index {
	t.Helper()
	idx := mustNew(t, dim, kind)
	rngState := uint64(12345)
	nextRand := func() float32 {
		rngState = rngState*6364136223846793005 + 1442695040888963407
		return float32(rngState>>40) / float32(1<<24)
	}
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = nextRand()*2 - 1
		}
		if _, err := idx.Insert(uint64(i+1), v, nil, nil, 0); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	return idx
}

func TestValidateGraphAfterInserts(t *testing.T) {
	idx := buildRandomIndex(t, 200, 16, distance.FP32)
	report := idx.ValidateGraph()
	if report.ConnectedNodes != idx.NodeCount() {
		t.Errorf("connected=%d, want %d", report.ConnectedNodes, idx.NodeCount())
	}
	if !report.AllReciprocal {
		t.Errorf("expected all links reciprocal, found %d violations", report.NonReciprocal)
	}
}

func TestDeleteRestoresInvariants(t *testing.T) {
	idx := buildRandomIndex(t, 300, 16, distance.FP32)
	for i := uint64(1); i <= 150; i++ {
		if err := idx.DeleteNode(i); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	report := idx.ValidateGraph()
	if report.ConnectedNodes != idx.NodeCount() {
		t.Errorf("connected=%d, want %d", report.ConnectedNodes, idx.NodeCount())
	}
	if !report.AllReciprocal {
		t.Errorf("expected all links reciprocal after deletion, found %d violations", report.NonReciprocal)
	}
	if _, err := idx.GetNodeVector(1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for deleted node, got %v", err)
	}
}

func TestNeighborCapRespected(t *testing.T) {
	idx := buildRandomIndex(t, 400, 8, distance.FP32)
	idx.writeLock.Lock()
	defer idx.writeLock.Unlock()
	for i := 0; i < idx.arena.Cap(); i++ {
		n := idx.arena.Get(uint32(i))
		if n == nil || n.Deleted.Load() {
			continue
		}
		for l := 0; l <= n.Level; l++ {
			capL := idx.cfg.capForLevel(l)
			if got := len(n.NeighborsAt(l)); got > capL {
				t.Errorf("node %d level %d: degree %d exceeds cap %d", n.ID, l, got, capL)
			}
		}
	}
}

func TestOptimisticInsertCommitsWhenUncontended(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	p, err := idx.PrepareInsert(1, []float32{1, 0, 0}, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	n, err := idx.CommitInsert(p)
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != 1 {
		t.Errorf("got id %d, want 1", n.ID)
	}
}

func TestOptimisticInsertConflictsOnInterleavedWrite(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	idx.Insert(1, []float32{1, 0, 0}, nil, nil, 0)

	p, err := idx.PrepareInsert(2, []float32{0, 1, 0}, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := idx.Insert(3, []float32{0, 0, 1}, nil, nil, 0); err != nil {
		t.Fatal(err)
	}

	if _, err := idx.CommitInsert(p); err != ErrConflict {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := mustNew(t, 3, distance.FP32)
	results, err := idx.Search([]float32{1, 0, 0}, 5, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchWithFilter(t *testing.T) {
	idx := mustNew(t, 2, distance.FP32)
	idx.Insert(1, []float32{1, 0}, nil, []byte(`{"tag":"a"}`), 0)
	idx.Insert(2, []float32{0.9, 0.1}, nil, []byte(`{"tag":"b"}`), 0)
	idx.Insert(3, []float32{0.8, 0.2}, nil, []byte(`{"tag":"a"}`), 0)

	filter := func(attrs []byte) bool {
		return string(attrs) == `{"tag":"a"}`
	}
	results, err := idx.Search([]float32{1, 0}, 2, SearchOptions{Filter: filter, FilterEF: 100})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.ID == 2 {
			t.Error("filtered-out node returned in results")
		}
	}
}

func TestRecallReasonableOnRandomData(t *testing.T) {
	idx := buildRandomIndex(t, 500, 24, distance.FP32)
	recall := idx.TestGraphRecall(30, 10)
	if recall < 0.5 {
		t.Errorf("recall = %f, expected at least 0.5 on 500-vector random build", recall)
	}
}
