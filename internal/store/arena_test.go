package store

import "testing"

func TestAllocAssignsSequentialIDs(t *testing.T) {
	a := NewArena()
	n1 := &Node{ID: 1}
	n2 := &Node{ID: 2}
	if id := a.Alloc(n1); id != 0 {
		t.Errorf("got %d, want 0", id)
	}
	if id := a.Alloc(n2); id != 1 {
		t.Errorf("got %d, want 1", id)
	}
	if a.Len() != 2 {
		t.Errorf("got len %d, want 2", a.Len())
	}
}

func TestHeadIsMostRecentInsert(t *testing.T) {
	a := NewArena()
	n1 := &Node{ID: 1}
	n2 := &Node{ID: 2}
	a.Alloc(n1)
	a.Alloc(n2)
	if a.Head() != n2 {
		t.Error("expected head to be the most recently allocated node")
	}
}

func TestIterateVisitsAllLiveNodes(t *testing.T) {
	a := NewArena()
	ids := []uint64{1, 2, 3}
	for _, id := range ids {
		a.Alloc(&Node{ID: id})
	}
	seen := map[uint64]bool{}
	a.Iterate(func(n *Node) bool {
		seen[n.ID] = true
		return true
	})
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("id %d not visited", id)
		}
	}
}

func TestUnspliceRemovesFromLiveListAndMarksDead(t *testing.T) {
	a := NewArena()
	n1 := &Node{ID: 1}
	n2 := &Node{ID: 2}
	n3 := &Node{ID: 3}
	a.Alloc(n1)
	a.Alloc(n2)
	a.Alloc(n3)

	a.Unsplice(n2, 5)

	if !n2.Deleted.Load() {
		t.Error("expected n2 to be marked deleted")
	}
	if n2.DeadVersion != 5 {
		t.Errorf("got dead version %d, want 5", n2.DeadVersion)
	}
	if a.Len() != 2 {
		t.Errorf("got len %d, want 2", a.Len())
	}

	var seen []uint64
	a.Iterate(func(n *Node) bool {
		seen = append(seen, n.ID)
		return true
	})
	for _, id := range seen {
		if id == 2 {
			t.Error("deleted node still present in live list traversal")
		}
	}
	if len(seen) != 2 {
		t.Errorf("got %d live nodes, want 2", len(seen))
	}
}

func TestUnspliceHeadAndTail(t *testing.T) {
	a := NewArena()
	n1 := &Node{ID: 1}
	a.Alloc(n1)
	a.Unsplice(n1, 1)
	if a.Head() != nil {
		t.Error("expected empty live list after unsplicing the only node")
	}
	if a.Len() != 0 {
		t.Errorf("got len %d, want 0", a.Len())
	}
}

func TestGetOutOfRange(t *testing.T) {
	a := NewArena()
	if a.Get(0) != nil {
		t.Error("expected nil for out-of-range id")
	}
}
