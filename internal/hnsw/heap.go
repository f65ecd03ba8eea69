// Package hnsw implements the graph engine: layer selection, greedy
// descent, candidate-set search with a heuristic neighbor selector,
// insertion, deletion with relinking, validation and recall self-test.
package hnsw

import "container/heap"

// candidate pairs an arena internal ID with its distance to the node the
// search or insert is centered on.
type candidate struct {
	id   uint32
	dist float32
}

// minHeap surfaces the nearest unexplored candidate first; it drives the
// expansion frontier of candidate search.
type minHeap []candidate

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxHeap surfaces the worst-so-far candidate first, so the search loop
// can cheaply test "is this new candidate better than our current worst
// accepted result".
type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func newMinHeap(capacity int) *minHeap {
	h := make(minHeap, 0, capacity)
	heap.Init(&h)
	return &h
}

func newMaxHeap(capacity int) *maxHeap {
	h := make(maxHeap, 0, capacity)
	heap.Init(&h)
	return &h
}
