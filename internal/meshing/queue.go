package meshing

import (
	"container/heap"

	"voxelcore/internal/world"
)

// buildTask is one chunk queued for a mesh build: priority is its
// Chebyshev distance to the observer at enqueue time (lower = sooner),
// matching §4.5's "priority-ordered by distance-to-observer" pool queue.
type buildTask struct {
	priority int
	seq      uint64
	chunk    *world.Chunk
}

type buildHeap []*buildTask

func (h buildHeap) Len() int { return len(h) }
func (h buildHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h buildHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *buildHeap) Push(x any)   { *h = append(*h, x.(*buildTask)) }
func (h *buildHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ = heap.Interface(&buildHeap{})
