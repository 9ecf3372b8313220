package world

import "container/heap"

// priorityTask is one unit of scheduler work: lower priority values run
// first; seq breaks ties FIFO within the same priority level (§4.6's
// "FIFO within a priority level; strict priority across levels").
type priorityTask struct {
	priority int
	seq      uint64
	fn       func()
}

type taskHeap []*priorityTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*priorityTask)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ = heap.Interface(&taskHeap{})
