package aggregate

import "container/heap"

// topKItem is one candidate ranked by Value (higher is better).
type topKItem struct {
	pid   uint32
	value uint64 // natural units; caller scales before building a TopKEntry
	name  string
}

// minHeap keeps the 3 largest items seen so far: the root is always the
// smallest of the retained set, so a new candidate only needs to beat
// the root to earn a spot. This streams the aggregation in one pass
// per design note in §9, avoiding a full sort of subgroup membership.
type minHeap []topKItem

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].value != h[j].value {
		return h[i].value < h[j].value
	}
	// Ties break by natural sort order of PID (ascending sorts "lower"
	// so that, on a tie, the higher PID is retained last-in).
	return h[i].pid < h[j].pid
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(topKItem)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topK bounds a stream of candidates to the 3 largest by value.
type topK struct {
	h minHeap
}

func (t *topK) Offer(pid uint32, value uint64, name string) {
	item := topKItem{pid: pid, value: value, name: name}
	if t.h.Len() < 3 {
		heap.Push(&t.h, item)
		return
	}
	if item.value > t.h[0].value || (item.value == t.h[0].value && item.pid > t.h[0].pid) {
		heap.Pop(&t.h)
		heap.Push(&t.h, item)
	}
}

// Entries returns the ranked array descending, with unused ranks carrying
// a sentinel PID of 0 per I3.
func (t *topK) Entries(scale func(uint64) uint32) [3]entryOut {
	items := make([]topKItem, len(t.h))
	copy(items, t.h)
	// Simple insertion sort descending by value (n <= 3).
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].value > items[j-1].value; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	var out [3]entryOut
	for i := 0; i < 3; i++ {
		if i < len(items) {
			out[i] = entryOut{pid: items[i].pid, value: scale(items[i].value), name: items[i].name}
		}
	}
	return out
}

type entryOut struct {
	pid   uint32
	value uint32
	name  string
}
