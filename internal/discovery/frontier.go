package discovery

import "container/heap"

// frontierItem is one pending deep-crawl fetch. Priority is the
// keyword-score-so-far, boosted by the linking parent.
type frontierItem struct {
	url      string
	priority int
	seq      int64
	depth    int
}

// frontier is the priority work queue driving deep-crawl discovery. Higher
// priority first; discovery sequence breaks ties. Deduplication happens at
// admission, before enqueue, so the frontier itself never sees a canonical
// URL twice. Not safe for concurrent use; the crawl coordinator owns it.
type frontier struct {
	items frontierHeap
}

func newFrontier() *frontier {
	f := &frontier{}
	heap.Init(&f.items)
	return f
}

func (f *frontier) Push(item frontierItem) {
	heap.Push(&f.items, item)
}

func (f *frontier) Pop() frontierItem {
	return heap.Pop(&f.items).(frontierItem)
}

func (f *frontier) Len() int { return f.items.Len() }

type frontierHeap []frontierItem

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) {
	*h = append(*h, x.(frontierItem))
}

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
