package runtime

import "sync"

// heapAlign is the alignment of every block. It covers the widest field
// the wasm32 backend can load.
const heapAlign = 8

// Heap is a bump allocator over the part of linear memory that follows the
// static tables. Freed blocks are not reused, so a stale handle keeps
// pointing at its old contents.
type Heap struct {
	live     map[uint32]uint32
	base     uint32
	next     uint32
	limit    uint32
	failNext int
	stats    HeapStats
	mu       sync.Mutex
}

// HeapStats counts allocator activity.
type HeapStats struct {
	Allocs int // successful allocations
	Failed int // allocations that returned 0
	Frees  int // free calls, including repeated frees of one block
	Live   int // blocks allocated and not yet freed
	InUse  uint32
}

// NewHeap creates an allocator handing out [base, limit).
func NewHeap(base, limit uint32) *Heap {
	base = alignUp(base)
	if base == 0 {
		base = heapAlign
	}
	return &Heap{
		live:  make(map[uint32]uint32),
		base:  base,
		next:  base,
		limit: limit,
	}
}

// Alloc returns the address of a fresh block, or 0 when the heap is
// exhausted or a failure was injected.
func (h *Heap) Alloc(size uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failNext > 0 {
		h.failNext--
		h.stats.Failed++
		return 0
	}
	if size == 0 {
		size = 1
	}
	ptr := h.next
	end := uint64(ptr) + uint64(size)
	if end > uint64(h.limit) {
		h.stats.Failed++
		return 0
	}
	h.next = alignUp(uint32(end))
	h.live[ptr] = size
	h.stats.Allocs++
	h.stats.Live++
	h.stats.InUse += size
	return ptr
}

// Free releases ptr. Freeing an unknown or already freed block is counted
// but otherwise ignored.
func (h *Heap) Free(ptr uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Frees++
	if size, ok := h.live[ptr]; ok {
		delete(h.live, ptr)
		h.stats.Live--
		h.stats.InUse -= size
	}
}

// FailNext makes the next n allocations fail.
func (h *Heap) FailNext(n int) {
	h.mu.Lock()
	h.failNext = n
	h.mu.Unlock()
}

// Live reports whether ptr is an allocated, unfreed block.
func (h *Heap) Live(ptr uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.live[ptr]
	return ok
}

// Stats returns a snapshot of the counters.
func (h *Heap) Stats() HeapStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Base returns the first address the heap hands out.
func (h *Heap) Base() uint32 { return h.base }

// Limit returns the end of the heap.
func (h *Heap) Limit() uint32 { return h.limit }

func alignUp(v uint32) uint32 {
	return (v + heapAlign - 1) &^ (heapAlign - 1)
}
