package heap

import (
	"io"
	"sync"
)

// Locked serializes every call on a Heap with a mutex.
type Locked struct {
	mu sync.Mutex
	h  *Heap
}

// NewLocked wraps h. The caller must stop using h directly.
func NewLocked(h *Heap) *Locked {
	return &Locked{h: h}
}

// Init formats region under the lock. See Heap.Init.
func (l *Locked) Init(region []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Init(region)
}

// Alloc reserves a block under the lock. See Heap.Alloc.
func (l *Locked) Alloc(n int) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Alloc(n)
}

// Free releases p under the lock. See Heap.Free.
func (l *Locked) Free(p Ptr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Free(p)
}

// Dump returns a snapshot of the block list.
func (l *Locked) Dump() []Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Dump()
}

// Stats returns a snapshot of the heap statistics.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Stats()
}

// Check verifies the layout under the lock.
func (l *Locked) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Check()
}

// Payload returns the payload slice of p. The lock only covers the lookup;
// reads and writes through the slice are the caller's to synchronize.
func (l *Locked) Payload(p Ptr) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Payload(p)
}

// Print takes a snapshot under the lock and renders it after releasing it.
func (l *Locked) Print(w io.Writer) error {
	return PrintBlocks(w, l.Dump())
}
