package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is the offset of a payload from the start of the region.
// Offset 0 is never a payload (the first payload sits at 8), so the zero
// value doubles as the null pointer.
type Ptr uint32

// Nil is the null pointer.
const Nil Ptr = 0

// IsNil reports whether p is the null pointer.
func (p Ptr) IsNil() bool { return p == Nil }

func (p Ptr) String() string { return fmt.Sprintf("0x%X", uint32(p)) }

// headerOffset returns the offset of the header word that precedes p.
func (p Ptr) headerOffset() int { return int(p) - format.HeaderSize }

// payloadOf returns the payload pointer of the block whose header is at off.
func payloadOf(off int) Ptr { return Ptr(off + format.HeaderSize) }

// Block describes one block as seen by Dump.
type Block struct {
	Seq           int  `json:"seq"` // 1-based position in the block list
	Allocated     bool `json:"allocated"`
	PrevAllocated bool `json:"prev_allocated"`
	Start         int  `json:"start"` // header offset
	End           int  `json:"end"`   // offset of the last byte of the block
	Size          int  `json:"size"`
}

// Payload returns the pointer that Alloc handed out (or would hand out) for b.
func (b Block) Payload() Ptr { return payloadOf(b.Start) }

// Status returns "alloc" or "free".
func (b Block) Status() string { return statusName(b.Allocated) }

// PrevStatus returns "alloc" or "free" for the preceding block.
func (b Block) PrevStatus() string { return statusName(b.PrevAllocated) }

func statusName(allocated bool) string {
	if allocated {
		return "alloc"
	}
	return "free"
}

// Stats is a point-in-time summary of a heap.
//
// The layout fields are recomputed by walking the block list; the counters
// accumulate over the heap's lifetime.
type Stats struct {
	Region          int `json:"region"` // len of the backing region
	Usable          int `json:"usable"` // bytes covered by blocks
	Blocks          int `json:"blocks"`
	AllocatedBlocks int `json:"allocated_blocks"`
	FreeBlocks      int `json:"free_blocks"`
	UsedBytes       int `json:"used_bytes"`
	FreeBytes       int `json:"free_bytes"`
	LargestFree     int `json:"largest_free"`

	// Counters cover calls made after the heap was initialized. Failed
	// counts every rejected Alloc or Free on an initialized heap, whatever
	// the reason; calls rejected with ErrNotInitialized are not counted.
	Allocs       uint64 `json:"allocs"`
	Frees        uint64 `json:"frees"`
	FailedAllocs uint64 `json:"failed_allocs"`
	FailedFrees  uint64 `json:"failed_frees"`
	Splits       uint64 `json:"splits"`
	CoalescePrev uint64 `json:"coalesce_prev"`
	CoalesceNext uint64 `json:"coalesce_next"`
}

// counters is the mutable part of Stats.
type counters struct {
	allocs       uint64
	frees        uint64
	failedAllocs uint64
	failedFrees  uint64
	splits       uint64
	coalescePrev uint64
	coalesceNext uint64
}
