// Package heap implements a best-fit allocator over a single fixed region.
//
// # Overview
//
// A Heap owns one contiguous []byte handed to it once, at Init. The region is
// carved into blocks that sit back to back; there is no separate free list,
// the next block is always found by adding the current block's size to its
// offset (an implicit list). The walk ends at a sentinel word.
//
// # Region Layout
//
//	offset 0      4                                     end        end+4
//	       | pad | block | block | ... | block          | sentinel | slack |
//
//   - pad: one unused word so that every payload lands on an 8-byte boundary
//   - sentinel: a header word with the value 1
//   - slack: 0-7 bytes left over when the region length is not a multiple of 8
//
// # Block Layout
//
// Every block starts with a 4-byte header (see format.Header):
//
//	Bits   Description
//	31..3  Size of the whole block, a multiple of 8, at least 16
//	1      The block immediately before is allocated
//	0      This block is allocated
//
// The first block always has bit 1 set. Free blocks also end with a footer
// word holding their size, which lets Free find the start of a free left
// neighbour in constant time.
//
//	allocated: [hdr|payload ..................]
//	free:      [hdr|unused ............. |footer]
//
// # Allocation
//
// Alloc rounds header + request up to 8 bytes (minimum 16), scans every block
// and takes the smallest free one that fits, preferring the lowest address
// among equal sizes. A remainder of at least 12 bytes is split off as a new
// free block; a smaller one stays with the allocation.
//
// # Freeing
//
// Free validates the pointer first (null, alignment, range, double free,
// interior pointer), then clears the allocated bit and merges with a free
// left and/or right neighbour so that no two free blocks are ever adjacent.
//
// # Usage
//
//	region := make([]byte, 4096)
//	h, err := heap.New(region, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := h.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	payload, _ := h.Payload(p)
//	copy(payload, data)
//
//	if err := h.Free(p); err != nil {
//	    return err
//	}
//
// # Errors
//
// Every failure is a wrapped sentinel (ErrOutOfMemory, ErrDoubleFree, ...);
// match with errors.Is. A failed call never modifies the region.
//
// # Thread Safety
//
// Heap is not safe for concurrent use. Locked wraps a Heap with a mutex.
//
// # Debug Logging
//
// Set HEAPKIT_LOG_ALLOC to any value to send debug logs of heaps created
// without an explicit Logger to stderr.
package heap
