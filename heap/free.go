package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Free releases the block at p and merges it with any free neighbour.
//
// The pointer is validated before anything is written, in this order:
// ErrNullPointer, ErrMisaligned, ErrOutOfRange, ErrDoubleFree, ErrNotBlock.
// A rejected free leaves the region untouched.
//
// Coalescing:
//
//	[prev free][p][next free]  ->  [        one free block        ]
//
// The left neighbour is found through its footer and only when the
// prev_allocated bit of p is clear; the right neighbour is the block at
// p's end unless that is the sentinel.
func (h *Heap) Free(p Ptr) error {
	if !h.initialized {
		return fmt.Errorf("heap: free %s: %w", p, ErrNotInitialized)
	}
	off, err := h.locate(p)
	if err == nil {
		err = h.checkAllocated(off)
	}
	if err != nil {
		h.stats.failedFrees++
		h.logger().Warn("free rejected", "ptr", p.String(), "reason", err)
		return fmt.Errorf("heap: free %s: %w", p, err)
	}

	hdr := h.header(off)
	start, size := off, hdr.Size
	prevAllocated := hdr.PrevAllocated

	if !hdr.PrevAllocated {
		prevSize := format.ReadFooter(h.data, off-format.FooterSize)
		start -= prevSize
		size += prevSize
		prevAllocated = h.header(start).PrevAllocated
		h.stats.coalescePrev++
		h.logger().Debug("coalesce backward", "off", off, "prev", start, "prev_size", prevSize)

		// The old header becomes interior to the merged block. Clearing its
		// allocated bit keeps a repeated free of p reporting ErrDoubleFree.
		hdr.Allocated = false
		h.putHeader(off, hdr)
	}

	if next := off + hdr.Size; next < h.end {
		if nh := h.header(next); !nh.Allocated {
			size += nh.Size
			h.stats.coalesceNext++
			h.logger().Debug("coalesce forward", "off", off, "next", next, "next_size", nh.Size)
		}
	}

	h.putHeader(start, format.Header{Size: size, PrevAllocated: prevAllocated})
	h.putFooter(start, size)
	h.setPrevAllocated(start+size, false)

	h.stats.frees++
	return nil
}

// checkAllocated runs the header checks of Free on a block offset that is
// already known to be aligned and in range.
func (h *Heap) checkAllocated(off int) error {
	if !h.header(off).Allocated {
		return ErrDoubleFree
	}
	if !h.isBlockStart(off) {
		return ErrNotBlock
	}
	return nil
}
