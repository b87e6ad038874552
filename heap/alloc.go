package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Alloc reserves a block with room for at least n payload bytes and returns
// the payload pointer, which is always a multiple of 8.
//
// The whole list is scanned for the smallest free block that fits; among
// equal sizes the lowest address wins. When the chosen block leaves at least
// a header plus 8 bytes over, the rest is split off as a new free block,
// otherwise the surplus stays inside the allocation.
//
// On failure the region is not modified.
func (h *Heap) Alloc(n int) (Ptr, error) {
	if n < 1 {
		if h.initialized {
			h.stats.failedAllocs++
		}
		return Nil, fmt.Errorf("heap: alloc %d: %w", n, ErrInvalidSize)
	}
	if !h.initialized {
		return Nil, fmt.Errorf("heap: alloc %d: %w", n, ErrNotInitialized)
	}
	if n > h.end {
		// Larger than the block area, and large enough to overflow BlockSizeFor.
		return Nil, h.outOfMemory(n, 0)
	}

	needed := format.BlockSizeFor(n)
	best, bestSize := -1, 0
	h.walk(func(off int, hdr format.Header) bool {
		if hdr.Allocated || hdr.Size < needed {
			return true
		}
		if best < 0 || hdr.Size < bestSize {
			best, bestSize = off, hdr.Size
		}
		return hdr.Size != needed
	})
	if best < 0 {
		return Nil, h.outOfMemory(n, needed)
	}

	cand := h.header(best)
	if rest := cand.Size - needed; rest >= format.SplitThreshold {
		h.putHeader(best, format.Header{Size: needed, Allocated: true, PrevAllocated: cand.PrevAllocated})
		rem := best + needed
		h.putHeader(rem, format.Header{Size: rest, PrevAllocated: true})
		h.putFooter(rem, rest)
		h.stats.splits++
		h.logger().Debug("split free block", "off", best, "size", cand.Size, "alloc", needed, "rest", rest)
	} else {
		cand.Allocated = true
		h.putHeader(best, cand)
		h.setPrevAllocated(best+cand.Size, true)
	}

	h.stats.allocs++
	return payloadOf(best), nil
}

func (h *Heap) outOfMemory(n, needed int) error {
	h.stats.failedAllocs++
	h.logger().Warn("allocation failed", "request", n, "needed", needed, "largest_free", h.largestFree())
	return fmt.Errorf("heap: alloc %d: %w", n, ErrOutOfMemory)
}

func (h *Heap) largestFree() int {
	largest := 0
	h.walk(func(_ int, hdr format.Header) bool {
		if !hdr.Allocated && hdr.Size > largest {
			largest = hdr.Size
		}
		return true
	})
	return largest
}
