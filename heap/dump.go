package heap

import "github.com/joshuapare/heapkit/internal/format"

// Dump returns the block list from the first block to the sentinel.
// It only reads the region. An uninitialized heap has no blocks.
func (h *Heap) Dump() []Block {
	if !h.initialized {
		return nil
	}
	var blocks []Block
	h.walk(func(off int, hdr format.Header) bool {
		blocks = append(blocks, Block{
			Seq:           len(blocks) + 1,
			Allocated:     hdr.Allocated,
			PrevAllocated: hdr.PrevAllocated,
			Start:         off,
			End:           off + hdr.Size - 1,
			Size:          hdr.Size,
		})
		return true
	})
	return blocks
}

// Stats walks the block list and returns the layout summary together with
// the lifetime counters.
func (h *Heap) Stats() Stats {
	st := Stats{
		Region:       len(h.data),
		Allocs:       h.stats.allocs,
		Frees:        h.stats.frees,
		FailedAllocs: h.stats.failedAllocs,
		FailedFrees:  h.stats.failedFrees,
		Splits:       h.stats.splits,
		CoalescePrev: h.stats.coalescePrev,
		CoalesceNext: h.stats.coalesceNext,
	}
	if !h.initialized {
		return st
	}
	st.Usable = h.end - format.FirstBlockOffset
	h.walk(func(_ int, hdr format.Header) bool {
		st.Blocks++
		if hdr.Allocated {
			st.AllocatedBlocks++
			st.UsedBytes += hdr.Size
			return true
		}
		st.FreeBlocks++
		st.FreeBytes += hdr.Size
		st.LargestFree = max(st.LargestFree, hdr.Size)
		return true
	})
	return st
}
