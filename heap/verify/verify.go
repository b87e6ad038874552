// Package verify checks the raw layout invariants of a heap region.
// It decodes the bytes directly and shares no state with package heap, so a
// bug in the allocator cannot hide itself from the checks.
package verify

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// End returns the sentinel offset for a region of n bytes, or -1 when the
// region is too small to hold a heap.
func End(n int) int {
	if n < format.MinRegionSize {
		return -1
	}
	return format.FirstBlockOffset + format.AlignDown8(n-format.Overhead)
}

// Region validates every invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func Region(data []byte) error {
	if err := Layout(data); err != nil {
		return err
	}
	return Blocks(data)
}

// Layout checks the region size and the sentinel word.
func Layout(data []byte) error {
	end := End(len(data))
	if end < 0 {
		return &ValidationError{
			Type:    "Layout",
			Message: fmt.Sprintf("region too small: %d bytes (need %d)", len(data), format.MinRegionSize),
			Offset:  -1,
		}
	}
	if raw := format.ReadU32(data, end); !format.IsEnd(raw) {
		return &ValidationError{
			Type:    "Layout",
			Message: fmt.Sprintf("missing sentinel: got 0x%08X, expected 0x%08X", raw, format.EndMark),
			Offset:  end,
			Details: map[string]interface{}{"raw": raw},
		}
	}
	return nil
}

// Blocks walks the block list and checks, for every block:
//   - the size is a multiple of 8, at least MinBlockSize, and stays before the sentinel
//   - prev_allocated matches the real status of the previous block (set for the first)
//   - a free block's footer equals its size
//   - no two adjacent blocks are free
//
// Because no block may cross the sentinel, a clean walk also proves that the
// sizes add up to the block area exactly.
func Blocks(data []byte) error {
	end := End(len(data))
	if end < 0 {
		return Layout(data)
	}

	off := format.FirstBlockOffset
	prevAllocated := true
	count := 0
	for off < end {
		h, ok, err := format.ReadHeader(data, off)
		if err != nil || !ok {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("bad header in block %d: %v", count+1, headerProblem(err)),
				Offset:  off,
			}
		}
		if off+h.Size > end {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block overruns sentinel: block_end=0x%X, sentinel=0x%X", off+h.Size, end),
				Offset:  off,
				Details: map[string]interface{}{"size": h.Size},
			}
		}
		if h.PrevAllocated != prevAllocated {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("prev_allocated=%v but previous block allocated=%v", h.PrevAllocated, prevAllocated),
				Offset:  off,
			}
		}
		if !h.Allocated {
			if !prevAllocated {
				return &ValidationError{
					Type:    "Blocks",
					Message: "adjacent free blocks",
					Offset:  off,
				}
			}
			if footer := format.ReadFooter(data, format.FooterOffset(off, h.Size)); footer != h.Size {
				return &ValidationError{
					Type:    "Blocks",
					Message: fmt.Sprintf("footer mismatch: footer=%d, header=%d", footer, h.Size),
					Offset:  format.FooterOffset(off, h.Size),
					Details: map[string]interface{}{"footer": footer, "header": h.Size},
				}
			}
		}
		prevAllocated = h.Allocated
		off += h.Size
		count++
	}
	return nil
}

func headerProblem(err error) string {
	if err == nil {
		return "unexpected sentinel"
	}
	return err.Error()
}
