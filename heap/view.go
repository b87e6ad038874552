package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// All header and footer access goes through the helpers in this file.
// Writers report to the dirty tracker; readers assume the invariants hold
// and are only called with offsets inside the block area.

func (h *Heap) header(off int) format.Header {
	return format.DecodeHeader(format.ReadU32(h.data, off))
}

func (h *Heap) putHeader(off int, hdr format.Header) {
	format.PutHeader(h.data, off, hdr)
	h.touch(off, format.HeaderSize)
}

func (h *Heap) putFooter(off, size int) {
	format.PutFooter(h.data, off, size)
	h.touch(format.FooterOffset(off, size), format.FooterSize)
}

func (h *Heap) putEnd() {
	format.PutEnd(h.data, h.end)
	h.touch(h.end, format.SentinelSize)
}

// setPrevAllocated updates the prev_allocated bit of the block at off.
// The sentinel is left alone.
func (h *Heap) setPrevAllocated(off int, allocated bool) {
	if off >= h.end {
		return
	}
	hdr := h.header(off)
	if hdr.PrevAllocated == allocated {
		return
	}
	hdr.PrevAllocated = allocated
	h.putHeader(off, hdr)
}

func (h *Heap) touch(off, n int) {
	if h.dt != nil {
		h.dt.Add(off, n)
	}
}

// inBlockArea reports whether a header word at off lies between the first
// block and the sentinel.
func (h *Heap) inBlockArea(off int) bool {
	return buf.Within(format.FirstBlockOffset, h.end, off, format.HeaderSize)
}

// walk calls fn for every block from the first one up to the sentinel and
// stops early when fn returns false. A header with an illegal size ends the
// walk.
func (h *Heap) walk(fn func(off int, hdr format.Header) bool) {
	for off := format.FirstBlockOffset; off < h.end; {
		hdr := h.header(off)
		if !hdr.Valid() {
			return
		}
		if !fn(off, hdr) {
			return
		}
		off += hdr.Size
	}
}

// isBlockStart reports whether off is the header offset of a block in the
// current list.
func (h *Heap) isBlockStart(off int) bool {
	found := false
	h.walk(func(cur int, _ format.Header) bool {
		if cur >= off {
			found = cur == off
			return false
		}
		return true
	})
	return found
}

// locate checks that p can name a block and returns its header offset.
// The checks run in a fixed order: null, alignment, range.
func (h *Heap) locate(p Ptr) (int, error) {
	if p.IsNil() {
		return 0, ErrNullPointer
	}
	if int(p)%format.Alignment != 0 {
		return 0, ErrMisaligned
	}
	off := p.headerOffset()
	if !h.inBlockArea(off) {
		return 0, ErrOutOfRange
	}
	return off, nil
}

// Payload returns the payload bytes of the allocated block at p.
// The slice is capped at the end of the block so appends cannot spill into
// the next header.
func (h *Heap) Payload(p Ptr) ([]byte, error) {
	if !h.initialized {
		return nil, fmt.Errorf("heap: payload %s: %w", p, ErrNotInitialized)
	}
	off, err := h.locate(p)
	if err != nil {
		return nil, fmt.Errorf("heap: payload %s: %w", p, err)
	}
	hdr := h.header(off)
	if !hdr.Allocated || !h.isBlockStart(off) {
		return nil, fmt.Errorf("heap: payload %s: %w", p, ErrNotBlock)
	}
	b, ok := buf.Slice(h.data, int(p), hdr.Size-format.HeaderSize)
	if !ok {
		return nil, fmt.Errorf("heap: payload %s: %w", p, ErrOutOfRange)
	}
	return b, nil
}
