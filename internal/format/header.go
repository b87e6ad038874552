package format

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Header is the decoded form of a block header word.
//
// Header layout (little-endian uint32):
//
//	Bits   Description
//	31..3  Size in bytes, including the header (and the footer when free).
//	1      PrevAllocated: the block immediately before is in use.
//	0      Allocated: this block is in use.
//
// Only Encode and DecodeHeader touch the bits; everything else works on the
// struct.
type Header struct {
	Size          int
	Allocated     bool
	PrevAllocated bool
}

// DecodeHeader splits a raw header word into size and status bits.
func DecodeHeader(raw uint32) Header {
	return Header{
		Size:          int(raw & SizeMask),
		Allocated:     raw&AllocatedBit != 0,
		PrevAllocated: raw&PrevAllocatedBit != 0,
	}
}

// Encode packs the header back into a raw word.
// Size must already be a multiple of 8; the low bits are masked off.
func (h Header) Encode() uint32 {
	raw := uint32(h.Size) & SizeMask
	if h.Allocated {
		raw |= AllocatedBit
	}
	if h.PrevAllocated {
		raw |= PrevAllocatedBit
	}
	return raw
}

// Valid reports whether the size is a legal block size.
func (h Header) Valid() bool {
	return h.Size >= MinBlockSize && IsAligned8(h.Size)
}

func (h Header) String() string {
	status, prev := "free", "free"
	if h.Allocated {
		status = "alloc"
	}
	if h.PrevAllocated {
		prev = "alloc"
	}
	return fmt.Sprintf("{size:%d status:%s prev:%s}", h.Size, status, prev)
}

// IsEnd reports whether a raw word is the end-of-region sentinel.
func IsEnd(raw uint32) bool {
	return raw == EndMark
}

// ReadWord returns the word at off, or ErrTruncated when it does not fit.
func ReadWord(b []byte, off int) (uint32, error) {
	if !buf.Has(b, off, HeaderSize) {
		return 0, fmt.Errorf("word at %d: %w", off, ErrTruncated)
	}
	return ReadU32(b, off), nil
}

// ReadHeader decodes the header at off. A sentinel word is returned with
// Size 0 and ok=false so callers can stop walking.
func ReadHeader(b []byte, off int) (h Header, ok bool, err error) {
	raw, err := ReadWord(b, off)
	if err != nil {
		return Header{}, false, err
	}
	if IsEnd(raw) {
		return Header{}, false, nil
	}
	h = DecodeHeader(raw)
	if !h.Valid() {
		return h, false, fmt.Errorf("header at %d (raw 0x%08X): %w", off, raw, ErrBadSize)
	}
	return h, true, nil
}

// PutHeader encodes h at off.
func PutHeader(b []byte, off int, h Header) {
	PutU32(b, off, h.Encode())
}

// FooterOffset returns the offset of the footer word of the block at off.
func FooterOffset(off, size int) int {
	return off + size - FooterSize
}

// PutFooter writes the size-only footer of a free block that starts at off.
func PutFooter(b []byte, off, size int) {
	PutU32(b, FooterOffset(off, size), uint32(size))
}

// ReadFooter returns the size stored in the footer word at footerOff.
func ReadFooter(b []byte, footerOff int) int {
	return int(ReadU32(b, footerOff))
}

// PutEnd writes the sentinel word at off.
func PutEnd(b []byte, off int) {
	PutU32(b, off, EndMark)
}
