// Package format holds the low-level layout of a heap region: the block header
// word, its status bits, alignment rules and little-endian word access. It has
// no notion of allocation policy so that the heap, the verifier and the
// printers all decode the same bytes the same way.
package format

const (
	// HeaderSize is the size of a block header (and of a free block footer).
	// Every block starts with one header word:
	//
	//	bits 31..3  size (multiple of 8, includes header and footer)
	//	bit  1      previous block allocated
	//	bit  0      this block allocated
	HeaderSize = 4

	// FooterSize is the size of the trailing word written on free blocks.
	// The footer stores the size only, without status bits.
	FooterSize = HeaderSize

	// Alignment is the block size granularity and payload alignment.
	Alignment = 8

	// AlignmentMask is Alignment - 1.
	AlignmentMask = Alignment - 1

	// MinPayload is the smallest payload a block must be able to hold.
	MinPayload = 8

	// MinBlockSize is the smallest legal block: header plus minimum payload,
	// rounded up to the alignment grid (4 + 8 -> 16).
	MinBlockSize = (HeaderSize + MinPayload + AlignmentMask) &^ AlignmentMask

	// SplitThreshold is the smallest remainder that is carved off a best-fit
	// candidate as a separate free block. Smaller remainders stay inside the
	// allocated block as internal fragmentation.
	SplitThreshold = HeaderSize + MinPayload

	// FirstBlockOffset is the offset of the first block header inside the
	// region. Skipping one word puts every payload (header + 4) on an 8-byte
	// boundary.
	FirstBlockOffset = HeaderSize

	// SentinelSize is the size of the end-of-region marker word.
	SentinelSize = HeaderSize

	// Overhead is the number of region bytes that never belong to a block:
	// the alignment word in front of the first block and the sentinel.
	Overhead = FirstBlockOffset + SentinelSize

	// MinRegionSize is the smallest region that can hold one minimal block.
	MinRegionSize = Overhead + MinBlockSize

	// EndMark is the raw value of the sentinel word. No real block can have a
	// size of 1, so a header equal to EndMark terminates every walk.
	EndMark uint32 = 1
)

const (
	// AllocatedBit marks the block itself as in use.
	AllocatedBit uint32 = 1 << 0

	// PrevAllocatedBit marks the block immediately before as in use.
	PrevAllocatedBit uint32 = 1 << 1

	// StatusMask covers both status bits.
	StatusMask = AllocatedBit | PrevAllocatedBit

	// SizeMask extracts the size from a raw header word.
	SizeMask = ^uint32(AlignmentMask)
)
