package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

// buildRegion lays out blocks back to back from the first block offset and
// terminates them with a sentinel. Sizes are taken as-is; negative sizes
// mark allocated blocks. The region is sized so the sentinel lands where
// End expects it.
func buildRegion(t *testing.T, sizes ...int) []byte {
	t.Helper()

	total := 0
	for _, s := range sizes {
		total += abs(s)
	}
	data := make([]byte, total+format.Overhead)
	off := format.FirstBlockOffset
	prevAllocated := true
	for _, s := range sizes {
		allocated := s < 0
		size := abs(s)
		format.PutHeader(data, off, format.Header{Size: size, Allocated: allocated, PrevAllocated: prevAllocated})
		if !allocated {
			format.PutFooter(data, off, size)
		}
		prevAllocated = allocated
		off += size
	}
	format.PutEnd(data, off)
	require.Equal(t, End(len(data)), off, "test layout must put the sentinel at End")
	return data
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func requireValidationError(t *testing.T, err error, typ, contains string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type)
	require.Contains(t, verr.Message, contains)
	return verr
}

func TestRegion_Valid(t *testing.T) {
	data := buildRegion(t, -24, 40, -16, -32, 64)
	require.NoError(t, Region(data))
}

func TestRegion_SingleFreeBlock(t *testing.T) {
	data := buildRegion(t, 4088)
	require.NoError(t, Region(data))
}

func TestLayout_TooSmall(t *testing.T) {
	err := Region(make([]byte, format.MinRegionSize-1))
	verr := requireValidationError(t, err, "Layout", "region too small")
	require.Equal(t, -1, verr.Offset)
}

func TestLayout_MissingSentinel(t *testing.T) {
	data := buildRegion(t, 32)
	format.PutU32(data, End(len(data)), 0)

	err := Layout(data)
	verr := requireValidationError(t, err, "Layout", "missing sentinel")
	require.Equal(t, End(len(data)), verr.Offset)
}

func TestLayout_SlackAfterSentinel(t *testing.T) {
	data := buildRegion(t, 32)
	// Up to 7 trailing bytes are allowed after the sentinel.
	grown := append(data, make([]byte, 7)...)
	require.NoError(t, Region(grown))
}

func TestBlocks_BadSize(t *testing.T) {
	data := buildRegion(t, -24, 40)
	format.PutU32(data, format.FirstBlockOffset, 8|format.AllocatedBit|format.PrevAllocatedBit)

	err := Blocks(data)
	requireValidationError(t, err, "Blocks", "bad header in block 1")
}

func TestBlocks_Overrun(t *testing.T) {
	data := buildRegion(t, -24, 40)
	format.PutHeader(data, format.FirstBlockOffset+24, format.Header{Size: 48, PrevAllocated: true})

	err := Blocks(data)
	requireValidationError(t, err, "Blocks", "overruns sentinel")
}

func TestBlocks_PrevAllocatedMismatch(t *testing.T) {
	data := buildRegion(t, -24, -16, 40)
	format.PutHeader(data, format.FirstBlockOffset+24, format.Header{Size: 16, Allocated: true})

	err := Blocks(data)
	verr := requireValidationError(t, err, "Blocks", "prev_allocated=false")
	require.Equal(t, format.FirstBlockOffset+24, verr.Offset)
}

func TestBlocks_FirstBlockMustHavePrevAllocated(t *testing.T) {
	data := buildRegion(t, 64)
	format.PutHeader(data, format.FirstBlockOffset, format.Header{Size: 64})

	err := Blocks(data)
	requireValidationError(t, err, "Blocks", "prev_allocated")
}

func TestBlocks_FooterMismatch(t *testing.T) {
	data := buildRegion(t, -24, 40)
	footer := format.FooterOffset(format.FirstBlockOffset+24, 40)
	format.PutU32(data, footer, 32)

	err := Blocks(data)
	verr := requireValidationError(t, err, "Blocks", "footer mismatch")
	require.Equal(t, footer, verr.Offset)
	require.Equal(t, 32, verr.Details["footer"])
}

func TestBlocks_AdjacentFree(t *testing.T) {
	data := buildRegion(t, -24, 40, 16)
	// buildRegion writes the second free block with prev_allocated clear,
	// which is consistent, so only the adjacency check can fire.
	err := Blocks(data)
	requireValidationError(t, err, "Blocks", "adjacent free blocks")
}

func TestEnd(t *testing.T) {
	require.Equal(t, -1, End(23))
	require.Equal(t, 20, End(24))
	require.Equal(t, 20, End(31))
	require.Equal(t, 28, End(32))
	require.Equal(t, 4092, End(4096))
}
