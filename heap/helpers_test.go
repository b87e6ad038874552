package heap

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

// ============================================================================
// Heap Creation Utilities
// ============================================================================

// newTestHeap creates a heap over a fresh region of size bytes.
func newTestHeap(t testing.TB, size int) *Heap {
	t.Helper()
	h, err := New(make([]byte, size), nil)
	require.NoError(t, err, "failed to create test heap")
	return h
}

// newLoggedHeap creates a heap whose debug log is captured in the returned buffer.
func newLoggedHeap(t testing.TB, size int) (*Heap, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h, err := New(make([]byte, size), &Options{Logger: logger})
	require.NoError(t, err)
	return h, &out
}

// mustAlloc allocates n bytes and fails the test on error.
func mustAlloc(t testing.TB, h *Heap, n int) Ptr {
	t.Helper()
	p, err := h.Alloc(n)
	require.NoError(t, err, "Alloc(%d)", n)
	return p
}

// mustFree frees p and fails the test on error.
func mustFree(t testing.TB, h *Heap, p Ptr) {
	t.Helper()
	require.NoError(t, h.Free(p), "Free(%s)", p)
}

// payloadFor returns the request size that yields a block of exactly size bytes.
func payloadFor(size int) int {
	return size - format.HeaderSize
}

// ============================================================================
// Inspection Utilities
// ============================================================================

// shape renders the block list as "A24 F40 ..." for compact assertions.
func shape(h *Heap) string {
	var b bytes.Buffer
	for i, blk := range h.Dump() {
		if i > 0 {
			b.WriteByte(' ')
		}
		status := 'F'
		if blk.Allocated {
			status = 'A'
		}
		fmt.Fprintf(&b, "%c%d", status, blk.Size)
	}
	return b.String()
}

// blockAt returns the Dump entry whose payload is p.
func blockAt(t testing.TB, h *Heap, p Ptr) Block {
	t.Helper()
	for _, blk := range h.Dump() {
		if blk.Payload() == p {
			return blk
		}
	}
	require.Failf(t, "no block", "no block has payload %s", p)
	return Block{}
}

// snapshot copies the region so a later comparison can prove nothing changed.
func snapshot(h *Heap) []byte {
	return append([]byte(nil), h.Bytes()...)
}

// assertInvariants runs the independent verifier and the accounting checks.
func assertInvariants(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, verify.Region(h.Bytes()))

	st := h.Stats()
	require.Equal(t, st.Usable, st.UsedBytes+st.FreeBytes, "block sizes must cover the usable area")
	require.Equal(t, st.Blocks, st.AllocatedBlocks+st.FreeBlocks)

	blocks := h.Dump()
	require.NotEmpty(t, blocks)
	require.Equal(t, format.FirstBlockOffset, blocks[0].Start)
	require.True(t, blocks[0].PrevAllocated, "first block must have prev_allocated set")
	for i, blk := range blocks {
		require.Equal(t, i+1, blk.Seq)
		require.Zero(t, blk.Size%format.Alignment, "block %d size %d", blk.Seq, blk.Size)
		require.GreaterOrEqual(t, blk.Size, format.MinBlockSize)
		require.Zero(t, int(blk.Payload())%format.Alignment)
		if i > 0 {
			require.Equal(t, blocks[i-1].End+1, blk.Start)
			require.Equal(t, blocks[i-1].Allocated, blk.PrevAllocated)
			require.False(t, !blk.Allocated && !blocks[i-1].Allocated, "adjacent free blocks at %d", blk.Seq)
		}
	}
	last := blocks[len(blocks)-1]
	require.Equal(t, format.EndMark, format.ReadU32(h.Bytes(), last.End+1), "sentinel must follow the last block")
}
