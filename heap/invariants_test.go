package heap

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/format"
)

// TestRandomOps_Invariants runs seeded random alloc/free sequences and checks
// every invariant after each operation.
func TestRandomOps_Invariants(t *testing.T) {
	seeds := []int64{1, 42, 1337, 20240601}
	if testing.Short() {
		seeds = seeds[:1]
	}

	for _, seed := range seeds {
		rng := rand.New(rand.NewSource(seed))
		h := newTestHeap(t, 16*1024)
		var live []Ptr

		for step := range 2000 {
			if len(live) == 0 || rng.Intn(100) < 55 {
				n := 1 + rng.Intn(400)
				before := snapshot(h)
				p, err := h.Alloc(n)
				if err != nil {
					require.ErrorIs(t, err, ErrOutOfMemory, "seed %d step %d", seed, step)
					require.Equal(t, before, h.Bytes(), "seed %d step %d: failed alloc changed the region", seed, step)
				} else {
					live = append(live, p)
				}
			} else {
				i := rng.Intn(len(live))
				require.NoError(t, h.Free(live[i]), "seed %d step %d", seed, step)
				live[i] = live[len(live)-1]
				live = live[:len(live)-1]
			}
			assertInvariants(t, h)
		}

		for _, p := range live {
			mustFree(t, h, p)
		}
		assert.Equal(t, "F16376", shape(h), "seed %d: freeing everything must leave one block", seed)
	}
}

// TestPayloadsAreNeverWritten fills every live payload with a per-block
// pattern and checks that no heap operation disturbs it, and that every
// metadata write reported to the tracker is a single aligned word.
func TestPayloadsAreNeverWritten(t *testing.T) {
	tracker := dirty.NewTracker(0)
	h, err := New(make([]byte, 8192), &Options{Tracker: tracker})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	patterns := map[Ptr]byte{}
	fill := func(p Ptr, b byte) {
		payload, err := h.Payload(p)
		require.NoError(t, err)
		for i := range payload {
			payload[i] = b
		}
		patterns[p] = b
	}
	checkAll := func() {
		for p, b := range patterns {
			payload, err := h.Payload(p)
			require.NoError(t, err)
			require.Equal(t, bytes.Repeat([]byte{b}, len(payload)), payload, "payload %s was modified", p)
		}
	}

	for step := range 500 {
		tracker.Reset()
		if len(patterns) == 0 || rng.Intn(2) == 0 {
			p, err := h.Alloc(1 + rng.Intn(200))
			if err != nil {
				require.ErrorIs(t, err, ErrOutOfMemory)
				require.Zero(t, tracker.Len(), "a failed alloc must not write")
				continue
			}
			fill(p, byte(step))
		} else {
			for p := range patterns {
				require.NoError(t, h.Free(p))
				delete(patterns, p)
				break
			}
		}
		for _, w := range tracker.Writes() {
			require.Equal(t, format.HeaderSize, w.Len)
			require.Zero(t, w.Off%format.HeaderSize)
		}
		checkAll()
	}
}

func TestTracker_RejectedOperationsWriteNothing(t *testing.T) {
	tracker := dirty.NewTracker(0)
	h, err := New(make([]byte, 1024), &Options{Tracker: tracker})
	require.NoError(t, err)
	p := mustAlloc(t, h, 32)
	mustFree(t, h, p)

	tracker.Reset()
	_, err = h.Alloc(0)
	require.Error(t, err)
	_, err = h.Alloc(4096)
	require.Error(t, err)
	require.Error(t, h.Free(p))
	require.Error(t, h.Free(Nil))
	require.Error(t, h.Free(p+2))
	require.Error(t, h.Init(make([]byte, 1024)))
	assert.Zero(t, tracker.Len())
}

func TestTracker_InitWritesAreFlushed(t *testing.T) {
	tracker := dirty.NewTracker(4096)
	_, err := New(make([]byte, 3*4096), &Options{Tracker: tracker})
	require.NoError(t, err)

	// Header at 4, footer at 12280, sentinel at 12284.
	assert.Equal(t, []dirty.Range{
		{Off: 4, Len: 4},
		{Off: 12280, Len: 4},
		{Off: 12284, Len: 4},
	}, tracker.Writes())
	assert.Equal(t, []dirty.Range{{Off: 0, Len: 4096}, {Off: 8192, Len: 4096}}, tracker.Ranges())

	s := &countingSyncer{}
	require.NoError(t, tracker.Flush(context.Background(), s))
	assert.Equal(t, 2, s.calls)
}

type countingSyncer struct{ calls int }

func (s *countingSyncer) Sync(off, n int) error {
	s.calls++
	return nil
}
