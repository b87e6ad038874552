package heapmetrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

func TestCollector(t *testing.T) {
	h, err := heap.New(make([]byte, 1024), nil)
	require.NoError(t, err)

	a, err := h.Alloc(20)
	require.NoError(t, err)
	_, err = h.Alloc(60)
	require.NoError(t, err)
	require.NoError(t, h.Free(a))
	require.ErrorIs(t, h.Free(a), heap.ErrDoubleFree)

	c := NewCollector(h, "heapkit")
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP heapkit_heap_blocks The current number of blocks by state.
# TYPE heapkit_heap_blocks gauge
heapkit_heap_blocks{state="allocated"} 1
heapkit_heap_blocks{state="free"} 2
# HELP heapkit_heap_block_bytes The current number of bytes in blocks by state, headers included.
# TYPE heapkit_heap_block_bytes gauge
heapkit_heap_block_bytes{state="allocated"} 64
heapkit_heap_block_bytes{state="free"} 952
# HELP heapkit_heap_largest_free_block_bytes Size of the largest free block. Bounds the largest request that can succeed.
# TYPE heapkit_heap_largest_free_block_bytes gauge
heapkit_heap_largest_free_block_bytes 928
# HELP heapkit_heap_allocs_total Total number of successful allocations.
# TYPE heapkit_heap_allocs_total counter
heapkit_heap_allocs_total 2
# HELP heapkit_heap_failed_frees_total Total number of rejected frees.
# TYPE heapkit_heap_failed_frees_total counter
heapkit_heap_failed_frees_total 1
# HELP heapkit_heap_coalesces_total Total number of merges with a free neighbour by direction.
# TYPE heapkit_heap_coalesces_total counter
heapkit_heap_coalesces_total{direction="next"} 0
heapkit_heap_coalesces_total{direction="prev"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"heapkit_heap_blocks",
		"heapkit_heap_block_bytes",
		"heapkit_heap_largest_free_block_bytes",
		"heapkit_heap_allocs_total",
		"heapkit_heap_failed_frees_total",
		"heapkit_heap_coalesces_total",
	))
}

func TestCollector_MetricCount(t *testing.T) {
	h, err := heap.New(make([]byte, 256), nil)
	require.NoError(t, err)

	c := NewCollector(heap.NewLocked(h), "")
	// 2 region + 2 blocks + 2 bytes + largest + 5 counters + 2 coalesces.
	require.Equal(t, 14, testutil.CollectAndCount(c))
	require.Equal(t, 1, testutil.CollectAndCount(c, "heap_largest_free_block_bytes"))
}
