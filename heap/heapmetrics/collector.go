// Package heapmetrics exports heap statistics as Prometheus metrics.
package heapmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/heapkit/heap"
)

// StatsSource is anything that can report heap statistics, such as
// *heap.Heap or *heap.Locked. A plain *heap.Heap must not be mutated while
// a scrape is running; use *heap.Locked when the heap is shared.
type StatsSource interface {
	Stats() heap.Stats
}

// Collector reads a StatsSource on every scrape.
type Collector struct {
	src StatsSource

	regionBytes  *prometheus.Desc
	blocks       *prometheus.Desc
	bytes        *prometheus.Desc
	largestFree  *prometheus.Desc
	allocs       *prometheus.Desc
	frees        *prometheus.Desc
	failedAllocs *prometheus.Desc
	failedFrees  *prometheus.Desc
	splits       *prometheus.Desc
	coalesces    *prometheus.Desc
}

// NewCollector returns a collector whose metric names start with namespace
// (for example "heapkit_heap_blocks").
func NewCollector(src StatsSource, namespace string) *Collector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "heap", n)
	}
	return &Collector{
		src: src,
		regionBytes: prometheus.NewDesc(
			name("region_bytes"),
			"Size of the backing region and of the part covered by blocks.",
			[]string{"area"},
			nil,
		),
		blocks: prometheus.NewDesc(
			name("blocks"),
			"The current number of blocks by state.",
			[]string{"state"},
			nil,
		),
		bytes: prometheus.NewDesc(
			name("block_bytes"),
			"The current number of bytes in blocks by state, headers included.",
			[]string{"state"},
			nil,
		),
		largestFree: prometheus.NewDesc(
			name("largest_free_block_bytes"),
			"Size of the largest free block. Bounds the largest request that can succeed.",
			nil,
			nil,
		),
		allocs: prometheus.NewDesc(
			name("allocs_total"),
			"Total number of successful allocations.",
			nil,
			nil,
		),
		frees: prometheus.NewDesc(
			name("frees_total"),
			"Total number of successful frees.",
			nil,
			nil,
		),
		failedAllocs: prometheus.NewDesc(
			name("failed_allocs_total"),
			"Total number of rejected allocation requests.",
			nil,
			nil,
		),
		failedFrees: prometheus.NewDesc(
			name("failed_frees_total"),
			"Total number of rejected frees.",
			nil,
			nil,
		),
		splits: prometheus.NewDesc(
			name("splits_total"),
			"Total number of free blocks split by an allocation.",
			nil,
			nil,
		),
		coalesces: prometheus.NewDesc(
			name("coalesces_total"),
			"Total number of merges with a free neighbour by direction.",
			[]string{"direction"},
			nil,
		),
	}
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.regionBytes
	descs <- c.blocks
	descs <- c.bytes
	descs <- c.largestFree
	descs <- c.allocs
	descs <- c.frees
	descs <- c.failedAllocs
	descs <- c.failedFrees
	descs <- c.splits
	descs <- c.coalesces
}

func (c *Collector) Collect(m chan<- prometheus.Metric) {
	st := c.src.Stats()

	gauge := func(d *prometheus.Desc, v int, labels ...string) {
		m <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		m <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(c.regionBytes, st.Region, "region")
	gauge(c.regionBytes, st.Usable, "usable")
	gauge(c.blocks, st.AllocatedBlocks, "allocated")
	gauge(c.blocks, st.FreeBlocks, "free")
	gauge(c.bytes, st.UsedBytes, "allocated")
	gauge(c.bytes, st.FreeBytes, "free")
	gauge(c.largestFree, st.LargestFree)

	counter(c.allocs, st.Allocs)
	counter(c.frees, st.Frees)
	counter(c.failedAllocs, st.FailedAllocs)
	counter(c.failedFrees, st.FailedFrees)
	counter(c.splits, st.Splits)
	counter(c.coalesces, st.CoalescePrev, "prev")
	counter(c.coalesces, st.CoalesceNext, "next")
}
