package heap

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

// maxUsable is the largest block area a 32-bit header can describe.
const maxUsable = 1<<32 - format.Alignment

// Heap manages one caller-supplied region as an implicit list of blocks.
//
// The zero value is an uninitialized heap; call Init before anything else,
// or build one with New or Attach. A Heap is not safe for concurrent use;
// wrap it in Locked when several goroutines share it.
type Heap struct {
	data        []byte
	end         int // offset of the sentinel word
	initialized bool

	log *slog.Logger
	dt  DirtyTracker

	stats counters
}

// New returns a heap initialized over region.
func New(region []byte, opts *Options) (*Heap, error) {
	h := &Heap{log: opts.logger(), dt: opts.tracker()}
	if err := h.Init(region); err != nil {
		return nil, err
	}
	return h, nil
}

// Init formats region as a heap holding one free block that spans the whole
// usable area, followed by the end sentinel.
//
// Init may be called once per Heap. The heap keeps region and writes only
// block metadata into it; payload bytes belong to the caller.
func (h *Heap) Init(region []byte) error {
	if h.initialized {
		return fmt.Errorf("heap: init: %w", ErrAlreadyInitialized)
	}
	usable, err := usableSize(len(region))
	if err != nil {
		return fmt.Errorf("heap: init %d bytes: %w", len(region), err)
	}

	h.data = region
	h.end = format.FirstBlockOffset + usable

	h.putHeader(format.FirstBlockOffset, format.Header{Size: usable, PrevAllocated: true})
	h.putFooter(format.FirstBlockOffset, usable)
	h.putEnd()
	h.initialized = true

	h.logger().Info("heap initialized", "region", len(region), "usable", usable)
	return nil
}

// Attach adopts a region that already holds a heap image, for example a
// file-backed region written by an earlier process. The image must pass
// verify.Region; no byte is modified.
func Attach(region []byte, opts *Options) (*Heap, error) {
	usable, err := usableSize(len(region))
	if err != nil {
		return nil, fmt.Errorf("heap: attach %d bytes: %w", len(region), err)
	}
	if err := verify.Region(region); err != nil {
		return nil, fmt.Errorf("heap: attach: %w", err)
	}
	h := &Heap{
		data:        region,
		end:         format.FirstBlockOffset + usable,
		initialized: true,
		log:         opts.logger(),
		dt:          opts.tracker(),
	}
	h.logger().Info("heap attached", "region", len(region), "usable", usable)
	return h, nil
}

// usableSize returns the number of bytes the block list covers for a region
// of n bytes: everything but the alignment word and the sentinel, rounded
// down to the alignment grid.
func usableSize(n int) (int, error) {
	if n < format.MinRegionSize {
		return 0, ErrInvalidRegionSize
	}
	usable := format.AlignDown8(n - format.Overhead)
	if int64(usable) > maxUsable {
		return 0, ErrInvalidRegionSize
	}
	return usable, nil
}

// Initialized reports whether the heap owns a region.
func (h *Heap) Initialized() bool { return h.initialized }

// Bytes returns the backing region.
func (h *Heap) Bytes() []byte { return h.data }

// Check runs the full set of layout invariants over the live region.
func (h *Heap) Check() error {
	if !h.initialized {
		return fmt.Errorf("heap: check: %w", ErrNotInitialized)
	}
	return verify.Region(h.data)
}

func (h *Heap) logger() *slog.Logger {
	if h.log == nil {
		h.log = defaultLogger()
	}
	return h.log
}
