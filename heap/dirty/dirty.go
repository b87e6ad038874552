// Package dirty records which parts of a heap region have been written so
// that a file-backed region can be flushed page by page instead of whole.
//
// The tracker keeps a list of raw byte ranges, and at flush time aligns them
// to page boundaries, sorts and merges them, and hands each merged range to a
// Syncer (msync on a shared mapping).
package dirty

import (
	"context"
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// DefaultPageSize is used when NewTracker is given a non-positive page size.
	DefaultPageSize = 4096
)

// Range is a byte range relative to the start of the region.
type Range struct {
	Off int
	Len int
}

// End returns the offset just past the range.
func (r Range) End() int { return r.Off + r.Len }

// Syncer persists one byte range of a region. *region.Region implements it.
type Syncer interface {
	Sync(off, n int) error
}

// Tracker accumulates dirty ranges and flushes them.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges   []Range
	pageSize int
}

// NewTracker creates a tracker that aligns ranges to pageSize.
func NewTracker(pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Tracker{
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: pageSize,
	}
}

// Add records a dirty range. It only appends; alignment and merging happen
// in Ranges and Flush.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: off, Len: length})
}

// Writes returns a copy of the raw, unaligned ranges in the order they were added.
func (t *Tracker) Writes() []Range {
	out := make([]Range, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Len returns the number of raw ranges recorded since the last reset.
func (t *Tracker) Len() int { return len(t.ranges) }

// Ranges returns the page-aligned, sorted and merged ranges that Flush would sync.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Flush syncs every coalesced range through s and then clears the tracker.
//
// The context is checked before each range. If it is cancelled part way,
// some ranges have been synced and the tracker keeps all of them so the
// next Flush repeats the work.
func (t *Tracker) Flush(ctx context.Context, s Syncer) error {
	if len(t.ranges) == 0 {
		return nil
	}
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Sync(r.Off, r.Len); err != nil {
			return err
		}
	}
	t.Reset()
	return nil
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	ps := t.pageSize
	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / ps) * ps
		end := r.End()
		if end%ps != 0 {
			end = (end/ps + 1) * ps
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
