// Package region acquires the backing memory for a heap: either an anonymous
// private mapping or a shared mapping of a file that holds a heap image.
package region

import (
	"errors"
	"fmt"
	"os"
)

// ErrInvalidSize indicates a non-positive size, or an empty file mapped
// without an explicit size.
var ErrInvalidSize = errors.New("region: invalid size")

// ErrClosed indicates use of a region after Close.
var ErrClosed = errors.New("region: closed")

// Region is a mapped byte range. Bytes stays valid until Close.
type Region struct {
	data   []byte
	f      *os.File // nil for anonymous regions
	closed bool
}

// RoundUp rounds size up to a multiple of page.
func RoundUp(size, page int) int {
	if page <= 0 {
		return size
	}
	if rem := size % page; rem != 0 {
		return size + page - rem
	}
	return size
}

// Bytes returns the mapped memory.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the mapped length in bytes.
func (r *Region) Len() int { return len(r.data) }

// FileBacked reports whether writes reach a file.
func (r *Region) FileBacked() bool { return r.f != nil }

// openImage opens path for mapping. Only a sized mapping may create the
// file; opening an existing image (size <= 0) fails with an error matching
// os.ErrNotExist when path is missing.
func openImage(path string, size int) (*os.File, error) {
	flags := os.O_RDWR
	if size > 0 {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}
	return f, nil
}

// pageSpan widens [off, off+n) to whole pages and clamps it to the region.
func (r *Region) pageSpan(off, n int) (int, int) {
	ps := PageSize()
	start := max(off/ps*ps, 0)
	end := min(RoundUp(off+n, ps), len(r.data))
	return start, end
}
