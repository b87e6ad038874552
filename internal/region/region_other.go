//go:build !unix

package region

import (
	"fmt"
	"io"
	"os"
)

// PageSize returns the OS page size.
func PageSize() int { return os.Getpagesize() }

// Map returns a zero-filled heap-allocated region on platforms without mmap.
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Region{data: make([]byte, RoundUp(size, PageSize()))}, nil
}

// MapFile reads path into memory. Sync writes ranges back to the file.
func MapFile(path string, size int) (*Region, error) {
	f, err := openImage(path, size)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	n := int(info.Size())
	if size > 0 {
		n = size
	}
	if n <= 0 {
		f.Close()
		return nil, fmt.Errorf("region: map %s: %w", path, ErrInvalidSize)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(n)), data[:min(int64(n), info.Size())]); err != nil {
		f.Close()
		return nil, err
	}
	if int64(n) > info.Size() {
		if err := f.Truncate(int64(n)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &Region{data: data, f: f}, nil
}

// Sync writes the pages covering [off, off+n) back to the file.
func (r *Region) Sync(off, n int) error {
	if r.closed {
		return ErrClosed
	}
	if r.f == nil || n <= 0 {
		return nil
	}
	start, end := r.pageSpan(off, n)
	if start >= end {
		return nil
	}
	_, err := r.f.WriteAt(r.data[start:end], int64(start))
	return err
}

// Close closes the file. Calling Close again is a no-op.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.data = nil
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}
