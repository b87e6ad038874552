//go:build unix

package region

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// PageSize returns the OS page size.
func PageSize() int { return unix.Getpagesize() }

// Map returns an anonymous, private, zero-filled region of at least size
// bytes, rounded up to whole pages.
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	n := RoundUp(size, PageSize())
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %d bytes: %w", n, err)
	}
	return &Region{data: data}, nil
}

// MapFile maps path shared and read-write.
//
// With size > 0 the file is created if needed and extended (never shrunk) to
// at least size bytes, and exactly size bytes are mapped. With size <= 0 the
// file must already exist and its current length is mapped, which is how an
// existing image is opened.
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
		if info.Size() < int64(n) {
			if err := f.Truncate(int64(n)); err != nil {
				f.Close()
				return nil, fmt.Errorf("region: extend %s to %d bytes: %w", path, n, err)
			}
		}
	}
	if n <= 0 {
		f.Close()
		return nil, fmt.Errorf("region: map %s: %w", path, ErrInvalidSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: mmap %s: %w", path, err)
	}
	return &Region{data: data, f: f}, nil
}

// Sync flushes the pages covering [off, off+n) to the file. It is a no-op
// for anonymous regions.
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
	return unix.Msync(r.data[start:end], unix.MS_SYNC)
}

// Close unmaps the region and closes the file. Calling Close again is a no-op.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil && !errors.Is(err, unix.EINVAL) {
			errs = append(errs, err)
		}
		r.data = nil
	}
	if r.f != nil {
		errs = append(errs, r.f.Close())
	}
	return errors.Join(errs...)
}
