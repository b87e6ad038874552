package heap

import "errors"

var (
	// ErrAlreadyInitialized indicates Init (or Attach) was called on a heap that already owns a region.
	ErrAlreadyInitialized = errors.New("heap: already initialized")

	// ErrInvalidRegionSize indicates the region cannot hold the alignment word, one minimal block and the sentinel.
	ErrInvalidRegionSize = errors.New("heap: invalid region size")

	// ErrNotInitialized indicates an operation on a heap that has no region yet.
	ErrNotInitialized = errors.New("heap: not initialized")

	// ErrInvalidSize indicates an allocation request below one byte.
	ErrInvalidSize = errors.New("heap: invalid allocation size")

	// ErrOutOfMemory indicates that no free block is large enough for the request.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrNullPointer indicates a free of Nil.
	ErrNullPointer = errors.New("heap: null pointer")

	// ErrMisaligned indicates a pointer that is not a multiple of 8.
	ErrMisaligned = errors.New("heap: misaligned pointer")

	// ErrOutOfRange indicates a pointer whose header would lie outside the block area.
	ErrOutOfRange = errors.New("heap: pointer out of range")

	// ErrDoubleFree indicates a free of a block whose header is already marked free.
	ErrDoubleFree = errors.New("heap: double free")

	// ErrNotBlock indicates a pointer into the middle of a block rather than at its payload start.
	ErrNotBlock = errors.New("heap: pointer is not a block payload")
)
