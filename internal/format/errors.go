package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header word.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadSize indicates a header size that is not a legal block size.
	ErrBadSize = errors.New("format: illegal block size")
)
