package format

// Align8 returns n aligned up to the next 8-byte boundary.
// Used for block sizes computed from payload requests.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(24) = 24
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignDown8 returns n aligned down to the previous 8-byte boundary.
// Used to trim the usable part of a region whose length is not a multiple of 8.
func AlignDown8(n int) int {
	return n & ^AlignmentMask
}

// IsAligned8 reports whether n sits on an 8-byte boundary.
func IsAligned8(n int) bool {
	return n&AlignmentMask == 0
}

// BlockSizeFor returns the total block size needed to hold a payload of n
// bytes: header plus payload, rounded up to the alignment grid and never
// below MinBlockSize.
func BlockSizeFor(n int) int {
	return max(Align8(n+HeaderSize), MinBlockSize)
}
