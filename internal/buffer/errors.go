package buffer

import "errors"

// Precondition and capability errors reported by the core. Driver-level
// failures are wrapped by the backends and carry their own context.
var (
	// ErrZeroLengthAlloc is returned for allocation requests of length zero.
	ErrZeroLengthAlloc = errors.New("buffer: zero-length allocation")
	// ErrEmptySlice is returned when an empty slice is used as an
	// allocation source.
	ErrEmptySlice = errors.New("buffer: empty source slice")
	// ErrLengthMismatch is returned by Write when the source length does
	// not equal the buffer length.
	ErrLengthMismatch = errors.New("buffer: source length does not match buffer length")
	// ErrNotHostAddressable is returned when a host-only operation is
	// attempted on a device whose memory the host cannot address.
	ErrNotHostAddressable = errors.New("buffer: device memory is not host addressable")
	// ErrForeignHandle is returned when a handle is passed to a device
	// that did not allocate it.
	ErrForeignHandle = errors.New("buffer: handle was not allocated by this device")
	// ErrInvalidHandle is returned when an operation dereferences a handle
	// that was already released.
	ErrInvalidHandle = errors.New("buffer: invalid handle (already released?)")
)
