package buffer

import "unsafe"

// Handle is a backend-specific opaque reference to one allocation.
// Implementations: host memory blocks, CUDA device pointers, OpenCL memory
// objects, WebGPU buffers.
type Handle interface {
	// Valid reports whether the handle still refers to live backing memory.
	Valid() bool
	// Bytes returns the size of the backing allocation in bytes.
	Bytes() int
}

// Allocator is the byte-level allocation surface every backend implements.
// Typed access is layered on top by the generic functions in this package;
// Go interfaces cannot carry generic methods, so the element type is erased
// down here and re-established by Construct/Destruct.
type Allocator interface {
	// AllocBytes allocates n bytes of backing memory. Host backends must
	// return zeroed memory; device backends may defer zeroing to the driver.
	AllocBytes(n int) (Handle, error)
	// FreeHandle releases the allocation and invalidates the handle.
	// Passing a handle allocated by a different device is an error.
	FreeHandle(h Handle) error
	// WriteBytes copies src into the allocation (host to device, blocking).
	WriteBytes(h Handle, src []byte) error
	// ReadBytes copies the allocation into dst (device to host, blocking).
	ReadBytes(h Handle, dst []byte) error
}

// Device is a compute device: an allocator that owns a cache table.
// A Device is intended for exclusive use by one goroutine at a time; Buffers
// hold a non-owning reference to their Device and must not outlive it.
type Device interface {
	Allocator
	// Name returns the backend name, e.g. "CPU", "CUDA".
	Name() string
	// Cache returns the device's node-keyed allocation cache.
	Cache() *Cache
}

// HostMemory is implemented by backends whose allocations are directly
// addressable from the host (CPU, unified-memory devices). Discrete GPU
// backends do not implement it; reading them requires an explicit transfer.
type HostMemory interface {
	// HostBytes returns a view over the allocation's backing memory.
	HostBytes(h Handle) []byte
}

// HostAdopter is implemented by host backends that can take over, or borrow,
// memory they did not allocate themselves. keepalive must reference the Go
// value owning the memory so the garbage collector keeps it live for as long
// as the handle is.
type HostAdopter interface {
	AdoptBytes(p unsafe.Pointer, n int, keepalive any) (Handle, error)
}

// GraphReturn is implemented by devices that track cache-node dependencies
// for the leaf-eviction optimization.
type GraphReturn interface {
	Graph() *Graph
}

// Zeroer is an optional fast path for overwriting an allocation with zeroes
// on the device (e.g. cuMemsetD8). Without it, Clear falls back to writing
// a zeroed host slice.
type Zeroer interface {
	ZeroBytes(h Handle) error
}

// HandleCopier is an optional fast path for device-side copies between two
// allocations of the same device (e.g. cuMemcpyDtoD). Without it, CloneBuf
// falls back to a read-modify-write through host memory.
type HandleCopier interface {
	CopyHandle(dst, src Handle) error
}
