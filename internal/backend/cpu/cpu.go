// Package cpu implements the host-memory backend. Allocations live on the
// Go heap, are zero-initialized by contract, and are directly addressable
// as slices.
package cpu

import (
	"fmt"
	"unsafe"

	"k8s.io/klog/v2"

	"github.com/enzonoe/custos/internal/buffer"
)

// Block is the CPU handle: a raw pointer into host memory plus a reference
// that keeps the owning Go allocation alive. Freeing a block only drops the
// reference; the Go runtime reclaims the memory once nothing views it, so a
// double free cannot corrupt anything; the second free merely fails.
type Block struct {
	ptr unsafe.Pointer
	n   int
	ref any
}

// Valid reports whether the block still refers to live memory.
func (b *Block) Valid() bool { return b != nil && b.ptr != nil }

// Bytes returns the allocation size in bytes.
func (b *Block) Bytes() int { return b.n }

// Device performs allocations in host memory. It owns its cache table and,
// optionally, a dependency graph for leaf eviction. A Device is meant for
// exclusive use by one goroutine at a time.
type Device struct {
	cache *buffer.Cache
	graph *buffer.Graph
}

// Option configures a Device.
type Option func(*Device)

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option {
	return func(d *Device) { d.graph = buffer.NewGraph() }
}

// New creates a CPU device with an empty cache.
func New(opts ...Option) *Device {
	d := &Device{cache: buffer.NewCache()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns "CPU".
func (d *Device) Name() string { return "CPU" }

// Cache returns the device's allocation cache.
func (d *Device) Cache() *buffer.Cache { return d.cache }

// Graph returns the dependency graph, or nil when tracking is disabled.
func (d *Device) Graph() *buffer.Graph { return d.graph }

// AllocBytes allocates n zeroed bytes of host memory.
func (d *Device) AllocBytes(n int) (buffer.Handle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d bytes", buffer.ErrZeroLengthAlloc, n)
	}
	// make zeroes the block; the zero-initialization contract of the host
	// backend does not depend on allocator internals.
	data := make([]byte, n)
	return &Block{ptr: unsafe.Pointer(&data[0]), n: n, ref: data}, nil
}

// AdoptBytes takes over (or borrows, depending on the buffer flag layered
// above) memory owned by keepalive without copying.
func (d *Device) AdoptBytes(p unsafe.Pointer, n int, keepalive any) (buffer.Handle, error) {
	if p == nil || n <= 0 {
		return nil, fmt.Errorf("%w: adopting %d bytes", buffer.ErrZeroLengthAlloc, n)
	}
	return &Block{ptr: p, n: n, ref: keepalive}, nil
}

// FreeHandle invalidates the block and drops its keepalive reference.
func (d *Device) FreeHandle(h buffer.Handle) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CPU block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	blk.ptr = nil
	blk.ref = nil
	return nil
}

// HostBytes returns a view over the block's memory.
func (d *Device) HostBytes(h buffer.Handle) []byte {
	blk := h.(*Block)
	return unsafe.Slice((*byte)(blk.ptr), blk.n)
}

// WriteBytes copies src into the block.
func (d *Device) WriteBytes(h buffer.Handle, src []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CPU block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	if len(src) > blk.n {
		return fmt.Errorf("%w: writing %d bytes into a %d-byte block", buffer.ErrLengthMismatch, len(src), blk.n)
	}
	copy(d.HostBytes(h), src)
	return nil
}

// ReadBytes copies the block into dst.
func (d *Device) ReadBytes(h buffer.Handle, dst []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CPU block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	copy(dst, d.HostBytes(h))
	return nil
}

// OptimizeCache evicts cache slots belonging to graph-leaf nodes with no
// outstanding buffers. A no-op when graph tracking is disabled.
func (d *Device) OptimizeCache() (int, error) {
	return d.cache.EvictLeaves(d, d.graph)
}

// Close clears the cache. The CPU backend has no driver context to tear
// down, but the ordering contract (cache first) is kept for symmetry with
// the device backends.
func (d *Device) Close() error {
	err := d.cache.Clear(d)
	if d.graph != nil {
		d.graph.Reset()
	}
	klog.V(1).Info("cpu: device closed")
	return err
}

// Interface conformance.
var (
	_ buffer.Device      = (*Device)(nil)
	_ buffer.HostMemory  = (*Device)(nil)
	_ buffer.HostAdopter = (*Device)(nil)
	_ buffer.GraphReturn = (*Device)(nil)
)
