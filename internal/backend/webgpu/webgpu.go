//go:build windows

// Package webgpu implements the WebGPU backend on top of go-webgpu's
// zero-cgo bindings. Buffers live in GPU storage memory; uploads go through
// mapped-at-creation staging, downloads through a staging buffer and a
// blocking map.
package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"

	"github.com/enzonoe/custos/internal/buffer"
)

// Block is the WebGPU handle: a storage buffer on the device.
type Block struct {
	buf *wgpu.Buffer
	n   int
}

// Valid reports whether the block still refers to a live GPU buffer.
func (b *Block) Valid() bool { return b != nil && b.buf != nil }

// Bytes returns the allocation size in bytes.
func (b *Block) Bytes() int { return b.n }

// Device owns a WebGPU instance/adapter/device/queue plus the allocation
// cache. Close clears the cache before releasing the device chain.
type Device struct {
	cache *buffer.Cache
	graph *buffer.Graph

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	dev      *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo wgpu.AdapterInfo
}

// Option configures a Device.
type Option func(*Device)

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option {
	return func(d *Device) { d.graph = buffer.NewGraph() }
}

// New requests a high-performance adapter and device. A panic from the
// native loader (missing wgpu_native) is converted into an error.
func New(opts ...Option) (d *Device, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	d = &Device{cache: buffer.NewCache()}
	for _, opt := range opts {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	adapter, adapterErr := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		d.instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}
	d.adapter = adapter
	d.adapterInfo = adapter.GetInfo()

	dev, devErr := adapter.RequestDevice(nil)
	if devErr != nil {
		d.adapter.Release()
		d.instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", devErr)
	}
	d.dev = dev

	d.queue = dev.GetQueue()
	if d.queue == nil {
		d.dev.Release()
		d.adapter.Release()
		d.instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	klog.V(1).Infof("webgpu: adapter %q initialized", d.adapterInfo.Device)
	return d, nil
}

// Name returns "WebGPU".
func (d *Device) Name() string { return "WebGPU" }

// Cache returns the device's allocation cache.
func (d *Device) Cache() *buffer.Cache { return d.cache }

// Graph returns the dependency graph, or nil when tracking is disabled.
func (d *Device) Graph() *buffer.Graph { return d.graph }

// AllocBytes creates a storage buffer of n bytes. WebGPU buffers are
// zero-initialized by the implementation.
func (d *Device) AllocBytes(n int) (buffer.Handle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d bytes", buffer.ErrZeroLengthAlloc, n)
	}
	buf := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(n),
	})
	if buf == nil {
		return nil, fmt.Errorf("webgpu: failed to create %d-byte buffer", n)
	}
	return &Block{buf: buf, n: n}, nil
}

// FreeHandle releases the GPU buffer.
func (d *Device) FreeHandle(h buffer.Handle) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a WebGPU block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	blk.buf.Release()
	blk.buf = nil
	return nil
}

// WriteBytes uploads src through a mapped staging buffer and a device-side
// copy, then waits for the queue.
func (d *Device) WriteBytes(h buffer.Handle, src []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a WebGPU block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	if len(src) == 0 {
		return nil
	}
	if len(src) > blk.n {
		return fmt.Errorf("%w: writing %d bytes into a %d-byte block", buffer.ErrLengthMismatch, len(src), blk.n)
	}
	size := uint64(len(src))

	staging := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	defer staging.Release()

	mapped := staging.GetMappedRange(0, size)
	copy(unsafe.Slice((*byte)(mapped), size), src)
	staging.Unmap()

	encoder := d.dev.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, blk.buf, 0, size)
	d.queue.Submit(encoder.Finish(nil))
	return nil
}

// ReadBytes copies the buffer into a staging buffer, maps it and copies the
// contents into dst. Blocking.
func (d *Device) ReadBytes(h buffer.Handle, dst []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a WebGPU block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	if len(dst) == 0 {
		return nil
	}
	n := len(dst)
	if n > blk.n {
		n = blk.n
	}
	size := uint64(n)

	staging := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := d.dev.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(blk.buf, 0, staging, 0, size)
	d.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(d.dev, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	copy(dst[:n], unsafe.Slice((*byte)(mapped), size))
	staging.Unmap()
	return nil
}

// CopyHandle copies src to dst device-side.
func (d *Device) CopyHandle(dst, src buffer.Handle) error {
	db, ok := dst.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a WebGPU block", buffer.ErrForeignHandle, dst)
	}
	sb, ok := src.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a WebGPU block", buffer.ErrForeignHandle, src)
	}
	if !db.Valid() || !sb.Valid() {
		return buffer.ErrInvalidHandle
	}
	n := sb.n
	if db.n < n {
		n = db.n
	}
	encoder := d.dev.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(sb.buf, 0, db.buf, 0, uint64(n))
	d.queue.Submit(encoder.Finish(nil))
	return nil
}

// OptimizeCache evicts cache slots belonging to graph-leaf nodes with no
// outstanding buffers. A no-op when graph tracking is disabled.
func (d *Device) OptimizeCache() (int, error) {
	return d.cache.EvictLeaves(d, d.graph)
}

// Close releases every cached GPU buffer, then the device, adapter and
// instance, in that order.
func (d *Device) Close() error {
	err := d.cache.Clear(d)
	if d.graph != nil {
		d.graph.Reset()
	}
	if d.dev != nil {
		d.dev.Release()
		d.dev = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
	klog.V(1).Info("webgpu: device closed")
	return err
}

// IsAvailable reports whether a WebGPU device can be created.
func IsAvailable() bool {
	d, err := New()
	if err != nil {
		return false
	}
	_ = d.Close()
	return true
}

// Interface conformance.
var (
	_ buffer.Device       = (*Device)(nil)
	_ buffer.HandleCopier = (*Device)(nil)
	_ buffer.GraphReturn  = (*Device)(nil)
)
