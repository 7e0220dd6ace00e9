package cuda

import (
	"fmt"
	"unsafe"

	"k8s.io/klog/v2"

	"github.com/enzonoe/custos/internal/buffer"
)

// Block is the CUDA handle: a device pointer returned by cuMemAlloc.
// Device memory is not host addressable; reads and writes go through the
// blocking cuMemcpy entry points.
type Block struct {
	dptr uintptr
	n    int
}

// Valid reports whether the block still refers to live device memory.
func (b *Block) Valid() bool { return b != nil && b.dptr != 0 }

// Bytes returns the allocation size in bytes.
func (b *Block) Bytes() int { return b.n }

// Device owns a CUDA context and stream plus the allocation cache for one
// GPU. Teardown order matters: Close clears the cache (freeing every cached
// device allocation) before destroying the stream and context.
type Device struct {
	cache *buffer.Cache
	graph *buffer.Graph

	index  int
	dev    int32
	ctx    uintptr
	stream uintptr

	name     string
	totalMem uint64
}

// Option configures a Device.
type Option func(*Device)

// WithIndex selects the CUDA device ordinal (default 0).
func WithIndex(idx int) Option {
	return func(d *Device) { d.index = idx }
}

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option {
	return func(d *Device) { d.graph = buffer.NewGraph() }
}

// New initializes the driver, creates a context and a stream on the
// selected device, and returns a Device with an empty cache. Driver
// failures surface as wrapped errors; nothing is retried here.
func New(opts ...Option) (*Device, error) {
	if err := loadDriver(); err != nil {
		return nil, err
	}
	d := &Device{cache: buffer.NewCache()}
	for _, opt := range opts {
		opt(d)
	}

	if err := check(cuInit(0), "cuInit"); err != nil {
		return nil, err
	}
	if err := check(cuDeviceGet(&d.dev, int32(d.index)), "cuDeviceGet"); err != nil {
		return nil, err
	}
	if err := check(cuCtxCreate(&d.ctx, 0, d.dev), "cuCtxCreate"); err != nil {
		return nil, err
	}
	if err := check(cuStreamCreate(&d.stream, 0), "cuStreamCreate"); err != nil {
		cuCtxDestroy(d.ctx)
		return nil, err
	}

	nameBuf := make([]byte, 256)
	if cuDeviceGetName(&nameBuf[0], int32(len(nameBuf)), d.dev) == success {
		for i, c := range nameBuf {
			if c == 0 {
				d.name = string(nameBuf[:i])
				break
			}
		}
	}
	cuDeviceTotalMem(&d.totalMem, d.dev)

	klog.V(1).Infof("cuda: device %d (%s, %d MiB) initialized", d.index, d.name, d.totalMem>>20)
	return d, nil
}

// Name returns "CUDA".
func (d *Device) Name() string { return "CUDA" }

// DeviceName returns the driver-reported device name, e.g. "NVIDIA A100".
func (d *Device) DeviceName() string { return d.name }

// TotalMemGB returns the device's global memory size in gigabytes.
func (d *Device) TotalMemGB() float64 { return float64(d.totalMem) * 1e-9 }

// Cache returns the device's allocation cache.
func (d *Device) Cache() *buffer.Cache { return d.cache }

// Graph returns the dependency graph, or nil when tracking is disabled.
func (d *Device) Graph() *buffer.Graph { return d.graph }

// AllocBytes allocates n bytes of device memory via cuMemAlloc. Zeroing is
// deferred to the driver; callers needing defined contents use Clear or
// Write.
func (d *Device) AllocBytes(n int) (buffer.Handle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d bytes", buffer.ErrZeroLengthAlloc, n)
	}
	var dptr uintptr
	if err := check(cuMemAlloc(&dptr, uint64(n)), "cuMemAlloc"); err != nil {
		return nil, err
	}
	return &Block{dptr: dptr, n: n}, nil
}

// FreeHandle releases the device allocation.
func (d *Device) FreeHandle(h buffer.Handle) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CUDA block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	err := check(cuMemFree(blk.dptr), "cuMemFree")
	blk.dptr = 0
	return err
}

// WriteBytes copies src to the device (blocking).
func (d *Device) WriteBytes(h buffer.Handle, src []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CUDA block", buffer.ErrForeignHandle, h)
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
	return check(cuMemcpyHtoD(blk.dptr, unsafe.Pointer(&src[0]), uint64(len(src))), "cuMemcpyHtoD")
}

// ReadBytes copies the allocation to dst (blocking).
func (d *Device) ReadBytes(h buffer.Handle, dst []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CUDA block", buffer.ErrForeignHandle, h)
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
	return check(cuMemcpyDtoH(unsafe.Pointer(&dst[0]), blk.dptr, uint64(n)), "cuMemcpyDtoH")
}

// ZeroBytes overwrites the allocation with zeroes on the device.
func (d *Device) ZeroBytes(h buffer.Handle) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CUDA block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	return check(cuMemsetD8(blk.dptr, 0, uint64(blk.n)), "cuMemsetD8")
}

// CopyHandle copies src to dst device-side without a host round trip.
func (d *Device) CopyHandle(dst, src buffer.Handle) error {
	db, ok := dst.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CUDA block", buffer.ErrForeignHandle, dst)
	}
	sb, ok := src.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not a CUDA block", buffer.ErrForeignHandle, src)
	}
	if !db.Valid() || !sb.Valid() {
		return buffer.ErrInvalidHandle
	}
	n := sb.n
	if db.n < n {
		n = db.n
	}
	return check(cuMemcpyDtoD(db.dptr, sb.dptr, uint64(n)), "cuMemcpyDtoD")
}

// Synchronize blocks until all work queued on the device's stream is done.
func (d *Device) Synchronize() error {
	return check(cuStreamSynchronize(d.stream), "cuStreamSynchronize")
}

// OptimizeCache evicts cache slots belonging to graph-leaf nodes with no
// outstanding buffers. A no-op when graph tracking is disabled.
func (d *Device) OptimizeCache() (int, error) {
	return d.cache.EvictLeaves(d, d.graph)
}

// Close frees every cached allocation, then destroys the stream and the
// context, in that order. Cache entries reference device memory that only
// exists while the context does.
func (d *Device) Close() error {
	err := d.cache.Clear(d)
	if d.graph != nil {
		d.graph.Reset()
	}
	if d.stream != 0 {
		cuStreamDestroy(d.stream)
		d.stream = 0
	}
	if d.ctx != 0 {
		cuCtxDestroy(d.ctx)
		d.ctx = 0
	}
	klog.V(1).Infof("cuda: device %d closed", d.index)
	return err
}

// Interface conformance.
var (
	_ buffer.Device       = (*Device)(nil)
	_ buffer.Zeroer       = (*Device)(nil)
	_ buffer.HandleCopier = (*Device)(nil)
	_ buffer.GraphReturn  = (*Device)(nil)
)
