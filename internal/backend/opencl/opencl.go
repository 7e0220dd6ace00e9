package opencl

import (
	"fmt"
	"unsafe"

	"k8s.io/klog/v2"

	"github.com/enzonoe/custos/internal/buffer"
)

// Block is the OpenCL handle: a cl_mem memory object. Memory objects are
// not host addressable here even on unified-memory devices; all access goes
// through blocking enqueue calls on the device's command queue.
type Block struct {
	mem uintptr
	n   int
}

// Valid reports whether the block still refers to a live memory object.
func (b *Block) Valid() bool { return b != nil && b.mem != 0 }

// Bytes returns the allocation size in bytes.
func (b *Block) Bytes() int { return b.n }

// Info describes one enumerated OpenCL device.
type Info struct {
	Index         int
	Name          string
	Version       string
	GlobalMemGB   float64
	MaxAllocGB    float64
	UnifiedMemory bool
}

// Device owns an OpenCL context and command queue plus the allocation cache
// for one device. Close clears the cache (releasing every cached memory
// object) before releasing the queue and the context.
type Device struct {
	cache *buffer.Cache
	graph *buffer.Graph

	index int
	dev   uintptr
	ctx   uintptr
	queue uintptr

	info Info
}

// Option configures a Device.
type Option func(*Device)

// WithIndex selects the device position in the enumeration order of
// Devices (default 0).
func WithIndex(idx int) Option {
	return func(d *Device) { d.index = idx }
}

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option {
	return func(d *Device) { d.graph = buffer.NewGraph() }
}

// enumerate lists the GPU devices of every platform, falling back to all
// device types when no GPU is present.
func enumerate() ([]uintptr, error) {
	if err := loadRuntime(); err != nil {
		return nil, err
	}
	var numPlatforms uint32
	if err := checkCL(clGetPlatformIDs(0, nil, &numPlatforms), "clGetPlatformIDs"); err != nil {
		return nil, err
	}
	if numPlatforms == 0 {
		return nil, fmt.Errorf("%w: no platforms", ErrNotAvailable)
	}
	platforms := make([]uintptr, numPlatforms)
	if err := checkCL(clGetPlatformIDs(numPlatforms, &platforms[0], nil), "clGetPlatformIDs"); err != nil {
		return nil, err
	}

	var all []uintptr
	for _, platform := range platforms {
		for _, devType := range []uint64{deviceTypeGPU, deviceTypeAll} {
			var num uint32
			if clGetDeviceIDs(platform, devType, 0, nil, &num) != clSuccess || num == 0 {
				continue
			}
			devs := make([]uintptr, num)
			if clGetDeviceIDs(platform, devType, num, &devs[0], nil) != clSuccess {
				continue
			}
			all = append(all, devs...)
			break
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no devices", ErrNotAvailable)
	}
	return all, nil
}

func queryInfo(dev uintptr, index int) Info {
	info := Info{Index: index}

	strBuf := make([]byte, 256)
	var size uint64
	if clGetDeviceInfo(dev, infoDeviceName, uint64(len(strBuf)), unsafe.Pointer(&strBuf[0]), &size) == clSuccess && size > 0 {
		info.Name = string(strBuf[:size-1])
	}
	if clGetDeviceInfo(dev, infoDeviceVersion, uint64(len(strBuf)), unsafe.Pointer(&strBuf[0]), &size) == clSuccess && size > 0 {
		info.Version = string(strBuf[:size-1])
	}

	var mem uint64
	if clGetDeviceInfo(dev, infoGlobalMemSize, 8, unsafe.Pointer(&mem), nil) == clSuccess {
		info.GlobalMemGB = float64(mem) * 1e-9
	}
	if clGetDeviceInfo(dev, infoMaxMemAllocSize, 8, unsafe.Pointer(&mem), nil) == clSuccess {
		info.MaxAllocGB = float64(mem) * 1e-9
	}
	var unified uint32
	if clGetDeviceInfo(dev, infoHostUnifiedMemory, 4, unsafe.Pointer(&unified), nil) == clSuccess {
		info.UnifiedMemory = unified == clTrue
	}
	return info
}

// Devices enumerates the available OpenCL devices. This is the thin
// registry at the application boundary; the core never consults it.
func Devices() ([]Info, error) {
	devs, err := enumerate()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, len(devs))
	for i, dev := range devs {
		infos[i] = queryInfo(dev, i)
	}
	return infos, nil
}

// New creates a context and command queue on the selected device and
// returns a Device with an empty cache.
func New(opts ...Option) (*Device, error) {
	d := &Device{cache: buffer.NewCache()}
	for _, opt := range opts {
		opt(d)
	}

	devs, err := enumerate()
	if err != nil {
		return nil, err
	}
	if d.index < 0 || d.index >= len(devs) {
		return nil, fmt.Errorf("opencl: invalid device index %d (have %d devices)", d.index, len(devs))
	}
	d.dev = devs[d.index]
	d.info = queryInfo(d.dev, d.index)

	var status clError
	d.ctx = clCreateContext(0, 1, &d.dev, 0, 0, &status)
	if err := checkCL(status, "clCreateContext"); err != nil {
		return nil, err
	}
	d.queue = clCreateCommandQueue(d.ctx, d.dev, 0, &status)
	if err := checkCL(status, "clCreateCommandQueue"); err != nil {
		clReleaseContext(d.ctx)
		return nil, err
	}

	klog.V(1).Infof("opencl: device %d (%s, %.1f GB) initialized", d.index, d.info.Name, d.info.GlobalMemGB)
	return d, nil
}

// Name returns "OpenCL".
func (d *Device) Name() string { return "OpenCL" }

// Info returns the enumerated device description.
func (d *Device) Info() Info { return d.info }

// UnifiedMemory reports whether the device shares physical memory with the
// host. Access still goes through the queue; this is informational only.
func (d *Device) UnifiedMemory() bool { return d.info.UnifiedMemory }

// Cache returns the device's allocation cache.
func (d *Device) Cache() *buffer.Cache { return d.cache }

// Graph returns the dependency graph, or nil when tracking is disabled.
func (d *Device) Graph() *buffer.Graph { return d.graph }

// AllocBytes creates a read-write memory object of n bytes. Zeroing is
// deferred to the driver.
func (d *Device) AllocBytes(n int) (buffer.Handle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d bytes", buffer.ErrZeroLengthAlloc, n)
	}
	var status clError
	mem := clCreateBuffer(d.ctx, memReadWrite, uint64(n), nil, &status)
	if err := checkCL(status, "clCreateBuffer"); err != nil {
		return nil, err
	}
	return &Block{mem: mem, n: n}, nil
}

// FreeHandle releases the memory object.
func (d *Device) FreeHandle(h buffer.Handle) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not an OpenCL block", buffer.ErrForeignHandle, h)
	}
	if !blk.Valid() {
		return buffer.ErrInvalidHandle
	}
	err := checkCL(clReleaseMemObject(blk.mem), "clReleaseMemObject")
	blk.mem = 0
	return err
}

// WriteBytes enqueues a blocking write of src into the memory object.
func (d *Device) WriteBytes(h buffer.Handle, src []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not an OpenCL block", buffer.ErrForeignHandle, h)
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
	return checkCL(
		clEnqueueWriteBuffer(d.queue, blk.mem, clTrue, 0, uint64(len(src)), unsafe.Pointer(&src[0]), 0, 0, 0),
		"clEnqueueWriteBuffer",
	)
}

// ReadBytes enqueues a blocking read of the memory object into dst.
func (d *Device) ReadBytes(h buffer.Handle, dst []byte) error {
	blk, ok := h.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not an OpenCL block", buffer.ErrForeignHandle, h)
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
	return checkCL(
		clEnqueueReadBuffer(d.queue, blk.mem, clTrue, 0, uint64(n), unsafe.Pointer(&dst[0]), 0, 0, 0),
		"clEnqueueReadBuffer",
	)
}

// CopyHandle copies src to dst device-side and waits for completion.
func (d *Device) CopyHandle(dst, src buffer.Handle) error {
	db, ok := dst.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not an OpenCL block", buffer.ErrForeignHandle, dst)
	}
	sb, ok := src.(*Block)
	if !ok {
		return fmt.Errorf("%w: %T is not an OpenCL block", buffer.ErrForeignHandle, src)
	}
	if !db.Valid() || !sb.Valid() {
		return buffer.ErrInvalidHandle
	}
	n := sb.n
	if db.n < n {
		n = db.n
	}
	if err := checkCL(clEnqueueCopyBuffer(d.queue, sb.mem, db.mem, 0, 0, uint64(n), 0, 0, 0), "clEnqueueCopyBuffer"); err != nil {
		return err
	}
	return checkCL(clFinish(d.queue), "clFinish")
}

// OptimizeCache evicts cache slots belonging to graph-leaf nodes with no
// outstanding buffers. A no-op when graph tracking is disabled.
func (d *Device) OptimizeCache() (int, error) {
	return d.cache.EvictLeaves(d, d.graph)
}

// Close releases every cached memory object, then the command queue, then
// the context. Memory objects belong to the context, so the cache must be
// emptied first.
func (d *Device) Close() error {
	err := d.cache.Clear(d)
	if d.graph != nil {
		d.graph.Reset()
	}
	if d.queue != 0 {
		clReleaseCommandQueue(d.queue)
		d.queue = 0
	}
	if d.ctx != 0 {
		clReleaseContext(d.ctx)
		d.ctx = 0
	}
	klog.V(1).Infof("opencl: device %d closed", d.index)
	return err
}

// Interface conformance.
var (
	_ buffer.Device       = (*Device)(nil)
	_ buffer.HandleCopier = (*Device)(nil)
	_ buffer.GraphReturn  = (*Device)(nil)
)
