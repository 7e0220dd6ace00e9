package buffer

import (
	"fmt"

	"k8s.io/klog/v2"
)

// noNode marks a buffer that does not view a cache slot.
var noNode = Node{Idx: -1}

// Buffer is the user-facing container: a typed device pointer, and a
// non-owning reference to the device that produced it. Whether the Buffer
// owns its memory is decided entirely by the pointer's AllocFlag.
//
// Buffers are created through New, FromSlice, FromVec, Wrap or Get, never
// by direct field construction. That discipline is what keeps the
// flag/ownership invariant sound.
type Buffer[T Elem] struct {
	ptr    Ptr[T]
	device Device
	node   Node
}

// New allocates a zeroed buffer of n elements on d. The buffer owns its
// memory (FlagNone) and frees it on Release.
func New[T Elem](d Device, n int) (*Buffer[T], error) {
	p, err := AllocPtr[T](d, n, FlagNone)
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{ptr: p, device: d, node: noNode}, nil
}

// FromSlice allocates a buffer on d initialized with a copy of data.
func FromSlice[T Elem](d Device, data []T) (*Buffer[T], error) {
	p, err := WithSlicePtr(d, data, FlagNone)
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{ptr: p, device: d, node: noNode}, nil
}

// FromVec adopts vec's backing storage as an owned buffer without copying.
// The caller must not use vec afterwards. Host-addressable backends only.
func FromVec[T Elem](d Device, vec []T) (*Buffer[T], error) {
	p, err := FromVecPtr(d, vec)
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{ptr: p, device: d, node: noNode}, nil
}

// Wrap borrows data as buffer storage (FlagWrapper): the buffer never frees
// it and the external owner must outlive the buffer. Host-addressable
// backends only.
func Wrap[T Elem](d Device, data []T) (*Buffer[T], error) {
	p, err := WrapPtr(d, data)
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{ptr: p, device: d, node: noNode}, nil
}

// Len returns the element count.
func (b *Buffer[T]) Len() int { return b.ptr.len }

// Flag returns the ownership flag.
func (b *Buffer[T]) Flag() AllocFlag { return b.ptr.flag }

// Device returns the device this buffer was allocated on.
func (b *Buffer[T]) Device() Device { return b.device }

// CacheNode returns the cache node this buffer views, if any.
func (b *Buffer[T]) CacheNode() (Node, bool) {
	return b.node, b.ptr.flag == FlagCache
}

// AsSlice returns a writable view over the backing memory. It is only
// available on host-addressable devices; discrete-GPU buffers must be read
// with ReadToVec instead. Panics when called on an invalid (released)
// buffer, since that would dereference dead memory.
func (b *Buffer[T]) AsSlice() []T {
	hm, ok := b.device.(HostMemory)
	if !ok {
		panic(fmt.Sprintf("buffer: %s memory is not host addressable, use ReadToVec", b.device.Name()))
	}
	if !b.ptr.Valid() {
		panic("buffer: called AsSlice on an invalid buffer (this would dereference released memory)")
	}
	return typedSlice[T](hm.HostBytes(b.ptr.handle), b.ptr.len)
}

// ReadToVec copies the buffer contents into a freshly allocated slice.
// For device backends this is a blocking device-to-host transfer.
func (b *Buffer[T]) ReadToVec() ([]T, error) {
	if !b.ptr.Valid() {
		return nil, ErrInvalidHandle
	}
	out := make([]T, b.ptr.len)
	if hm, ok := b.device.(HostMemory); ok {
		copy(out, typedSlice[T](hm.HostBytes(b.ptr.handle), b.ptr.len))
		return out, nil
	}
	if err := b.device.ReadBytes(b.ptr.handle, asBytes(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Write bulk-copies data into the backing memory in place. The source
// length must equal the buffer length.
func (b *Buffer[T]) Write(data []T) error {
	if len(data) != b.ptr.len {
		return fmt.Errorf("%w: got %d elements, buffer holds %d", ErrLengthMismatch, len(data), b.ptr.len)
	}
	if !b.ptr.Valid() {
		return ErrInvalidHandle
	}
	if hm, ok := b.device.(HostMemory); ok {
		copy(typedSlice[T](hm.HostBytes(b.ptr.handle), b.ptr.len), data)
		return nil
	}
	return b.device.WriteBytes(b.ptr.handle, asBytes(data))
}

// Clear overwrites every element with the zero value. It is a dense
// re-initialization, not a deallocation, and is idempotent.
func (b *Buffer[T]) Clear() error {
	if !b.ptr.Valid() {
		return ErrInvalidHandle
	}
	if hm, ok := b.device.(HostMemory); ok {
		s := typedSlice[T](hm.HostBytes(b.ptr.handle), b.ptr.len)
		var zero T
		for i := range s {
			s[i] = zero
		}
		return nil
	}
	if z, ok := b.device.(Zeroer); ok {
		return z.ZeroBytes(b.ptr.handle)
	}
	return b.device.WriteBytes(b.ptr.handle, make([]byte, b.ptr.len*sizeOf[T]()))
}

// CloneBuf produces an independent buffer (FlagNone) with duplicated
// contents. The clone never aliases the source.
func (b *Buffer[T]) CloneBuf() (*Buffer[T], error) {
	cloned, err := New[T](b.device, b.ptr.len)
	if err != nil {
		return nil, err
	}
	if hc, ok := b.device.(HandleCopier); ok {
		if err := hc.CopyHandle(cloned.ptr.handle, b.ptr.handle); err != nil {
			cloned.Release()
			return nil, err
		}
		return cloned, nil
	}
	data, err := b.ReadToVec()
	if err != nil {
		cloned.Release()
		return nil, err
	}
	if err := cloned.Write(data); err != nil {
		cloned.Release()
		return nil, err
	}
	return cloned, nil
}

// Release ends this buffer's use of its backing memory. The dispatch on the
// ownership flag below is the entire memory-safety contract of the type:
// owned memory is freed exactly once, borrowed memory is never freed, and
// cache slots merely lose one outstanding reference (the Cache keeps the
// allocation until it is cleared or evicted). Releasing twice is a no-op.
func (b *Buffer[T]) Release() {
	if b == nil || b.ptr.handle == nil {
		return
	}
	switch b.ptr.flag {
	case FlagNone:
		if err := b.device.FreeHandle(b.ptr.handle); err != nil {
			klog.Errorf("buffer: releasing owned %s allocation: %v", b.device.Name(), err)
		}
	case FlagWrapper:
		// Borrowed from an external owner; nothing to free here.
	case FlagCache:
		b.device.Cache().release(b.node)
	default:
		panic(fmt.Sprintf("buffer: unknown alloc flag %d", b.ptr.flag))
	}
	b.ptr.handle = nil
}
