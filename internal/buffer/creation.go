package buffer

import (
	"fmt"
	"unsafe"
)

// AllocPtr allocates zeroed storage for n elements of T on d and returns the
// typed device pointer. It fails for n <= 0. The flag is normally FlagNone;
// the cache passes FlagCache for slot allocations.
func AllocPtr[T Elem](d Allocator, n int, flag AllocFlag) (Ptr[T], error) {
	if n <= 0 {
		return Ptr[T]{}, fmt.Errorf("%w: requested %d elements", ErrZeroLengthAlloc, n)
	}
	h, err := d.AllocBytes(n * sizeOf[T]())
	if err != nil {
		return Ptr[T]{}, err
	}
	return Ptr[T]{handle: h, len: n, flag: flag}, nil
}

// WithSlicePtr allocates storage on d and copies data into it verbatim.
// It fails for an empty source slice.
func WithSlicePtr[T Elem](d Allocator, data []T, flag AllocFlag) (Ptr[T], error) {
	if len(data) == 0 {
		return Ptr[T]{}, ErrEmptySlice
	}
	p, err := AllocPtr[T](d, len(data), flag)
	if err != nil {
		return Ptr[T]{}, err
	}
	if hm, ok := d.(HostMemory); ok {
		copy(typedSlice[T](hm.HostBytes(p.handle), p.len), data)
		return p, nil
	}
	if err := d.WriteBytes(p.handle, asBytes(data)); err != nil {
		// Don't leak the half-initialized allocation.
		_ = d.FreeHandle(p.handle)
		return Ptr[T]{}, err
	}
	return p, nil
}

// FromVecPtr adopts an existing slice's backing storage without copying.
// Only host-addressable backends support adoption. The caller hands over
// ownership: the slice must not be used (and in particular not be grown)
// after the call, otherwise the buffer and the slice alias each other with
// no defined owner.
func FromVecPtr[T Elem](d Allocator, vec []T) (Ptr[T], error) {
	if len(vec) == 0 {
		return Ptr[T]{}, ErrEmptySlice
	}
	ha, ok := d.(HostAdopter)
	if !ok {
		return Ptr[T]{}, fmt.Errorf("%w: cannot adopt a host slice", ErrNotHostAddressable)
	}
	h, err := ha.AdoptBytes(unsafe.Pointer(&vec[0]), len(vec)*sizeOf[T](), vec)
	if err != nil {
		return Ptr[T]{}, err
	}
	return Ptr[T]{handle: h, len: len(vec), flag: FlagNone}, nil
}

// WrapPtr borrows an existing slice as buffer storage without copying and
// without taking ownership: the resulting pointer carries FlagWrapper and
// is never freed by buffer code. The external owner must keep the memory
// alive for the pointer's lifetime.
func WrapPtr[T Elem](d Allocator, data []T) (Ptr[T], error) {
	if len(data) == 0 {
		return Ptr[T]{}, ErrEmptySlice
	}
	ha, ok := d.(HostAdopter)
	if !ok {
		return Ptr[T]{}, fmt.Errorf("%w: cannot wrap a host slice", ErrNotHostAddressable)
	}
	h, err := ha.AdoptBytes(unsafe.Pointer(&data[0]), len(data)*sizeOf[T](), data)
	if err != nil {
		return Ptr[T]{}, err
	}
	return Ptr[T]{handle: h, len: len(data), flag: FlagWrapper}, nil
}
