package buffer

import "unsafe"

// Elem is the constraint for buffer element types. All members are
// fixed-layout numeric types, so their size and alignment fully describe
// how a cached slot may be re-typed.
type Elem interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Ptr is a typed device pointer: a backend handle, an element count and the
// ownership flag. A Ptr handed to user code is either valid or the
// allocation call already failed; a nil handle exists only transiently
// during construction.
type Ptr[T Elem] struct {
	handle Handle
	len    int
	flag   AllocFlag
}

// Len returns the element count.
func (p Ptr[T]) Len() int { return p.len }

// Flag returns the ownership flag.
func (p Ptr[T]) Flag() AllocFlag { return p.flag }

// Handle returns the backend handle.
func (p Ptr[T]) Handle() Handle { return p.handle }

// Valid reports whether the pointer refers to live backing memory.
func (p Ptr[T]) Valid() bool { return p.handle != nil && p.handle.Valid() }

func sizeOf[T Elem]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func alignOf[T Elem]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

// asBytes reinterprets a typed slice as its backing bytes without copying.
// Together with typedSlice this is one of the two deliberately narrow
// unsafe reinterpretation points of the package.
func asBytes[T Elem](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*sizeOf[T]())
}

// typedSlice views the first n*sizeof(T) bytes of raw as a []T.
// raw may be longer than needed: cache slots keep their stored capacity
// when a shorter length is requested.
func typedSlice[T Elem](raw []byte, n int) []T {
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)
}
