package buffer

import "fmt"

// Raw is the type-erased record stored in the cache table: the backend
// handle canonicalized to the byte level, the element count, and enough
// layout metadata (element size and alignment) to refuse an unsound
// re-typing instead of silently reinterpreting bytes.
type Raw struct {
	handle Handle
	len    int
	size   int
	align  int
	flag   AllocFlag
}

// Handle returns the erased backend handle.
func (r Raw) Handle() Handle { return r.handle }

// Len returns the stored element count.
func (r Raw) Len() int { return r.len }

// Flag returns the ownership flag recorded at construction. It is
// authoritative for what Destruct hands back.
func (r Raw) Flag() AllocFlag { return r.flag }

// Construct erases a typed device pointer into a Raw record, recording T's
// size and alignment alongside the handle. Ownership semantics are carried
// by the flag, never transferred implicitly.
func Construct[T Elem](p Ptr[T]) Raw {
	return Raw{
		handle: p.handle,
		len:    p.len,
		size:   sizeOf[T](),
		align:  alignOf[T](),
		flag:   p.flag,
	}
}

// Destruct re-establishes the element type of an erased record. Correctness
// depends on the caller requesting the same layout that produced the record,
// so a size or alignment mismatch is a programming-error class failure: it
// indicates a node-identity collision and panics rather than reinterpreting
// bytes.
func Destruct[T Elem](r Raw) Ptr[T] {
	var zero T
	if sizeOf[T]() != r.size || alignOf[T]() != r.align {
		panic(fmt.Sprintf(
			"buffer: cached slot holds %d-byte (align %d) elements, requested %T (%d bytes, align %d)",
			r.size, r.align, zero, sizeOf[T](), alignOf[T](),
		))
	}
	return Ptr[T]{handle: r.handle, len: r.len, flag: r.flag}
}
