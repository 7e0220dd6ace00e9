// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package buffer provides the public API of the custos buffer layer: a
// single Buffer abstraction backed by host memory or accelerator memory,
// with one allocation/caching discipline shared by every backend.
//
// Example:
//
//	device := cpu.New()
//	defer device.Close()
//
//	a, _ := buffer.FromSlice(device, []int32{1, 2, 3, 4})
//	defer a.Release()
//
//	out, _ := buffer.Get[int32](device, a.Len())
//	copy(out.AsSlice(), a.AsSlice())
package buffer

import (
	"github.com/enzonoe/custos/internal/buffer"
)

// Type aliases for the public API.

// AllocFlag describes who owns a block of backing memory.
type AllocFlag = buffer.AllocFlag

// Ownership variants.
const (
	FlagNone    AllocFlag = buffer.FlagNone
	FlagWrapper AllocFlag = buffer.FlagWrapper
	FlagCache   AllocFlag = buffer.FlagCache
)

// Elem is the constraint for buffer element types.
type Elem = buffer.Elem

// Handle is a backend-specific opaque reference to one allocation.
type Handle = buffer.Handle

// Allocator is the byte-level allocation surface every backend implements.
type Allocator = buffer.Allocator

// Device is a compute device: an allocator that owns a cache table.
type Device = buffer.Device

// HostMemory is implemented by host-addressable backends.
type HostMemory = buffer.HostMemory

// Ptr is a typed device pointer.
type Ptr[T Elem] = buffer.Ptr[T]

// Raw is the type-erased record stored in cache tables.
type Raw = buffer.Raw

// Buffer is the user-facing container over a device allocation.
type Buffer[T Elem] = buffer.Buffer[T]

// Cache is the per-device node-keyed allocation cache.
type Cache = buffer.Cache

// Node identifies one cache slot.
type Node = buffer.Node

// Graph records cache-node dependencies for the leaf-eviction optimization.
type Graph = buffer.Graph

// Precondition and capability errors.
var (
	ErrZeroLengthAlloc    = buffer.ErrZeroLengthAlloc
	ErrEmptySlice         = buffer.ErrEmptySlice
	ErrLengthMismatch     = buffer.ErrLengthMismatch
	ErrNotHostAddressable = buffer.ErrNotHostAddressable
	ErrForeignHandle      = buffer.ErrForeignHandle
	ErrInvalidHandle      = buffer.ErrInvalidHandle
)

// New allocates a zeroed buffer of n elements on d (FlagNone).
func New[T Elem](d Device, n int) (*Buffer[T], error) {
	return buffer.New[T](d, n)
}

// FromSlice allocates a buffer on d initialized with a copy of data.
func FromSlice[T Elem](d Device, data []T) (*Buffer[T], error) {
	return buffer.FromSlice(d, data)
}

// FromVec adopts vec's backing storage as an owned buffer without copying.
// The caller must not use vec afterwards.
func FromVec[T Elem](d Device, vec []T) (*Buffer[T], error) {
	return buffer.FromVec(d, vec)
}

// Wrap borrows data as buffer storage (FlagWrapper); the external owner
// must outlive the buffer.
func Wrap[T Elem](d Device, data []T) (*Buffer[T], error) {
	return buffer.Wrap(d, data)
}

// Get returns a buffer for the current call-site cache node, reusing the
// node's previous allocation when one exists. See Cache for the replay
// discipline under which reuse is guaranteed.
func Get[T Elem](d Device, n int, deps ...Node) (*Buffer[T], error) {
	return buffer.Get[T](d, n, deps...)
}

// Construct erases a typed device pointer into a Raw record.
func Construct[T Elem](p Ptr[T]) Raw {
	return buffer.Construct(p)
}

// Destruct re-establishes the element type of an erased record. Panics on
// an element size or alignment mismatch.
func Destruct[T Elem](r Raw) Ptr[T] {
	return buffer.Destruct[T](r)
}
