// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides elementary numeric kernels on buffers. The kernels
// themselves are plain loops; what they demonstrate is the consumer
// contract of the buffer layer: output storage comes from the device's
// allocation cache, so replayed computations (the same loop body across
// iterations) reuse storage instead of allocating every pass.
package ops

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/enzonoe/custos/buffer"
)

// Cached returns scratch/output storage of n elements from d's allocation
// cache. This is the standard way for kernel implementations to obtain
// output buffers.
func Cached[T buffer.Elem](d buffer.Device, n int, deps ...buffer.Node) (*buffer.Buffer[T], error) {
	return buffer.Get[T](d, n, deps...)
}

// binary applies fn element-wise into a cache-backed output buffer.
func binary[T buffer.Elem](d buffer.Device, a, b *buffer.Buffer[T], fn func(x, y T) T) (*buffer.Buffer[T], error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("ops: length mismatch: %d vs %d", a.Len(), b.Len())
	}
	out, err := Cached[T](d, a.Len(), depNodes(a, b)...)
	if err != nil {
		return nil, err
	}

	if _, ok := d.(buffer.HostMemory); ok {
		as, bs, os := a.AsSlice(), b.AsSlice(), out.AsSlice()
		for i := range os {
			os[i] = fn(as[i], bs[i])
		}
		return out, nil
	}

	// Discrete device: round-trip through the host. Real kernels belong in
	// the backend; this layer only fixes where the output storage comes from.
	as, err := a.ReadToVec()
	if err != nil {
		return nil, err
	}
	bs, err := b.ReadToVec()
	if err != nil {
		return nil, err
	}
	os := make([]T, len(as))
	for i := range os {
		os[i] = fn(as[i], bs[i])
	}
	if err := out.Write(os); err != nil {
		return nil, err
	}
	return out, nil
}

func depNodes[T buffer.Elem](bufs ...*buffer.Buffer[T]) []buffer.Node {
	var deps []buffer.Node
	for _, b := range bufs {
		if node, ok := b.CacheNode(); ok {
			deps = append(deps, node)
		}
	}
	return deps
}

// Add returns a + b element-wise.
func Add[T buffer.Elem](d buffer.Device, a, b *buffer.Buffer[T]) (*buffer.Buffer[T], error) {
	return binary(d, a, b, func(x, y T) T { return x + y })
}

// Sub returns a - b element-wise.
func Sub[T buffer.Elem](d buffer.Device, a, b *buffer.Buffer[T]) (*buffer.Buffer[T], error) {
	return binary(d, a, b, func(x, y T) T { return x - y })
}

// Mul returns a * b element-wise.
func Mul[T buffer.Elem](d buffer.Device, a, b *buffer.Buffer[T]) (*buffer.Buffer[T], error) {
	return binary(d, a, b, func(x, y T) T { return x * y })
}

// Gemm computes the m×n matrix product of a (m×k, row major) and b (k×n,
// row major) into a cache-backed output buffer.
func Gemm[T constraints.Float](d buffer.Device, a, b *buffer.Buffer[T], m, k, n int) (*buffer.Buffer[T], error) {
	if a.Len() != m*k || b.Len() != k*n {
		return nil, fmt.Errorf("ops: gemm shape mismatch: a=%d want %d, b=%d want %d", a.Len(), m*k, b.Len(), k*n)
	}
	out, err := Cached[T](d, m*n, depNodes(a, b)...)
	if err != nil {
		return nil, err
	}

	var as, bs []T
	if _, ok := d.(buffer.HostMemory); ok {
		as, bs = a.AsSlice(), b.AsSlice()
	} else {
		if as, err = a.ReadToVec(); err != nil {
			return nil, err
		}
		if bs, err = b.ReadToVec(); err != nil {
			return nil, err
		}
	}

	os := make([]T, m*n)
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			av := as[i*k+l]
			if av == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				os[i*n+j] += av * bs[l*n+j]
			}
		}
	}
	if err := out.Write(os); err != nil {
		return nil, err
	}
	return out, nil
}
