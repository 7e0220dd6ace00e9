// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cuda provides the CUDA backend for the custos buffer layer.
//
// The CUDA Driver API is loaded at runtime via purego, so this package
// builds without the CUDA toolkit; on machines without an NVIDIA driver,
// New fails with ErrNotAvailable.
//
// CUDA memory is not host addressable: use Buffer.ReadToVec and
// Buffer.Write for transfers. Device teardown order matters: Close clears
// the allocation cache before destroying the stream and context.
//
// Example:
//
//	device, err := cuda.New(cuda.WithIndex(0))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer device.Close()
//
//	buf, _ := buffer.New[float32](device, 1024)
//	defer buf.Release()
package cuda

import (
	"github.com/enzonoe/custos/buffer"
	internalcuda "github.com/enzonoe/custos/internal/backend/cuda"
)

// Device owns a CUDA context and stream plus the allocation cache for one
// GPU.
type Device = internalcuda.Device

// Option configures a Device.
type Option = internalcuda.Option

// ErrNotAvailable is returned when the CUDA driver cannot be loaded.
var ErrNotAvailable = internalcuda.ErrNotAvailable

// WithIndex selects the CUDA device ordinal (default 0).
func WithIndex(idx int) Option { return internalcuda.WithIndex(idx) }

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option { return internalcuda.WithGraph() }

// Compile-time check that Device implements buffer.Device.
var _ buffer.Device = (*Device)(nil)

// New initializes the driver and creates a context and stream on the
// selected device.
func New(opts ...Option) (*Device, error) {
	return internalcuda.New(opts...)
}

// IsAvailable reports whether the CUDA driver could be loaded.
func IsAvailable() bool { return internalcuda.IsAvailable() }

// DeviceCount returns the number of CUDA-capable devices.
func DeviceCount() int { return internalcuda.DeviceCount() }
