// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for the custos buffer layer,
// built on go-webgpu's zero-cgo bindings.
//
// WebGPU memory is not host addressable: use Buffer.ReadToVec and
// Buffer.Write for transfers (staging-buffer copies under the hood).
// On platforms where the binding is unsupported, New fails with
// ErrNotAvailable.
//
// Example:
//
//	device, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer device.Close()
//
//	buf, _ := buffer.FromSlice(device, []float32{1, 2, 3, 4})
//	data, _ := buf.ReadToVec()
package webgpu

import (
	"github.com/enzonoe/custos/buffer"
	internalwgpu "github.com/enzonoe/custos/internal/backend/webgpu"
)

// Device owns a WebGPU instance, adapter, device and queue plus the
// allocation cache.
type Device = internalwgpu.Device

// Option configures a Device.
type Option = internalwgpu.Option

// ErrNotAvailable is returned when no WebGPU device can be created on this
// platform.
var ErrNotAvailable = internalwgpu.ErrNotAvailable

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option { return internalwgpu.WithGraph() }

// Compile-time check that Device implements buffer.Device.
var _ buffer.Device = (*Device)(nil)

// New requests a high-performance adapter and device.
func New(opts ...Option) (*Device, error) {
	return internalwgpu.New(opts...)
}

// IsAvailable reports whether a WebGPU device can be created.
func IsAvailable() bool { return internalwgpu.IsAvailable() }
