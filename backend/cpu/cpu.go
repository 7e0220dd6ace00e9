// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/enzonoe/custos/buffer"
	internalcpu "github.com/enzonoe/custos/internal/backend/cpu"
)

// Device is the host-memory device.
//
// CPU allocations live on the Go heap, are zeroed on allocation, and are
// directly addressable through Buffer.AsSlice.
type Device = internalcpu.Device

// Option configures a Device.
type Option = internalcpu.Option

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option { return internalcpu.WithGraph() }

// Compile-time check that Device implements buffer.Device.
var _ buffer.Device = (*Device)(nil)

// New creates a CPU device with an empty cache.
//
// Example:
//
//	device := cpu.New()
//	defer device.Close()
//
//	buf, _ := buffer.FromSlice(device, []float32{1, 2, 3, 4})
func New(opts ...Option) *Device {
	return internalcpu.New(opts...)
}
