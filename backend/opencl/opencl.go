// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package opencl provides the OpenCL backend for the custos buffer layer.
//
// The OpenCL runtime is loaded at runtime via purego, so this package
// builds without OpenCL headers; on machines without an ICD, New fails
// with ErrNotAvailable.
//
// OpenCL memory objects are not host addressable here: use Buffer.ReadToVec
// and Buffer.Write for transfers (blocking enqueue calls on the device's
// command queue). Close clears the allocation cache before releasing the
// queue and the context.
//
// Example:
//
//	infos, _ := opencl.Devices()
//	for _, info := range infos {
//	    fmt.Printf("%d: %s (%.1f GB)\n", info.Index, info.Name, info.GlobalMemGB)
//	}
//
//	device, err := opencl.New(opencl.WithIndex(0))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer device.Close()
package opencl

import (
	"github.com/enzonoe/custos/buffer"
	internalcl "github.com/enzonoe/custos/internal/backend/opencl"
)

// Device owns an OpenCL context and command queue plus the allocation
// cache for one device.
type Device = internalcl.Device

// Info describes one enumerated OpenCL device.
type Info = internalcl.Info

// Option configures a Device.
type Option = internalcl.Option

// ErrNotAvailable is returned when no OpenCL runtime can be loaded.
var ErrNotAvailable = internalcl.ErrNotAvailable

// WithIndex selects the device position in Devices order (default 0).
func WithIndex(idx int) Option { return internalcl.WithIndex(idx) }

// WithGraph enables cache-node dependency tracking for leaf eviction.
func WithGraph() Option { return internalcl.WithGraph() }

// Compile-time check that Device implements buffer.Device.
var _ buffer.Device = (*Device)(nil)

// New creates a context and command queue on the selected device.
func New(opts ...Option) (*Device, error) {
	return internalcl.New(opts...)
}

// Devices enumerates the available OpenCL devices.
func Devices() ([]Info, error) { return internalcl.Devices() }

// IsAvailable reports whether an OpenCL runtime could be loaded.
func IsAvailable() bool { return internalcl.IsAvailable() }
