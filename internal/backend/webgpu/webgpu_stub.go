//go:build !windows

// Package webgpu implements the WebGPU backend on top of go-webgpu's
// zero-cgo bindings. This is the stub for platforms where the binding is
// not supported; every constructor fails with ErrNotAvailable.
package webgpu

import (
	"github.com/enzonoe/custos/internal/buffer"
)

// Block is the WebGPU handle (stub).
type Block struct{}

// Valid always reports false on the stub.
func (b *Block) Valid() bool { return false }

// Bytes returns 0 on the stub.
func (b *Block) Bytes() int { return 0 }

// Device is the WebGPU device (stub).
type Device struct{}

// Option configures a Device.
type Option func(*Device)

// WithGraph is accepted for API compatibility.
func WithGraph() Option { return func(*Device) {} }

// New fails with ErrNotAvailable.
func New(...Option) (*Device, error) { return nil, ErrNotAvailable }

// IsAvailable reports false.
func IsAvailable() bool { return false }

// Name returns "WebGPU".
func (d *Device) Name() string { return "WebGPU" }

// Cache returns nil on the stub.
func (d *Device) Cache() *buffer.Cache { return nil }

// Graph returns nil on the stub.
func (d *Device) Graph() *buffer.Graph { return nil }

// AllocBytes fails with ErrNotAvailable.
func (d *Device) AllocBytes(int) (buffer.Handle, error) { return nil, ErrNotAvailable }

// FreeHandle fails with ErrNotAvailable.
func (d *Device) FreeHandle(buffer.Handle) error { return ErrNotAvailable }

// WriteBytes fails with ErrNotAvailable.
func (d *Device) WriteBytes(buffer.Handle, []byte) error { return ErrNotAvailable }

// ReadBytes fails with ErrNotAvailable.
func (d *Device) ReadBytes(buffer.Handle, []byte) error { return ErrNotAvailable }

// OptimizeCache is a no-op on the stub.
func (d *Device) OptimizeCache() (int, error) { return 0, nil }

// Close is a no-op on the stub.
func (d *Device) Close() error { return nil }

// Interface conformance.
var (
	_ buffer.Device      = (*Device)(nil)
	_ buffer.GraphReturn = (*Device)(nil)
)
