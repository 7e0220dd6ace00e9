package webgpu

import "errors"

// ErrNotAvailable is returned when no WebGPU device can be created on this
// platform.
var ErrNotAvailable = errors.New("webgpu: not available on this platform")
