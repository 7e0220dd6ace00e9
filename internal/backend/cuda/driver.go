// Package cuda implements the CUDA backend on top of the CUDA Driver API.
// The driver library is loaded at runtime via purego (no cgo), so the
// package builds everywhere and fails with ErrNotAvailable on machines
// without an NVIDIA driver.
package cuda

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrNotAvailable is returned when the CUDA driver library cannot be loaded.
var ErrNotAvailable = errors.New("cuda: driver not available (is the NVIDIA driver installed?)")

// result is a CUresult error code.
type result int32

const (
	success             result = 0
	errInvalidValue     result = 1
	errOutOfMemory      result = 2
	errNotInitialized   result = 3
	errNoDevice         result = 100
	errInvalidContext   result = 201
	errInvalidHandleRes result = 400
)

func (r result) Error() string {
	names := map[result]string{
		errInvalidValue:     "INVALID_VALUE",
		errOutOfMemory:      "OUT_OF_MEMORY",
		errNotInitialized:   "NOT_INITIALIZED",
		errNoDevice:         "NO_DEVICE",
		errInvalidContext:   "INVALID_CONTEXT",
		errInvalidHandleRes: "INVALID_HANDLE",
	}
	if name, ok := names[r]; ok {
		return fmt.Sprintf("CUDA_ERROR_%s (%d)", name, int32(r))
	}
	return fmt.Sprintf("CUDA_ERROR(%d)", int32(r))
}

// Driver entry points, registered by loadDriver.
var (
	driverOnce sync.Once
	driverErr  error

	cuInit           func(flags uint32) result
	cuDeviceGetCount func(count *int32) result
	cuDeviceGet      func(device *int32, ordinal int32) result
	cuDeviceGetName  func(name *byte, len int32, dev int32) result
	cuDeviceTotalMem func(bytes *uint64, dev int32) result

	cuCtxCreate     func(pctx *uintptr, flags uint32, dev int32) result
	cuCtxSetCurrent func(ctx uintptr) result
	cuCtxDestroy    func(ctx uintptr) result

	cuStreamCreate      func(phStream *uintptr, flags uint32) result
	cuStreamSynchronize func(hStream uintptr) result
	cuStreamDestroy     func(hStream uintptr) result

	cuMemAlloc   func(dptr *uintptr, bytesize uint64) result
	cuMemFree    func(dptr uintptr) result
	cuMemcpyHtoD func(dstDevice uintptr, srcHost unsafe.Pointer, byteCount uint64) result
	cuMemcpyDtoH func(dstHost unsafe.Pointer, srcDevice uintptr, byteCount uint64) result
	cuMemcpyDtoD func(dstDevice uintptr, srcDevice uintptr, byteCount uint64) result
	cuMemsetD8   func(dstDevice uintptr, uc byte, n uint64) result
)

func check(r result, op string) error {
	if r != success {
		return fmt.Errorf("cuda: %s: %s", op, r.Error())
	}
	return nil
}

// IsAvailable reports whether the CUDA driver could be loaded.
func IsAvailable() bool {
	return loadDriver() == nil
}

// DeviceCount returns the number of CUDA-capable devices, or 0 when the
// driver is unavailable.
func DeviceCount() int {
	if loadDriver() != nil {
		return 0
	}
	if cuInit(0) != success {
		return 0
	}
	var n int32
	if cuDeviceGetCount(&n) != success {
		return 0
	}
	return int(n)
}
