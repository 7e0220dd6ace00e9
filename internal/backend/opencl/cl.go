// Package opencl implements the OpenCL backend. The OpenCL runtime is
// loaded at runtime via purego (no cgo); on machines without an OpenCL
// implementation every constructor fails with ErrNotAvailable.
package opencl

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrNotAvailable is returned when no OpenCL runtime library can be loaded.
var ErrNotAvailable = errors.New("opencl: runtime not available (is an OpenCL ICD installed?)")

// clError is an OpenCL status code (cl_int).
type clError int32

const clSuccess clError = 0

func (e clError) Error() string {
	names := map[clError]string{
		-1:  "CL_DEVICE_NOT_FOUND",
		-2:  "CL_DEVICE_NOT_AVAILABLE",
		-4:  "CL_MEM_OBJECT_ALLOCATION_FAILURE",
		-5:  "CL_OUT_OF_RESOURCES",
		-6:  "CL_OUT_OF_HOST_MEMORY",
		-30: "CL_INVALID_VALUE",
		-34: "CL_INVALID_CONTEXT",
		-36: "CL_INVALID_COMMAND_QUEUE",
		-38: "CL_INVALID_MEM_OBJECT",
	}
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("CL_ERROR(%d)", int32(e))
}

// cl_device_type and cl_mem_flags bits, cl_bool, and the device info
// queries this backend uses.
const (
	deviceTypeGPU uint64 = 1 << 2
	deviceTypeAll uint64 = 0xFFFFFFFF

	memReadWrite   uint64 = 1 << 0
	memCopyHostPtr uint64 = 1 << 5

	clTrue uint32 = 1

	infoDeviceName          uint32 = 0x102B
	infoDeviceVersion       uint32 = 0x102F
	infoGlobalMemSize       uint32 = 0x101F
	infoMaxMemAllocSize     uint32 = 0x1010
	infoHostUnifiedMemory   uint32 = 0x1035
)

// Runtime entry points, registered by loadRuntime.
var (
	runtimeOnce sync.Once
	runtimeErr  error

	clGetPlatformIDs func(numEntries uint32, platforms *uintptr, numPlatforms *uint32) clError
	clGetDeviceIDs   func(platform uintptr, deviceType uint64, numEntries uint32, devices *uintptr, numDevices *uint32) clError
	clGetDeviceInfo  func(device uintptr, param uint32, size uint64, value unsafe.Pointer, sizeRet *uint64) clError

	clCreateContext      func(properties uintptr, numDevices uint32, devices *uintptr, notify uintptr, userData uintptr, errRet *clError) uintptr
	clCreateCommandQueue func(context uintptr, device uintptr, properties uint64, errRet *clError) uintptr
	clCreateBuffer       func(context uintptr, flags uint64, size uint64, hostPtr unsafe.Pointer, errRet *clError) uintptr

	clEnqueueReadBuffer  func(queue uintptr, mem uintptr, blocking uint32, offset uint64, size uint64, ptr unsafe.Pointer, numEvents uint32, events uintptr, event uintptr) clError
	clEnqueueWriteBuffer func(queue uintptr, mem uintptr, blocking uint32, offset uint64, size uint64, ptr unsafe.Pointer, numEvents uint32, events uintptr, event uintptr) clError
	clEnqueueCopyBuffer  func(queue uintptr, src uintptr, dst uintptr, srcOffset uint64, dstOffset uint64, size uint64, numEvents uint32, events uintptr, event uintptr) clError
	clFinish             func(queue uintptr) clError

	clReleaseMemObject    func(mem uintptr) clError
	clReleaseCommandQueue func(queue uintptr) clError
	clReleaseContext      func(context uintptr) clError
)

func checkCL(e clError, op string) error {
	if e != clSuccess {
		return fmt.Errorf("opencl: %s: %s", op, e.Error())
	}
	return nil
}

// IsAvailable reports whether an OpenCL runtime could be loaded.
func IsAvailable() bool {
	return loadRuntime() == nil
}
