//go:build linux || darwin

package opencl

import (
	"fmt"

	"github.com/ebitengine/purego"
)

func runtimeNames() []string {
	return []string{
		"libOpenCL.so.1",
		"libOpenCL.so",
		"/System/Library/Frameworks/OpenCL.framework/OpenCL",
	}
}

// loadRuntime dlopens the OpenCL runtime and registers the entry points
// used by this backend. Safe to call repeatedly; the first result is sticky.
func loadRuntime() error {
	runtimeOnce.Do(func() {
		var lib uintptr
		for _, name := range runtimeNames() {
			lib, runtimeErr = purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if runtimeErr == nil {
				break
			}
		}
		if runtimeErr != nil {
			runtimeErr = fmt.Errorf("%w: %v", ErrNotAvailable, runtimeErr)
			return
		}

		purego.RegisterLibFunc(&clGetPlatformIDs, lib, "clGetPlatformIDs")
		purego.RegisterLibFunc(&clGetDeviceIDs, lib, "clGetDeviceIDs")
		purego.RegisterLibFunc(&clGetDeviceInfo, lib, "clGetDeviceInfo")
		purego.RegisterLibFunc(&clCreateContext, lib, "clCreateContext")
		purego.RegisterLibFunc(&clCreateCommandQueue, lib, "clCreateCommandQueue")
		purego.RegisterLibFunc(&clCreateBuffer, lib, "clCreateBuffer")
		purego.RegisterLibFunc(&clEnqueueReadBuffer, lib, "clEnqueueReadBuffer")
		purego.RegisterLibFunc(&clEnqueueWriteBuffer, lib, "clEnqueueWriteBuffer")
		purego.RegisterLibFunc(&clEnqueueCopyBuffer, lib, "clEnqueueCopyBuffer")
		purego.RegisterLibFunc(&clFinish, lib, "clFinish")
		purego.RegisterLibFunc(&clReleaseMemObject, lib, "clReleaseMemObject")
		purego.RegisterLibFunc(&clReleaseCommandQueue, lib, "clReleaseCommandQueue")
		purego.RegisterLibFunc(&clReleaseContext, lib, "clReleaseContext")
	})
	return runtimeErr
}
