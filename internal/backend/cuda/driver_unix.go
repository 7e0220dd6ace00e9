//go:build linux || darwin

package cuda

import (
	"fmt"

	"github.com/ebitengine/purego"
)

func driverNames() []string {
	return []string{"libcuda.so.1", "libcuda.so", "libcuda.dylib"}
}

// loadDriver dlopens the CUDA driver and registers the entry points used by
// this backend. Safe to call repeatedly; the first result is sticky.
func loadDriver() error {
	driverOnce.Do(func() {
		var lib uintptr
		for _, name := range driverNames() {
			lib, driverErr = purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if driverErr == nil {
				break
			}
		}
		if driverErr != nil {
			driverErr = fmt.Errorf("%w: %v", ErrNotAvailable, driverErr)
			return
		}

		purego.RegisterLibFunc(&cuInit, lib, "cuInit")
		purego.RegisterLibFunc(&cuDeviceGetCount, lib, "cuDeviceGetCount")
		purego.RegisterLibFunc(&cuDeviceGet, lib, "cuDeviceGet")
		purego.RegisterLibFunc(&cuDeviceGetName, lib, "cuDeviceGetName")
		purego.RegisterLibFunc(&cuDeviceTotalMem, lib, "cuDeviceTotalMem_v2")
		purego.RegisterLibFunc(&cuCtxCreate, lib, "cuCtxCreate_v2")
		purego.RegisterLibFunc(&cuCtxSetCurrent, lib, "cuCtxSetCurrent")
		purego.RegisterLibFunc(&cuCtxDestroy, lib, "cuCtxDestroy_v2")
		purego.RegisterLibFunc(&cuStreamCreate, lib, "cuStreamCreate")
		purego.RegisterLibFunc(&cuStreamSynchronize, lib, "cuStreamSynchronize")
		purego.RegisterLibFunc(&cuStreamDestroy, lib, "cuStreamDestroy_v2")
		purego.RegisterLibFunc(&cuMemAlloc, lib, "cuMemAlloc_v2")
		purego.RegisterLibFunc(&cuMemFree, lib, "cuMemFree_v2")
		purego.RegisterLibFunc(&cuMemcpyHtoD, lib, "cuMemcpyHtoD_v2")
		purego.RegisterLibFunc(&cuMemcpyDtoH, lib, "cuMemcpyDtoH_v2")
		purego.RegisterLibFunc(&cuMemcpyDtoD, lib, "cuMemcpyDtoD_v2")
		purego.RegisterLibFunc(&cuMemsetD8, lib, "cuMemsetD8_v2")
	})
	return driverErr
}
