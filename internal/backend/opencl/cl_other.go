//go:build !(linux || darwin)

package opencl

// loadRuntime always fails on platforms without dlopen support.
func loadRuntime() error {
	runtimeOnce.Do(func() {
		runtimeErr = ErrNotAvailable
	})
	return runtimeErr
}
