//go:build !(linux || darwin)

package cuda

// loadDriver always fails on platforms without dlopen support.
func loadDriver() error {
	driverOnce.Do(func() {
		driverErr = ErrNotAvailable
	})
	return driverErr
}
