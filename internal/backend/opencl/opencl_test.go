package opencl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enzonoe/custos/internal/backend/opencl"
	"github.com/enzonoe/custos/internal/buffer"
)

func newDevice(t *testing.T) *opencl.Device {
	t.Helper()
	if !opencl.IsAvailable() {
		t.Skip("OpenCL runtime not available")
	}
	d, err := opencl.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDevicesEnumeration(t *testing.T) {
	if !opencl.IsAvailable() {
		t.Skip("OpenCL runtime not available")
	}
	infos, err := opencl.Devices()
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
		assert.Positive(t, info.GlobalMemGB)
	}
}

func TestDeviceRoundTrip(t *testing.T) {
	d := newDevice(t)

	b, err := buffer.FromSlice(d, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	defer b.Release()

	got, err := b.ReadToVec()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, got)
}

func TestDeviceWrite(t *testing.T) {
	d := newDevice(t)

	b, err := buffer.New[int32](d, 3)
	require.NoError(t, err)
	defer b.Release()

	require.NoError(t, b.Write([]int32{7, 8, 9}))
	got, err := b.ReadToVec()
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8, 9}, got)
}

func TestDeviceCacheReplay(t *testing.T) {
	d := newDevice(t)
	c := d.Cache()

	c.Replay(2, func(pass int) {
		b, err := buffer.Get[float32](d, 32)
		require.NoError(t, err)
		b.Release()
	})
	assert.Equal(t, 1, c.Len())
}
