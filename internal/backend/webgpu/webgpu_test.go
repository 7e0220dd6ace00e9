package webgpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enzonoe/custos/internal/backend/webgpu"
	"github.com/enzonoe/custos/internal/buffer"
)

func newDevice(t *testing.T) *webgpu.Device {
	t.Helper()
	if !webgpu.IsAvailable() {
		t.Skip("WebGPU not available")
	}
	d, err := webgpu.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewWhenUnavailable(t *testing.T) {
	if webgpu.IsAvailable() {
		t.Skip("WebGPU present")
	}
	_, err := webgpu.New()
	assert.ErrorIs(t, err, webgpu.ErrNotAvailable)
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

func TestDeviceClone(t *testing.T) {
	d := newDevice(t)

	b, err := buffer.FromSlice(d, []float32{4, 5, 6})
	require.NoError(t, err)
	defer b.Release()

	c, err := b.CloneBuf()
	require.NoError(t, err)
	defer c.Release()

	require.NoError(t, c.Clear())
	got, err := b.ReadToVec()
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6}, got)
}
