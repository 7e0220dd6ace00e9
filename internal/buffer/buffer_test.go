package buffer_test

import (
	"errors"
	"testing"

	"github.com/enzonoe/custos/internal/backend/cpu"
	"github.com/enzonoe/custos/internal/buffer"
)

func TestNewIsZeroed(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.New[int32](d, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Release()

	if b.Len() != 8 {
		t.Fatalf("Len = %d, want 8", b.Len())
	}
	if b.Flag() != buffer.FlagNone {
		t.Fatalf("Flag = %v, want None", b.Flag())
	}
	for i, v := range b.AsSlice() {
		if v != 0 {
			t.Fatalf("element %d = %d, want 0", i, v)
		}
	}
}

func TestNewZeroLength(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	for _, n := range []int{0, -3} {
		if _, err := buffer.New[float32](d, n); !errors.Is(err, buffer.ErrZeroLengthAlloc) {
			t.Fatalf("New(%d): err = %v, want ErrZeroLengthAlloc", n, err)
		}
	}
}

func TestFromSliceCopies(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	src := []float64{1, 2, 3, 4}
	b, err := buffer.FromSlice(d, src)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	defer b.Release()

	got, err := b.ReadToVec()
	if err != nil {
		t.Fatalf("ReadToVec: %v", err)
	}
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("element %d = %v, want %v", i, got[i], src[i])
		}
	}

	// Mutating the buffer must not touch the source slice.
	b.AsSlice()[0] = 99
	if src[0] != 1 {
		t.Fatalf("source slice mutated through buffer, src[0] = %v", src[0])
	}
}

func TestFromSliceEmpty(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	if _, err := buffer.FromSlice(d, []int32{}); !errors.Is(err, buffer.ErrEmptySlice) {
		t.Fatalf("err = %v, want ErrEmptySlice", err)
	}
}

func TestFromVecAdoptsStorage(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	vec := []int64{10, 20, 30}
	addr := &vec[0]
	b, err := buffer.FromVec(d, vec)
	if err != nil {
		t.Fatalf("FromVec: %v", err)
	}
	defer b.Release()

	s := b.AsSlice()
	if &s[0] != addr {
		t.Fatal("FromVec copied instead of adopting the backing array")
	}
	if b.Flag() != buffer.FlagNone {
		t.Fatalf("Flag = %v, want None", b.Flag())
	}
}

func TestWrapBorrowsStorage(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	data := []uint8{1, 2, 3}
	b, err := buffer.Wrap(d, data)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if b.Flag() != buffer.FlagWrapper {
		t.Fatalf("Flag = %v, want Wrapper", b.Flag())
	}

	b.AsSlice()[1] = 42
	b.Release()

	// Releasing a wrapper never frees the borrowed memory.
	if data[1] != 42 {
		t.Fatalf("data[1] = %d, want 42", data[1])
	}
}

func TestWriteLengthMismatch(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.New[int32](d, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Release()

	if err := b.Write([]int32{1, 2}); !errors.Is(err, buffer.ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
	if err := b.Write([]int32{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := b.AsSlice()[3]; got != 4 {
		t.Fatalf("element 3 = %d, want 4", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.FromSlice(d, []int32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	defer b.Release()

	for pass := 0; pass < 2; pass++ {
		if err := b.Clear(); err != nil {
			t.Fatalf("Clear pass %d: %v", pass, err)
		}
		for i, v := range b.AsSlice() {
			if v != 0 {
				t.Fatalf("pass %d element %d = %d, want 0", pass, i, v)
			}
		}
	}
	if b.Len() != 4 {
		t.Fatalf("Clear changed Len to %d", b.Len())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.FromSlice(d, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	defer b.Release()

	c, err := b.CloneBuf()
	if err != nil {
		t.Fatalf("CloneBuf: %v", err)
	}
	defer c.Release()

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	want := []float32{1, 2, 3, 4}
	for i, v := range b.AsSlice() {
		if v != want[i] {
			t.Fatalf("original element %d = %v after clearing the clone, want %v", i, v, want[i])
		}
	}
	for i, v := range c.AsSlice() {
		if v != 0 {
			t.Fatalf("clone element %d = %v, want 0", i, v)
		}
	}
}

func TestReleaseTwiceIsNoop(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.New[int32](d, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Release()
	b.Release()

	if _, err := b.ReadToVec(); !errors.Is(err, buffer.ErrInvalidHandle) {
		t.Fatalf("ReadToVec after Release: err = %v, want ErrInvalidHandle", err)
	}
}

func TestAsSliceAfterReleasePanics(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.New[int32](d, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("AsSlice on a released buffer did not panic")
		}
	}()
	_ = b.AsSlice()
}
