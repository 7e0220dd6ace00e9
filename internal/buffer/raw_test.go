package buffer_test

import (
	"testing"

	"github.com/enzonoe/custos/internal/backend/cpu"
	"github.com/enzonoe/custos/internal/buffer"
)

func TestConstructDestructRoundTrip(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	p, err := buffer.AllocPtr[float32](d, 6, buffer.FlagCache)
	if err != nil {
		t.Fatalf("AllocPtr: %v", err)
	}
	defer func() { _ = d.FreeHandle(p.Handle()) }()

	r := buffer.Construct(p)
	if r.Len() != 6 {
		t.Fatalf("Raw.Len = %d, want 6", r.Len())
	}
	if r.Flag() != buffer.FlagCache {
		t.Fatalf("Raw.Flag = %v, want Cache", r.Flag())
	}

	q := buffer.Destruct[float32](r)
	if q.Handle() != p.Handle() {
		t.Fatal("Destruct returned a different handle")
	}
	if q.Len() != p.Len() || q.Flag() != p.Flag() {
		t.Fatalf("Destruct(Construct(p)) = len %d flag %v, want len %d flag %v",
			q.Len(), q.Flag(), p.Len(), p.Flag())
	}
}

// Re-typing with a matching layout is allowed; int32 and uint32 share size
// and alignment, so the erased record accepts both.
func TestDestructSameLayout(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	p, err := buffer.AllocPtr[int32](d, 3, buffer.FlagNone)
	if err != nil {
		t.Fatalf("AllocPtr: %v", err)
	}
	defer func() { _ = d.FreeHandle(p.Handle()) }()

	q := buffer.Destruct[uint32](buffer.Construct(p))
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
}

func TestDestructLayoutMismatchPanics(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	p, err := buffer.AllocPtr[int32](d, 4, buffer.FlagNone)
	if err != nil {
		t.Fatalf("AllocPtr: %v", err)
	}
	defer func() { _ = d.FreeHandle(p.Handle()) }()
	r := buffer.Construct(p)

	defer func() {
		if recover() == nil {
			t.Fatal("Destruct with a mismatched element layout did not panic")
		}
	}()
	_ = buffer.Destruct[int64](r)
}
