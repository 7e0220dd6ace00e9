package buffer_test

import (
	"testing"

	"github.com/enzonoe/custos/internal/backend/cpu"
	"github.com/enzonoe/custos/internal/buffer"
)

func TestGetReplayReusesStorage(t *testing.T) {
	d := cpu.New()
	defer d.Close()
	c := d.Cache()

	var addr *float32
	c.Replay(3, func(pass int) {
		b, err := buffer.Get[float32](d, 16)
		if err != nil {
			t.Fatalf("pass %d: Get: %v", pass, err)
		}
		s := b.AsSlice()
		if pass == 0 {
			addr = &s[0]
		} else if &s[0] != addr {
			t.Fatalf("pass %d allocated fresh storage instead of reusing the slot", pass)
		}
		b.Release()
	})

	if c.Len() != 1 {
		t.Fatalf("cache holds %d slots after replay, want 1", c.Len())
	}
}

func TestGetLengthChangeIsMiss(t *testing.T) {
	d := cpu.New()
	defer d.Close()
	c := d.Cache()

	a, err := buffer.Get[int32](d, 8)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	first := &a.AsSlice()[0]
	a.Release()

	// Same call-site index, different length: a distinct node.
	c.ResetCount()
	b, err := buffer.Get[int32](d, 16)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer b.Release()

	if &b.AsSlice()[0] == first {
		t.Fatal("length change reused the previous slot")
	}
	if c.Len() != 2 {
		t.Fatalf("cache holds %d slots, want 2", c.Len())
	}
}

func TestGetDistinctCallSites(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	a, err := buffer.Get[float64](d, 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer a.Release()
	b, err := buffer.Get[float64](d, 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer b.Release()

	if &a.AsSlice()[0] == &b.AsSlice()[0] {
		t.Fatal("two lookups in one pass aliased the same slot")
	}

	na, _ := a.CacheNode()
	nb, _ := b.CacheNode()
	if na.Idx == nb.Idx {
		t.Fatalf("both buffers map to node index %d", na.Idx)
	}
}

func TestGetBufferIsCacheFlagged(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.Get[int32](d, 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer b.Release()

	if b.Flag() != buffer.FlagCache {
		t.Fatalf("Flag = %v, want Cache", b.Flag())
	}
	if _, ok := b.CacheNode(); !ok {
		t.Fatal("cache-backed buffer reports no cache node")
	}
}

func TestCacheClear(t *testing.T) {
	d := cpu.New()
	defer d.Close()
	c := d.Cache()

	b, err := buffer.Get[int32](d, 8)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b.Release()

	if err := c.Clear(d); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("cache holds %d slots after Clear, want 0", c.Len())
	}
	if c.Count() != 0 {
		t.Fatalf("call-site counter = %d after Clear, want 0", c.Count())
	}

	// Cleared slots are gone for good; the next lookup allocates fresh.
	nb, err := buffer.Get[int32](d, 8)
	if err != nil {
		t.Fatalf("Get after Clear: %v", err)
	}
	defer nb.Release()
	if c.Len() != 1 {
		t.Fatalf("cache holds %d slots, want 1", c.Len())
	}
}

func TestReleaseKeepsSlotCached(t *testing.T) {
	d := cpu.New()
	defer d.Close()
	c := d.Cache()

	b, err := buffer.Get[float32](d, 8)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b.AsSlice()[0] = 7
	b.Release()

	// Release drops the view, not the allocation.
	if c.Len() != 1 {
		t.Fatalf("cache holds %d slots after Release, want 1", c.Len())
	}

	c.ResetCount()
	r, err := buffer.Get[float32](d, 8)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer r.Release()
	if got := r.AsSlice()[0]; got != 7 {
		t.Fatalf("reused slot lost its contents, element 0 = %v", got)
	}
}

func TestCountAdvancesPerGet(t *testing.T) {
	d := cpu.New()
	defer d.Close()
	c := d.Cache()

	for i := 0; i < 3; i++ {
		b, err := buffer.Get[int32](d, 2)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		b.Release()
	}
	if c.Count() != 3 {
		t.Fatalf("counter = %d after three lookups, want 3", c.Count())
	}
	c.ResetCount()
	if c.Count() != 0 {
		t.Fatalf("counter = %d after ResetCount, want 0", c.Count())
	}
}
