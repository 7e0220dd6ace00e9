package buffer_test

import (
	"testing"

	"github.com/enzonoe/custos/internal/backend/cpu"
	"github.com/enzonoe/custos/internal/buffer"
)

// produce runs one dependent lookup chain: a feeds b, so a is an interior
// node and b is a leaf.
func produce(t *testing.T, d *cpu.Device) (aNode, bNode buffer.Node) {
	t.Helper()
	a, err := buffer.Get[float32](d, 8)
	if err != nil {
		t.Fatalf("Get a: %v", err)
	}
	aNode, _ = a.CacheNode()
	b, err := buffer.Get[float32](d, 8, aNode)
	if err != nil {
		t.Fatalf("Get b: %v", err)
	}
	bNode, _ = b.CacheNode()
	a.Release()
	b.Release()
	return aNode, bNode
}

func TestOptimizeCacheEvictsLeaves(t *testing.T) {
	d := cpu.New(cpu.WithGraph())
	defer d.Close()

	aNode, bNode := produce(t, d)
	if d.Graph().IsLeaf(aNode.Idx) {
		t.Fatal("consumed node classified as leaf")
	}
	if !d.Graph().IsLeaf(bNode.Idx) {
		t.Fatal("terminal node not classified as leaf")
	}

	freed, err := d.OptimizeCache()
	if err != nil {
		t.Fatalf("OptimizeCache: %v", err)
	}
	if freed != 1 {
		t.Fatalf("freed %d slots, want 1", freed)
	}
	if d.Cache().Len() != 1 {
		t.Fatalf("cache holds %d slots after eviction, want 1", d.Cache().Len())
	}
}

func TestOptimizeCacheSkipsLiveBuffers(t *testing.T) {
	d := cpu.New(cpu.WithGraph())
	defer d.Close()

	a, err := buffer.Get[float32](d, 8)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer a.Release()

	// a is a leaf but still referenced, so it must survive.
	freed, err := d.OptimizeCache()
	if err != nil {
		t.Fatalf("OptimizeCache: %v", err)
	}
	if freed != 0 {
		t.Fatalf("freed %d slots while a buffer was live, want 0", freed)
	}

	if got := a.AsSlice(); len(got) != 8 {
		t.Fatalf("live buffer length %d after OptimizeCache, want 8", len(got))
	}
}

func TestOptimizeCacheWithoutGraph(t *testing.T) {
	d := cpu.New()
	defer d.Close()

	b, err := buffer.Get[int32](d, 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b.Release()

	freed, err := d.OptimizeCache()
	if err != nil {
		t.Fatalf("OptimizeCache: %v", err)
	}
	if freed != 0 {
		t.Fatalf("freed %d slots without a graph, want 0", freed)
	}
	if d.Cache().Len() != 1 {
		t.Fatalf("cache holds %d slots, want 1", d.Cache().Len())
	}
}

// Eviction only changes which slots stay allocated; replayed results match
// with and without a graph.
func TestEvictionDoesNotChangeResults(t *testing.T) {
	run := func(d *cpu.Device, optimize bool) []float32 {
		var out []float32
		d.Cache().Replay(2, func(pass int) {
			a, err := buffer.Get[float32](d, 4)
			if err != nil {
				t.Fatalf("Get a: %v", err)
			}
			for i := range a.AsSlice() {
				a.AsSlice()[i] = float32(i + pass)
			}
			aNode, _ := a.CacheNode()
			b, err := buffer.Get[float32](d, 4, aNode)
			if err != nil {
				t.Fatalf("Get b: %v", err)
			}
			for i, v := range a.AsSlice() {
				b.AsSlice()[i] = v * 2
			}
			out, err = b.ReadToVec()
			if err != nil {
				t.Fatalf("ReadToVec: %v", err)
			}
			a.Release()
			b.Release()
			if optimize {
				if _, err := d.OptimizeCache(); err != nil {
					t.Fatalf("OptimizeCache: %v", err)
				}
			}
		})
		return out
	}

	plain := cpu.New()
	defer plain.Close()
	tracked := cpu.New(cpu.WithGraph())
	defer tracked.Close()

	want := run(plain, false)
	got := run(tracked, true)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d = %v with eviction, %v without", i, got[i], want[i])
		}
	}
}
