package buffer

import (
	"k8s.io/klog/v2"
)

// Node identifies one cache slot. Idx is the call-site index: a per-device
// counter incremented once per Get. Replaying the same sequence of lookups
// (after ResetCount) reproduces the same indices, so the Kth lookup of every
// pass maps onto the same node as long as the requested length is unchanged.
// Equality requires both fields to match exactly; a length change at the
// same index is a miss, never a reuse.
type Node struct {
	Idx int
	Len int
}

// Cache is a per-device table from Node to an erased allocation record,
// with get-or-allocate semantics. It is the arena owning every FlagCache
// allocation; Buffers returned by Get are views into it.
//
// A Cache is bound to a single goroutine of control together with its
// device. There is deliberately no locking on the lookup path; concurrent
// use requires one device (and therefore one cache) per goroutine.
type Cache struct {
	nodes map[Node]Raw
	live  map[Node]int
	count int
}

// NewCache returns an empty cache. Backend device constructors call this.
func NewCache() *Cache {
	return &Cache{
		nodes: make(map[Node]Raw),
		live:  make(map[Node]int),
	}
}

// Count returns the current call-site counter.
func (c *Cache) Count() int { return c.count }

// Len returns the number of cached slots.
func (c *Cache) Len() int { return len(c.nodes) }

// ResetCount rewinds the call-site counter to zero, so the next pass over
// the same operation sequence hits the nodes of the previous pass.
func (c *Cache) ResetCount() { c.count = 0 }

// Replay runs fn n times, resetting the call-site counter before each pass.
// This is the loop form under which cache reuse is guaranteed: the Kth Get
// of every pass aliases the same backing memory, provided the sequence of
// lookups and lengths inside fn is deterministic.
func (c *Cache) Replay(n int, fn func(pass int)) {
	for i := 0; i < n; i++ {
		c.ResetCount()
		fn(i)
	}
}

// next derives the node for the current lookup and advances the counter.
func (c *Cache) next(n int) Node {
	node := Node{Idx: c.count, Len: n}
	c.count++
	return node
}

// release drops one outstanding buffer reference for node. Called by
// Buffer.Release for FlagCache buffers; the allocation itself stays in the
// table.
func (c *Cache) release(node Node) {
	if c.live[node] > 0 {
		c.live[node]--
	}
}

// Get returns a buffer of n elements for the current call-site node,
// reusing the node's previous allocation when one exists. On a hit no
// allocation occurs and the buffer aliases the stored slot; on a miss the
// device allocates a fresh FlagCache block which is recorded under the
// node. deps are the nodes of the operation's inputs, recorded in the
// device's graph (when it keeps one) for the leaf-eviction optimization.
func Get[T Elem](d Device, n int, deps ...Node) (*Buffer[T], error) {
	c := d.Cache()
	node := c.next(n)

	if r, ok := c.nodes[node]; ok {
		p := Destruct[T](r)
		c.live[node]++
		klog.V(2).Infof("cache: hit %s node=%d len=%d", d.Name(), node.Idx, node.Len)
		return &Buffer[T]{ptr: p, device: d, node: node}, nil
	}

	p, err := AllocPtr[T](d, n, FlagCache)
	if err != nil {
		return nil, err
	}
	c.nodes[node] = Construct(p)
	c.live[node]++
	if gr, ok := d.(GraphReturn); ok && gr.Graph() != nil {
		gr.Graph().add(node, deps...)
	}
	klog.V(2).Infof("cache: miss %s node=%d len=%d", d.Name(), node.Idx, node.Len)
	return &Buffer[T]{ptr: p, device: d, node: node}, nil
}

// Clear releases every stored record's backing memory through a and empties
// the table. It must run while no FlagCache buffer is in use, and before
// the owning device tears down its driver-level context/stream/queue.
// The first free error is returned, but the sweep always completes so a
// failing driver cannot strand the remaining entries in the table.
func (c *Cache) Clear(a Allocator) error {
	var firstErr error
	for node, r := range c.nodes {
		if err := a.FreeHandle(r.handle); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.nodes, node)
		delete(c.live, node)
	}
	c.count = 0
	return firstErr
}

// EvictLeaves frees the slots of graph-leaf nodes that no outstanding
// buffer references, and removes them from the table. It is purely a
// peak-memory optimization: a subsequent Get for an evicted node simply
// allocates again. Slots with live references are never touched.
func (c *Cache) EvictLeaves(a Allocator, g *Graph) (int, error) {
	if g == nil {
		return 0, nil
	}
	freed := 0
	for node, r := range c.nodes {
		if !g.IsLeaf(node.Idx) || c.live[node] > 0 {
			continue
		}
		if err := a.FreeHandle(r.handle); err != nil {
			return freed, err
		}
		delete(c.nodes, node)
		delete(c.live, node)
		freed++
	}
	if freed > 0 {
		klog.V(1).Infof("cache: evicted %d leaf slot(s)", freed)
	}
	return freed, nil
}
