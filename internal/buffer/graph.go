package buffer

// Graph records, per cache node, which other nodes were consumed to produce
// it. From that trace a node is classified as a leaf: nothing later in the
// pass read it, so its cache slot is a candidate for early eviction via
// Cache.EvictLeaves. The graph is strictly an eviction heuristic: running
// without one never changes program output, only the peak memory the cache
// retains.
type Graph struct {
	trace []traceEntry
	refs  map[int]int
}

type traceEntry struct {
	node Node
	deps []int
}

// NewGraph returns an empty dependency trace.
func NewGraph() *Graph {
	return &Graph{refs: make(map[int]int)}
}

// add records that node was produced from deps. Self-references (a node
// listed as its own dependency) do not count as reads; the original
// marks exactly those nodes as leaves.
func (g *Graph) add(node Node, deps ...Node) {
	idxs := make([]int, 0, len(deps))
	for _, dep := range deps {
		if dep.Idx < 0 || dep.Idx == node.Idx {
			continue
		}
		idxs = append(idxs, dep.Idx)
		g.refs[dep.Idx]++
	}
	g.trace = append(g.trace, traceEntry{node: node, deps: idxs})
}

// IsLeaf reports whether no recorded operation consumed the node.
func (g *Graph) IsLeaf(idx int) bool {
	return g.refs[idx] == 0
}

// Len returns the number of trace entries.
func (g *Graph) Len() int { return len(g.trace) }

// Reset discards the trace for the next pass.
func (g *Graph) Reset() {
	g.trace = g.trace[:0]
	clear(g.refs)
}
