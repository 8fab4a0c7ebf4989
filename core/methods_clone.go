// File: methods_clone.go
// Role: Cloning graph instances.
// Determinism:
//   - Clone preserves every handle, tombstones included, so NodeIDs taken from
//     the source remain valid on the clone.
// Concurrency:
//   - Read lock on the source for the whole copy.

package core

// Clone returns a deep copy of the arena, key index and adjacency.
// Vertex and edge payloads (Data) are shared, not copied.
//
// Complexity: O(V + E)
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := &Graph{
		allowLoops: g.allowLoops,
		vertices:   make([]*Vertex, len(g.vertices)),
		index:      make(map[string]NodeID, len(g.index)),
		out:        make([][]*Edge, len(g.out)),
		in:         make([]map[NodeID]struct{}, len(g.in)),
		free:       append([]NodeID(nil), g.free...),
		live:       g.live,
		edgeCount:  g.edgeCount,
	}
	for i, v := range g.vertices {
		if v == nil {
			continue
		}
		cp := *v
		clone.vertices[i] = &cp
		clone.index[v.Key] = NodeID(i)

		if list := g.out[i]; len(list) > 0 {
			nl := make([]*Edge, len(list))
			for j, e := range list {
				ce := *e
				nl[j] = &ce
			}
			clone.out[i] = nl
		}
		preds := make(map[NodeID]struct{}, len(g.in[i]))
		for p := range g.in[i] {
			preds[p] = struct{}{}
		}
		clone.in[i] = preds
	}

	return clone
}
