package dag

import (
	"container/heap"
	"fmt"
)

// TopologicalOrder returns every node ID ordered so that each node appears
// after all of its dependencies. Among nodes that are ready at the same time
// the lexically smallest ID comes first, which makes the order deterministic.
// An error is returned if the graph contains a cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indegree := make(map[string]int, len(g.upstream))
	ready := &idHeap{}
	for id, deps := range g.upstream {
		indegree[id] = len(deps)
		if len(deps) == 0 {
			*ready = append(*ready, id)
		}
	}
	heap.Init(ready)

	order := make([]string, 0, len(g.upstream))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for next := range g.downstream[id] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(order) != len(g.upstream) {
		return nil, fmt.Errorf("cycle detected: %d of %d nodes could not be ordered", len(g.upstream)-len(order), len(g.upstream))
	}
	return order, nil
}

// Subgraph returns the sorted IDs of the given roots and every node they
// transitively depend on.
func (g *Graph) Subgraph(roots ...string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(set)
	var walk func(id string)
	walk = func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		for dep := range g.upstream[id] {
			walk(dep)
		}
	}

	for _, id := range roots {
		if _, ok := g.upstream[id]; !ok {
			return nil, fmt.Errorf("node not found: %s", id)
		}
		walk(id)
	}
	return seen.sorted(), nil
}

// idHeap is a min-heap of node IDs.
type idHeap []string

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(string)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
