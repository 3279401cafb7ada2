package dag

import (
	"fmt"
	"sort"
	"strings"
)

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		upstream:   make(map[string]set),
		downstream: make(map[string]set),
	}
}

// AddNode adds id to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.upstream[id]; ok {
		return
	}
	g.upstream[id] = make(set)
	g.downstream[id] = make(set)
}

// Has reports whether id is in the graph.
func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.upstream[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.upstream)
}

// AddEdge records that to depends on from. Both nodes must exist.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("node %q cannot depend on itself", from)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.upstream[from]; !ok {
		return fmt.Errorf("node not found: %s", from)
	}
	if _, ok := g.upstream[to]; !ok {
		return fmt.Errorf("node not found: %s", to)
	}
	g.upstream[to][from] = struct{}{}
	g.downstream[from][to] = struct{}{}
	return nil
}

// Dependencies returns the sorted IDs id depends on directly.
func (g *Graph) Dependencies(id string) ([]string, error) {
	return g.neighbours(g.upstream, id)
}

// Dependents returns the sorted IDs that depend on id directly.
func (g *Graph) Dependents(id string) ([]string, error) {
	return g.neighbours(g.downstream, id)
}

func (g *Graph) neighbours(adj map[string]set, id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := adj[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return s.sorted(), nil
}

// DetectCycles returns an error describing the first cycle found, e.g.
// "cycle detected: a -> b -> a". Nodes are visited in lexical order so the
// reported cycle is stable.
func (g *Graph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.upstream))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case onStack:
			start := len(stack) - 1
			for stack[start] != id {
				start--
			}
			cycle := append(append([]string{}, stack[start:]...), id)
			return fmt.Errorf("cycle detected: %s", strings.Join(cycle, " -> "))
		}

		state[id] = onStack
		stack = append(stack, id)
		for _, next := range g.downstream[id].sorted() {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range keys(g.upstream) {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func keys(m map[string]set) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
