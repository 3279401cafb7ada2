package dag

import "sync"

// set is a set of node IDs.
type set map[string]struct{}

// Graph is a directed graph keyed by string IDs. An edge from A to B means B
// depends on A. It is safe for concurrent use.
type Graph struct {
	mu sync.RWMutex
	// upstream maps a node to the nodes it depends on.
	upstream map[string]set
	// downstream maps a node to the nodes that depend on it.
	downstream map[string]set
}
