package plugin

import (
	"sort"
	"sync"

	"github.com/specialistvlad/procgrid/internal/inputtag"
)

// Event is the product store for a single synthetic event. It is safe for
// concurrent use.
type Event struct {
	Run    uint32
	Lumi   uint32
	Number uint64

	mu       sync.RWMutex
	products map[string]inputtag.Product
}

// NewEvent creates an empty event.
func NewEvent(run, lumi uint32, number uint64) *Event {
	return &Event{Run: run, Lumi: lumi, Number: number, products: make(map[string]inputtag.Product)}
}

// Put adds a product. Putting the same branch twice is a no-op.
func (e *Event) Put(p inputtag.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.products[p.Branch()] = p
}

// Get returns a product matching the tag. When several products match, the
// one with the lexically smallest branch name is returned.
func (e *Event) Get(tag inputtag.Tag) (inputtag.Product, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var (
		found inputtag.Product
		ok    bool
	)
	for branch, p := range e.products {
		if !tag.Matches(p) {
			continue
		}
		if !ok || branch < found.Branch() {
			found, ok = p, true
		}
	}
	return found, ok
}

// Has reports whether a product matching the tag is present.
func (e *Event) Has(tag inputtag.Tag) bool {
	_, ok := e.Get(tag)
	return ok
}

// Products returns every product sorted by branch name.
func (e *Event) Products() []inputtag.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]inputtag.Product, 0, len(e.products))
	for _, p := range e.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Branch() < out[j].Branch() })
	return out
}
