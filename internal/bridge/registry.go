package bridge

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

type registration struct {
	name    string
	binding Binding
	order   uint64
}

// Registry is the dispatch table: bound name to handler. Lookups are
// lock-free so the UI thread never waits on a registration.
type Registry struct {
	entries *xsync.Map[string, registration]

	mu    sync.Mutex // serializes writers
	order uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: xsync.NewMap[string, registration]()}
}

// Store binds name, replacing any previous binding. A replaced name keeps
// its original position in Names.
func (r *Registry) Store(name string, b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order := r.order
	if prev, ok := r.entries.Load(name); ok {
		order = prev.order
	} else {
		r.order++
	}
	r.entries.Store(name, registration{name: name, binding: b, order: order})
}

// Delete removes name and reports whether it was bound.
func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries.Load(name); !ok {
		return false
	}
	r.entries.Delete(name)
	return true
}

// Lookup returns the binding for name.
func (r *Registry) Lookup(name string) (Binding, bool) {
	e, ok := r.entries.Load(name)
	return e.binding, ok
}

// size returns the number of bound names.
func (r *Registry) size() int {
	return r.entries.Size()
}

// Entries returns every binding in registration order.
func (r *Registry) Entries() []Entry {
	var regs []registration
	r.entries.Range(func(_ string, e registration) bool {
		regs = append(regs, e)
		return true
	})
	sort.Slice(regs, func(i, j int) bool { return regs[i].order < regs[j].order })
	out := make([]Entry, len(regs))
	for i, e := range regs {
		out[i] = Entry{Name: e.name, Binding: e.binding}
	}
	return out
}

// Entry is one bound name.
type Entry struct {
	Name    string
	Binding Binding
}
