// internal/component/registry.go
//
// Component registry.
//
// Each concrete component lives under components/<name>.  cmd/web builds it
// with its dependencies and calls component.Register(); Mount then attaches
// every component's Routes() under “/<name>” in name order.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.  Routes() should mount both page and API endpoints,
// relative to the component's prefix:
//
//	r := chi.NewRouter()
//	r.Get("/", page)           // GET /profile
//	r.Post("/field", setField) // POST /profile/field
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
}

// Closer is optional.  Shutdown calls Close on components that implement it.
type Closer interface {
	Close() error
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register adds c.  Registering the same name twice is a programming error.
func Register(c Component) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[c.Name()]; dup {
		panic(fmt.Sprintf("component: %q registered twice", c.Name()))
	}
	registry[c.Name()] = c
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount attaches every component's routes to r under "/<name>".
func Mount(r chi.Router) {
	for _, c := range All() {
		r.Mount("/"+c.Name(), c.Routes())
	}
}

// CloseAll closes every component that implements Closer and returns the
// first error.
func CloseAll() error {
	var first error
	for _, c := range All() {
		if cl, ok := c.(Closer); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// reset clears the registry for tests.
func reset() {
	mu.Lock()
	registry = map[string]Component{}
	mu.Unlock()
}
