package tool

import (
	"context"
	"sort"
	"sync"
)

// Router dispatches requests to the Invoker registered for the tool name.
// It lets process-backed, HTTP-backed and in-process tools coexist behind
// the one Invoker capability handed to stage logic.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]Invoker
	fallback Invoker
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Invoker)}
}

// Register binds a tool name to an invoker, replacing any prior binding.
func (r *Router) Register(name string, inv Invoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[name] = inv
}

// SetFallback sets the invoker used for unregistered tool names.
func (r *Router) SetFallback(inv Invoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = inv
}

// Tools returns the registered tool names in lexical order.
func (r *Router) Tools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke forwards req to its registered invoker.
func (r *Router) Invoke(ctx context.Context, req Request) Response {
	r.mu.RLock()
	inv, ok := r.routes[req.Tool]
	if !ok {
		inv = r.fallback
	}
	r.mu.RUnlock()

	if inv == nil {
		return Failed("unknown tool %q", req.Tool)
	}
	return inv.Invoke(ctx, req)
}
