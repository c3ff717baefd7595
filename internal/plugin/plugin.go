// Package plugin implements the hook registry the request engine calls
// around its pipeline. Plugins are registered once at startup; a
// BeforeRequest hook may short-circuit the request entirely, which is how
// an optional auth check is plugged in without the core knowing about
// authentication.
package plugin

import (
	"fmt"
	"net/http"
	"sync"
)

// Plugin is anything with a unique name. Hook behavior is added by
// implementing the optional interfaces below.
type Plugin interface {
	Name() string
}

// BeforeRequestHook runs before the pipeline. Returning true means the
// hook wrote a response and the pipeline must not run.
type BeforeRequestHook interface {
	BeforeRequest(w http.ResponseWriter, r *http.Request) bool
}

// AfterRequestHook runs after a response has been written.
type AfterRequestHook interface {
	AfterRequest(r *http.Request, status int)
}

// ErrorHook runs when the pipeline recovers from an unexpected error.
type ErrorHook interface {
	OnError(r *http.Request, err error)
}

// Registry holds registered plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin. Registering a duplicate name is an error.
func (reg *Registry) Register(p Plugin) error {
	if p == nil || p.Name() == "" {
		return fmt.Errorf("plugin must have a name")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.plugins[p.Name()]; exists {
		return fmt.Errorf("plugin %s is already registered", p.Name())
	}
	reg.plugins[p.Name()] = p
	reg.order = append(reg.order, p.Name())
	return nil
}

// Names returns registered plugin names in registration order.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return append([]string(nil), reg.order...)
}

// RunBeforeRequest executes BeforeRequest hooks in order. It stops and
// returns true as soon as one hook handles the request.
func (reg *Registry) RunBeforeRequest(w http.ResponseWriter, r *http.Request) bool {
	for _, p := range reg.snapshot() {
		if hook, ok := p.(BeforeRequestHook); ok {
			if hook.BeforeRequest(w, r) {
				return true
			}
		}
	}
	return false
}

// RunAfterRequest executes AfterRequest hooks in order.
func (reg *Registry) RunAfterRequest(r *http.Request, status int) {
	for _, p := range reg.snapshot() {
		if hook, ok := p.(AfterRequestHook); ok {
			hook.AfterRequest(r, status)
		}
	}
}

// RunOnError executes error hooks in order.
func (reg *Registry) RunOnError(r *http.Request, err error) {
	for _, p := range reg.snapshot() {
		if hook, ok := p.(ErrorHook); ok {
			hook.OnError(r, err)
		}
	}
}

func (reg *Registry) snapshot() []Plugin {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Plugin, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.plugins[name])
	}
	return out
}
