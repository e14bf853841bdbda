package tools

import (
	"sort"
	"sync"

	"google.golang.org/adk/tool"

	"stockresearch/pkg/errors"
)

// Registry stores available tools by name
type Registry struct {
	mu    sync.RWMutex
	tools map[string]tool.Tool
	defs  map[string]Definition
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]tool.Tool),
		defs:  make(map[string]Definition),
	}
}

// Register adds a tool. Names are unique.
func (r *Registry) Register(t tool.Tool) error {
	if t == nil || t.Name() == "" {
		return errors.Wrap(errors.ErrInvalidInput, "tool must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "tool %s", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Describe attaches catalog metadata to a registered name
func (r *Registry) Describe(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Get returns a tool by name
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definition returns catalog metadata for a tool
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Lookup resolves names in order. Unknown names are reported together.
func (r *Registry) Lookup(names ...string) ([]tool.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tool.Tool, 0, len(names))
	var errs errors.MultiError
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			errs.Add(errors.Wrapf(errors.ErrNotFound, "tool %s", name))
			continue
		}
		out = append(out, t)
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all registered tools sorted by name
func (r *Registry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]tool.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns registered tool names sorted alphabetically
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, 0, len(list))
	for _, t := range list {
		names = append(names, t.Name())
	}
	return names
}
