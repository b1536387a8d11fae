package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Registry maps tool names to definitions. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]ToolDefinition
	order []string
}

func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[string]ToolDefinition)}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition. Names must be unique and non-empty.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if def.Function == nil {
		return fmt.Errorf("register tool %q: nil handler", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("register tool %q: already registered", def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}

// Schemas returns the offerings in registration order.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name].Schema())
	}
	return out
}

// Execute runs the named tool with args. Failures are *ToolExecutionError and
// never carry partial output.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return "", &ToolExecutionError{Code: CodeToolNotFound, Tool: name, Message: "tool not found"}
	}

	if args == nil {
		args = map[string]any{}
	}
	input, err := json.Marshal(args)
	if err != nil {
		return "", &ToolExecutionError{Code: CodeInvalidInput, Tool: name, Message: err.Error(), Err: err}
	}

	out, err := def.Function(ctx, input)
	if err != nil {
		return "", &ToolExecutionError{Code: CodeToolFailed, Tool: name, Message: err.Error(), Err: err}
	}
	return out, nil
}
