// Package tools holds the agent's tool registry, the call protocol parser
// and the built-in tools.
package tools

import (
	"context"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tool is any capability an agent can execute. Name must be unique per
// agent; Schema is a JSON-Schema string describing the parameters object.
// Execute receives the arguments as a JSON string and returns a JSON string;
// argument validation beyond what the tool itself performs is not promised.
type Tool interface {
	Name() string
	Description() string
	Schema() string
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// Func adapts a plain function to the Tool interface.
type Func struct {
	name        string
	description string
	schema      string
	fn          func(ctx context.Context, argsJSON string) (string, error)
}

// NewFunc wraps fn as a Tool.
func NewFunc(name, description, schema string, fn func(ctx context.Context, argsJSON string) (string, error)) *Func {
	return &Func{name: name, description: description, schema: schema, fn: fn}
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Description() string { return f.description }
func (f *Func) Schema() string      { return f.schema }

func (f *Func) Execute(ctx context.Context, argsJSON string) (string, error) {
	return f.fn(ctx, argsJSON)
}

// Registry is the central inventory of tools available to one agent.
// Registration under an existing name overwrites; tools are never removed
// automatically.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// All returns the registered tools sorted by name, so rendered prompts stay
// deterministic.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
