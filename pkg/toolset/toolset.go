// Package toolset declares the tools a host exposes to the model and
// binds decoded invocations to typed argument structs. The package ships
// no concrete tools; hosts register their own.
package toolset

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tanmosh/toolwire/pkg/inband"
)

// InvokeFunc handles one invocation with its decoded argument value.
type InvokeFunc[Args any] func(ctx context.Context, inv *inband.Invocation, args Args) (any, error)

// Tool is one declared tool: a name, a description shown to the model,
// a JSON schema for its arguments, and a handler.
type Tool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema

	// Invoke decodes inv.Input and runs the handler.
	Invoke func(ctx context.Context, inv *inband.Invocation) (any, error)
}

// New declares a tool whose argument schema is derived from Args.
func New[Args any](name, description string, fn InvokeFunc[Args]) (*Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("toolset: tool name is required")
	}
	schema, err := jsonschema.For[Args](nil)
	if err != nil {
		return nil, fmt.Errorf("toolset: schema for %s: %w", name, err)
	}
	tool := &Tool{
		Name:        name,
		Description: description,
		Argument:    schema,
	}
	tool.Invoke = func(ctx context.Context, inv *inband.Invocation) (any, error) {
		var args Args
		if err := unmarshalLenient(inv.Input, &args); err != nil {
			return nil, fmt.Errorf("toolset: decode %s arguments %q: %w", name, inv.Input, err)
		}
		return fn(ctx, inv, args)
	}
	return tool, nil
}

// MustNew is New that panics on error, for package-level declarations.
func MustNew[Args any](name, description string, fn InvokeFunc[Args]) *Tool {
	tool, err := New(name, description, fn)
	if err != nil {
		panic(err)
	}
	return tool
}

// Registry holds the tools available to one session.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(tool *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("toolset: duplicate tool: %s", tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Dispatch resolves inv.Tool and invokes it.
func (r *Registry) Dispatch(ctx context.Context, inv *inband.Invocation) (any, error) {
	tool, ok := r.Lookup(inv.Tool)
	if !ok {
		return nil, fmt.Errorf("toolset: unknown tool: %s", inv.Tool)
	}
	return tool.Invoke(ctx, inv)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inspect renders the registered tools as prompt text, one section per
// tool in sorted name order.
func (r *Registry) Inspect() string {
	var sb strings.Builder
	for _, name := range r.Names() {
		tool, _ := r.Lookup(name)
		fmt.Fprintf(&sb, "### %s\n%s\n", tool.Name, tool.Description)
	}
	return sb.String()
}
