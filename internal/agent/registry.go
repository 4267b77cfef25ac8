package agent

import (
	"fmt"
	"sort"
)

// Registry is the closed tool catalog. It is built once at startup
// from the full tool set and is immutable afterwards: there is no way
// to add, replace, or remove a tool on a live registry, so the
// catalog the model sees is exactly the catalog that executes.
type Registry struct {
	tools map[string]Tool
	names []string
}

// NewRegistry freezes the given tools into a catalog. Duplicate or
// invalid names are construction errors, not runtime surprises.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		name := tool.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if len(name) > MaxToolNameLength {
			return nil, fmt.Errorf("tool name %q exceeds %d characters", name[:32], MaxToolNameLength)
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = tool
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup resolves a tool by exact name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the catalog's tool names in stable order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Definitions renders the catalog for a provider request.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.names))
	for _, name := range r.names {
		tool := r.tools[name]
		defs = append(defs, ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Schema(),
		})
	}
	return defs
}
