package service

import (
	"sort"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

// ToolRegistryImpl is filled once at start-up and read-only afterwards.
type ToolRegistryImpl struct {
	tools map[entity.ToolName]output.ToolPort
}

func NewToolRegistry() *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools: make(map[entity.ToolName]output.ToolPort),
	}
}

// Register panics on a name outside the known tool set or on a duplicate:
// both are wiring bugs.
func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	name := tool.Name()
	if !name.Valid() {
		panic("registry: unknown tool " + name.String())
	}
	if _, exists := r.tools[name]; exists {
		panic("registry: duplicate tool " + name.String())
	}
	r.tools[name] = tool
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistryImpl) All() []output.ToolPort {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	result := make([]output.ToolPort, 0, len(names))
	for _, name := range names {
		result = append(result, r.tools[entity.ToolName(name)])
	}
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	all := r.All()
	result := make([]entity.ToolDefinition, 0, len(all))
	for _, tool := range all {
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name().String(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}
