// Package tool implements the tool-calling subsystem: a small compile-time
// checked registry of named capabilities the reasoning loop can dispatch to,
// with consistent error handling and a rendered catalog for prompt building.
package tool

import (
	"fmt"
	"strings"

	"github.com/modemneko/HakusAI/core"
)

// Tool defines the interface for extending the agent with callable
// capabilities. Implementations should provide clear names and descriptions
// (the description is what the reasoning service sees), handle their own
// failures gracefully, and be safe for concurrent use across sessions.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does, shown to the reasoning service in the tool catalog.
	Description() string

	// Call executes the tool with the free-form input produced by the
	// reasoning service. A returned error means the tool itself failed;
	// tools that can degrade should return a user-safe result string
	// instead of an error.
	Call(toolCtx *core.ToolContext, input string) (string, error)
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// UnknownToolError reports a dispatch to a name no registered tool answers to.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Registry maps tool names to handlers. Registration order is preserved for
// catalog rendering. Registries are populated at construction time and read
// only afterwards, so they are safe for concurrent dispatch.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry constructs a registry holding the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Catalog renders the "name: description" listing fed to the reasoning
// prompt, one tool per line in registration order.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	for i, name := range r.order {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(r.tools[name].Description())
	}
	return sb.String()
}

// Invoke dispatches input to the named tool. An *UnknownToolError is
// returned when no tool answers to name; other errors come from the tool
// itself.
func (r *Registry) Invoke(toolCtx *core.ToolContext, name, input string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}
	return t.Call(toolCtx, input)
}
