// Package model defines the reasoning-service contract consumed by the
// orchestrator (prompt in, text out) together with provider metadata and a
// deterministic mock for tests and examples. Provider adapters live in the
// model/openai and model/anthropic subpackages.
package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Info contains metadata about a completer implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Completer is the minimal reasoning-service interface: a rendered prompt in,
// raw model text out. Implementations may fail with transport or quota
// errors; callers are expected to catch and degrade.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Info returns information about the completer implementation.
	Info() Info
}

// rule pairs a prompt substring with the canned completion it triggers.
type rule struct {
	substr   string
	response string
}

// MockCompleter is a lightweight in-memory Completer useful for tests &
// examples. Matching order: exact prompt, then first registered substring
// rule, then the fallback text. Every received prompt is recorded in Calls.
type MockCompleter struct {
	mu       sync.Mutex
	info     Info
	exact    map[string]string
	rules    []rule
	fallback string
	err      error

	// Calls records each prompt passed to Complete, in order.
	Calls []string
}

// NewMockCompleter constructs a MockCompleter whose unmatched prompts yield
// "无" (the scheduler prompts treat that as "nothing to do").
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		info:     Info{Name: "mock", Provider: "mock"},
		exact:    make(map[string]string),
		fallback: "无",
	}
}

// AddResponse registers a deterministic canned completion for an exact prompt.
func (m *MockCompleter) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[prompt] = response
}

// AddRule registers a canned completion returned for any prompt containing
// substr. Rules are evaluated in registration order.
func (m *MockCompleter) AddRule(substr, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{substr: substr, response: response})
}

// SetFallback overrides the completion returned when nothing matches.
func (m *MockCompleter) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// FailWith makes every subsequent Complete call return err. Pass nil to
// restore normal behavior.
func (m *MockCompleter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CallCount returns how many prompts have been received so far.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)

	if m.err != nil {
		return "", fmt.Errorf("mock completer: %w", m.err)
	}
	if resp, ok := m.exact[prompt]; ok {
		return resp, nil
	}
	for _, r := range m.rules {
		if strings.Contains(prompt, r.substr) {
			return r.response, nil
		}
	}
	return m.fallback, nil
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return m.info }
