// Package hakusai provides a high-level façade over the orchestration
// engine: the turn workflow, reasoning-act loop, tool registry and memory
// scheduler. Most applications interact with this package by:
//  1. Creating a HakusAI via New() with a reasoning-service completer
//     (optionally overriding the default in-memory vector store, tools,
//     searcher and logger)
//  2. Calling Chat() once per user message
//
// The façade delegates sequencing to workflow.Workflow and session
// ownership to runner.Runner while keeping setup ergonomics concise. All
// defaults are safe for local development and testing; production
// deployments typically supply a durable vector store, a real web searcher
// and a structured logger.
package hakusai

import (
	"context"

	"github.com/modemneko/HakusAI/agent"
	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/memory"
	"github.com/modemneko/HakusAI/model"
	"github.com/modemneko/HakusAI/runner"
	"github.com/modemneko/HakusAI/tool"
	"github.com/modemneko/HakusAI/workflow"
)

// Options configures the HakusAI instance.
type Options struct {
	// VectorStore holds long-term memory (defaults to the in-memory store).
	VectorStore core.VectorStore

	// Searcher backs the bundled search tool. Without one the tool is not
	// registered and the agent runs with an empty catalog.
	Searcher core.WebSearcher

	// Tools are extra tools registered alongside the bundled ones.
	Tools []tool.Tool

	// Describer annotates turns that carry image attachments.
	Describer core.Describer

	// ReflectionIntervalDays seeds new sessions' consolidation time arm.
	ReflectionIntervalDays int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// HakusAI is the high-level façade aggregating the workflow and runner.
type HakusAI struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new HakusAI instance around a reasoning-service completer.
// Any unset collaborator is initialized with an in-memory implementation.
func New(completer model.Completer, optFns ...func(o *Options)) *HakusAI {
	opts := Options{
		VectorStore:            memory.NewInMemoryStore(),
		ReflectionIntervalDays: 1,
		Logger:                 logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := tool.NewRegistry()
	if opts.Searcher != nil {
		registry.Register(tool.NewSearchTool(opts.Searcher))
	}
	for _, t := range opts.Tools {
		registry.Register(t)
	}

	a := agent.New(completer, registry, func(o *agent.Options) { o.Logger = opts.Logger })
	scheduler := memory.New(completer, opts.VectorStore, func(o *memory.Options) { o.Logger = opts.Logger })
	wf := workflow.New(a, scheduler, registry, func(o *workflow.Options) { o.Logger = opts.Logger })

	rn := runner.New(wf, func(o *runner.Options) {
		o.Describer = opts.Describer
		o.ReflectionIntervalDays = opts.ReflectionIntervalDays
		o.Logger = opts.Logger
	})

	return &HakusAI{opts: opts, runner: rn}
}

// Chat runs one synchronous conversational turn and returns the final
// response text.
func (h *HakusAI) Chat(ctx context.Context, uid, message string, attachments ...[]byte) (string, error) {
	return h.runner.ProcessTurn(ctx, uid, message, attachments)
}

// Runner exposes the underlying runner for front ends that need the turn
// debug log.
func (h *HakusAI) Runner() *runner.Runner { return h.runner }
