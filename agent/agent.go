// Package agent implements the reasoning-act loop: it renders a single
// prompt from session context, invokes the reasoning service, and parses the
// free-form reply into a structured Decision. The surrounding workflow
// re-enters the loop after each tool dispatch; this package performs exactly
// one prompt/parse cycle per Run.
package agent

import (
	"context"
	"fmt"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/model"
	"github.com/modemneko/HakusAI/tool"
)

// Options configures an Agent.
type Options struct {
	// PromptTemplate overrides the built-in persona/instructions template.
	PromptTemplate string

	// Logger receives structured run logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Agent drives one iteration of the reasoning-act loop.
//
// Failure semantics: any reasoning-service error or unrecoverable parse
// error is converted into a Finish whose output is a user-facing apology
// embedding the error, so a turn always terminates with a response.
type Agent struct {
	completer model.Completer
	registry  *tool.Registry
	parser    *Parser
	template  string
	logger    logging.Logger
}

// New constructs an Agent over a reasoning service and a tool registry.
func New(completer model.Completer, registry *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		PromptTemplate: reactPromptTemplate,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Agent{
		completer: completer,
		registry:  registry,
		parser:    NewParser(func(o *ParserOptions) { o.Logger = opts.Logger }),
		template:  opts.PromptTemplate,
		logger:    opts.Logger,
	}
}

// Run performs one prompt/complete/parse cycle over the session state and
// returns the resulting Decision. It never returns an error: recoverable
// faults degrade into a Finish.
func (a *Agent) Run(ctx context.Context, state *core.SessionState) core.Decision {
	a.logger.Info("agent.run.start", "uid", state.UID, "steps", len(state.IntermediateSteps))

	prompt, err := renderPrompt(a.template, a.registry.Catalog(), state)
	if err != nil {
		a.logger.Error("agent.prompt.render_failed", "uid", state.UID, "error", err.Error())
		return apology(err)
	}

	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.logger.Error("agent.complete.failed", "uid", state.UID, "error", err.Error())
		return apology(err)
	}

	decision, err := a.parser.Parse(raw)
	if err != nil {
		a.logger.Error("agent.parse.failed", "uid", state.UID, "error", err.Error())
		return apology(err)
	}

	if tc, ok := decision.(core.ToolCall); ok && !a.registry.Has(tc.Tool) {
		a.logger.Warn("agent.unknown_tool", "uid", state.UID, "tool", tc.Tool)
		return core.Finish{
			Output: fmt.Sprintf("咱不认识工具 %q，所以没法帮上忙了。", tc.Tool),
			Log:    raw,
		}
	}

	a.logger.Debug("agent.run.decision", "uid", state.UID, "decision", fmt.Sprintf("%T", decision))
	return decision
}

// apology wraps an internal fault into the user-facing terminal answer.
func apology(err error) core.Finish {
	return core.Finish{
		Output: fmt.Sprintf("哎呀，咱出错了: %v", err),
		Log:    err.Error(),
	}
}
