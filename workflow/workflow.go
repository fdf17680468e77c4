// Package workflow implements the top-level turn state machine: capture
// input, retrieve memory, run the reasoning-act cycle, record the response,
// then evaluate the consolidation and reflection triggers. States are an
// explicit enum advanced by a transition function over SessionState, so each
// branch predicate stays a pure, testable function.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/modemneko/HakusAI/agent"
	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/memory"
	"github.com/modemneko/HakusAI/tool"
)

// State identifies one node of the turn state machine.
type State int

// Workflow states, in nominal execution order.
const (
	StateCaptureInput State = iota
	StateRetrieveMemory
	StateReason
	StateExecuteTool
	StateRecordResponse
	StateConsolidationCheck
	StateConsolidate
	StateReflectionCheck
	StateReflect
	StateEnd
)

// String returns the node name.
func (s State) String() string {
	switch s {
	case StateCaptureInput:
		return "capture_input"
	case StateRetrieveMemory:
		return "retrieve_memory"
	case StateReason:
		return "reason"
	case StateExecuteTool:
		return "execute_tool"
	case StateRecordResponse:
		return "record_response"
	case StateConsolidationCheck:
		return "consolidation_check"
	case StateConsolidate:
		return "consolidate"
	case StateReflectionCheck:
		return "reflection_check"
	case StateReflect:
		return "reflect"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Options configures a Workflow.
type Options struct {
	// MaxToolIterations bounds the Reason/ExecuteTool cycle of one turn.
	// When exceeded the loop is forced terminal.
	MaxToolIterations int

	// Now supplies the capture timestamp; override in tests.
	Now func() time.Time

	// Logger receives structured node logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Workflow sequences one conversational turn over a SessionState. A turn
// runs strictly sequentially to completion; each node either fully commits
// its state changes or the turn fails closed into a terminal Finish.
type Workflow struct {
	agent     *agent.Agent
	scheduler *memory.Scheduler
	registry  *tool.Registry
	logger    logging.Logger

	maxToolIterations int
	now               func() time.Time
}

// New constructs a Workflow from its collaborating components.
func New(a *agent.Agent, scheduler *memory.Scheduler, registry *tool.Registry, optFns ...func(o *Options)) *Workflow {
	opts := Options{
		MaxToolIterations: 25,
		Now:               time.Now,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Workflow{
		agent:             a,
		scheduler:         scheduler,
		registry:          registry,
		logger:            opts.Logger,
		maxToolIterations: opts.MaxToolIterations,
		now:               opts.Now,
	}
}

// Run executes one full turn for the given query, leaving the final answer
// in state.Outcome and the completed exchange in state.TurnHistory.
func (w *Workflow) Run(ctx context.Context, state *core.SessionState, query string) error {
	state.CurrentQuery = query

	st := StateCaptureInput
	toolIters := 0
	for st != StateEnd {
		w.logger.Debug("workflow.node", "uid", state.UID, "state", st.String())

		next, err := w.step(ctx, st, state, &toolIters)
		if err != nil {
			return fmt.Errorf("workflow node %s: %w", st, err)
		}
		st = next
	}
	return nil
}

// step runs a single node and returns the next state. This is the full
// transition table of the machine.
func (w *Workflow) step(ctx context.Context, st State, state *core.SessionState, toolIters *int) (State, error) {
	switch st {
	case StateCaptureInput:
		w.captureInput(state)
		return StateRetrieveMemory, nil

	case StateRetrieveMemory:
		if err := w.scheduler.RetrieveContext(ctx, state); err != nil {
			return StateEnd, err
		}
		return StateReason, nil

	case StateReason:
		state.Outcome = w.agent.Run(ctx, state)
		if _, isCall := state.Outcome.(core.ToolCall); isCall {
			if *toolIters >= w.maxToolIterations {
				w.logger.Warn("workflow.reason.iteration_limit", "uid", state.UID, "limit", w.maxToolIterations)
				state.Outcome = core.Finish{
					Output: "哎呀，咱想得太久了，先这样吧。",
					Log:    state.Outcome.RawLog(),
				}
				return StateRecordResponse, nil
			}
			*toolIters++
			return StateExecuteTool, nil
		}
		return StateRecordResponse, nil

	case StateExecuteTool:
		w.executeTool(ctx, state)
		return StateReason, nil

	case StateRecordResponse:
		w.recordResponse(state)
		if err := w.scheduler.ExtractFacts(ctx, state); err != nil {
			return StateEnd, err
		}
		return StateConsolidationCheck, nil

	case StateConsolidationCheck:
		if w.scheduler.ShouldConsolidate(state) {
			return StateConsolidate, nil
		}
		return StateReflectionCheck, nil

	case StateConsolidate:
		if err := w.scheduler.Consolidate(ctx, state); err != nil {
			return StateEnd, err
		}
		return StateReflectionCheck, nil

	case StateReflectionCheck:
		if w.scheduler.ShouldReflect(state) {
			return StateReflect, nil
		}
		return StateEnd, nil

	case StateReflect:
		if err := w.scheduler.Reflect(ctx, state); err != nil {
			return StateEnd, err
		}
		return StateEnd, nil

	default:
		return StateEnd, fmt.Errorf("no transition from state %s", st)
	}
}

// captureInput stamps the turn time, appends the (optionally image
// annotated) query to the transcript, snapshots short-term context and
// clears the per-loop scratchpad.
func (w *Workflow) captureInput(state *core.SessionState) {
	query := state.CurrentQuery
	state.BeginTurn(query, w.now())

	annotated := query
	if state.ImageDescription != "" {
		annotated += fmt.Sprintf(" [图片描述: %s]", state.ImageDescription)
	}
	state.Transcript = append(state.Transcript, core.Message{Role: core.RoleUser, Content: annotated})
	state.ShortTermMemory = state.RecentTurns(3)
}

// executeTool dispatches the pending tool call and appends the observation
// to the scratchpad. Tool failures become observations, never aborts.
func (w *Workflow) executeTool(ctx context.Context, state *core.SessionState) {
	call, ok := state.Outcome.(core.ToolCall)
	if !ok {
		return
	}

	toolCtx := core.NewToolContext(ctx, state, w.logger)
	observation, err := w.registry.Invoke(toolCtx, call.Tool, call.Input)
	if err != nil {
		w.logger.Error("workflow.tool.failed", "uid", state.UID, "tool", call.Tool, "error", err.Error())
		observation = fmt.Sprintf("工具执行出错: %v", err)
	}

	state.IntermediateSteps = append(state.IntermediateSteps, core.IntermediateStep{
		Action:      call,
		Observation: observation,
	})
}

// recordResponse extracts the final text from the loop outcome, appends the
// exchange to history and transcript, and advances the turn counter.
func (w *Workflow) recordResponse(state *core.SessionState) {
	final := "没找到答案"
	if finish, ok := state.Outcome.(core.Finish); ok {
		final = finish.Output
	}

	state.Transcript = append(state.Transcript, core.Message{Role: core.RoleAssistant, Content: final})
	state.AppendTurn(state.CurrentQuery, final)

	w.logger.Info("workflow.turn.recorded", "uid", state.UID, "step", state.CurrentStep)
}
