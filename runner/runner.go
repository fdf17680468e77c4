// Package runner owns the per-uid session registry and the synchronous turn
// entry point. Sessions are created lazily on first use and live for the
// process lifetime; turns for the same uid are serialized with a per-session
// lock so SessionState is only ever mutated by one turn at a time.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/workflow"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Describer, when set, turns attached images into the description used
	// to annotate the captured query. Without it attachments are ignored.
	Describer core.Describer

	// ReflectionIntervalDays seeds new sessions' elapsed-time threshold.
	ReflectionIntervalDays int

	// Logger receives structured runner logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// session pairs a state with the lock serializing its turns.
type session struct {
	mu    sync.Mutex
	state *core.SessionState
}

// Runner coordinates turn execution: it resolves (or creates) the session
// for a uid, serializes the turn, runs the workflow and returns the final
// response text. Public methods are safe for concurrent use across uids.
type Runner struct {
	workflow  *workflow.Workflow
	describer core.Describer
	logger    logging.Logger

	reflectionIntervalDays int

	mu       sync.Mutex
	sessions map[string]*session
}

// New constructs a Runner with optional overrides.
func New(wf *workflow.Workflow, optFns ...func(o *Options)) *Runner {
	opts := Options{
		ReflectionIntervalDays: 1,
		Logger:                 logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		workflow:               wf,
		describer:              opts.Describer,
		logger:                 opts.Logger,
		reflectionIntervalDays: opts.ReflectionIntervalDays,
		sessions:               make(map[string]*session),
	}
}

// ProcessTurn runs one synchronous conversational turn and returns the final
// response text. Recoverable faults degrade into a user-visible failure
// string rather than an error; the error return is reserved for invalid
// arguments.
func (r *Runner) ProcessTurn(ctx context.Context, uid, message string, attachments [][]byte) (string, error) {
	if uid == "" {
		return "", fmt.Errorf("uid must not be empty")
	}

	sess := r.getOrCreate(uid)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	state := sess.state
	state.ImageDescription = r.describeAttachments(ctx, uid, attachments)

	start := time.Now()
	if err := r.workflow.Run(ctx, state, message); err != nil {
		r.logger.Error("runner.turn.failed", "uid", uid, "error", err.Error())
		return fmt.Sprintf("处理出错: %v", err), nil
	}

	response := ""
	if n := len(state.TurnHistory); n > 0 {
		response = state.TurnHistory[n-1].Response
	}
	if response == "" {
		r.logger.Error("runner.turn.empty_response", "uid", uid)
		return "处理出错: Agent 未正确响应", nil
	}

	r.logger.Info("runner.turn.done", "uid", uid, "step", state.CurrentStep, "duration_ms", time.Since(start).Milliseconds())
	return response, nil
}

// TurnLog renders a debug block for the most recent turn of a uid: tool
// observations and the retrieved memory that fed the prompt. Returns a
// placeholder when the uid has no session yet.
func (r *Runner) TurnLog(uid string) string {
	r.mu.Lock()
	sess, ok := r.sessions[uid]
	r.mu.Unlock()
	if !ok {
		return "=== 实时日志 ===\n暂无日志信息。\n"
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	state := sess.state

	var sb strings.Builder
	sb.WriteString("=== 实时日志 ===\n")

	if len(state.IntermediateSteps) > 0 {
		sb.WriteString("Observation:\n")
		for _, step := range state.IntermediateSteps {
			obs := step.Observation
			if runes := []rune(obs); len(runes) > 100 {
				obs = string(runes[:100])
			}
			fmt.Fprintf(&sb, "- %s: %s...\n", step.Action.Tool, obs)
		}
	}

	if len(state.RetrievedMemory) > 0 {
		sb.WriteString("Memory:\n")
		limit := len(state.RetrievedMemory)
		if limit > 3 {
			limit = 3
		}
		for _, res := range state.RetrievedMemory[:limit] {
			fmt.Fprintf(&sb, "- %s (时间: %s)\n", res.Item.Content, res.Item.Timestamp.Format("2006-01-02 15:04:05"))
		}
	}

	if sb.Len() == len("=== 实时日志 ===\n") {
		sb.WriteString("暂无日志信息。\n")
	}
	return sb.String()
}

// getOrCreate resolves the session for a uid, creating it on first use.
func (r *Runner) getOrCreate(uid string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[uid]
	if !ok {
		r.logger.Info("runner.session.created", "uid", uid)
		state := core.NewSessionState(uid)
		state.ReflectionIntervalDays = r.reflectionIntervalDays
		sess = &session{state: state}
		r.sessions[uid] = sess
	}
	return sess
}

// describeAttachments produces the image annotation for a turn, degrading
// to no annotation when description fails or no describer is configured.
func (r *Runner) describeAttachments(ctx context.Context, uid string, attachments [][]byte) string {
	if r.describer == nil || len(attachments) == 0 {
		return ""
	}
	desc, err := r.describer.Describe(ctx, attachments)
	if err != nil {
		r.logger.Warn("runner.describe.failed", "uid", uid, "error", err.Error())
		return ""
	}
	return strings.TrimSpace(desc)
}
