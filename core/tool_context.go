package core

import (
	"context"

	"github.com/modemneko/HakusAI/logging"
)

// ToolContext carries everything a tool invocation may touch: the request
// context, the owning session state and a logger. It guarantees a non-nil
// logger by substituting a NoOpLogger when constructed with nil.
type ToolContext struct {
	ctx     context.Context
	session *SessionState
	logger  logging.Logger
}

// NewToolContext constructs a ToolContext for one tool dispatch.
func NewToolContext(ctx context.Context, session *SessionState, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{ctx: ctx, session: session, logger: logger}
}

// Context returns the request context for the current dispatch.
func (t *ToolContext) Context() context.Context { return t.ctx }

// Session returns the session state owning this turn.
func (t *ToolContext) Session() *SessionState { return t.session }

// Logger returns the non-nil logger.
func (t *ToolContext) Logger() logging.Logger { return t.logger }
