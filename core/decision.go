package core

// Decision is the structured outcome of a single reasoning-service call.
// It is a closed union: exactly one of ToolCall or Finish. Both variants
// retain the raw model text for debugging and replay.
//
// Call sites should type-switch exhaustively:
//
//	switch d := decision.(type) {
//	case core.ToolCall:
//	    // dispatch tool
//	case core.Finish:
//	    // terminal answer
//	}
type Decision interface {
	// RawLog returns the unmodified reasoning-service output that produced
	// this decision.
	RawLog() string

	decision()
}

// ToolCall requests the invocation of a named tool with a free-form input.
type ToolCall struct {
	Tool  string
	Input string
	Log   string
}

// RawLog implements Decision.
func (t ToolCall) RawLog() string { return t.Log }

func (ToolCall) decision() {}

// Finish carries the terminal answer text for the current turn.
type Finish struct {
	Output string
	Log    string
}

// RawLog implements Decision.
func (f Finish) RawLog() string { return f.Log }

func (Finish) decision() {}
