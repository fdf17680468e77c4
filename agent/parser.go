package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
)

// finishMarker is the terminal marker emitted by the reasoning service when
// it has an answer for the user.
const finishMarker = "Final Answer:"

// actionPattern matches an optionally numbered Action marker followed by a
// fenced block containing a JSON object. The inner match is non-greedy so a
// trailing commentary after the block does not bleed into the payload.
var actionPattern = regexp.MustCompile("(?is)action\\s*\\d*\\s*:\\s*```(?:json)?\\s*(\\{.*?\\})\\s*```")

// trailingFence strips a dangling code-fence marker left at the end of a
// truncated reply.
var trailingFence = regexp.MustCompile("```$")

// ParseError reports an action block that was detected but could not be
// decoded into a tool call. Unlike free-form text (which fails open into a
// Finish), a malformed action block is surfaced to the caller, who decides
// whether to retry or degrade.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid action block: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// actionPayload is the JSON shape of an action block. The tool name may
// arrive under either "action" or the "tool" alias.
type actionPayload struct {
	Action      string          `json:"action"`
	Tool        string          `json:"tool"`
	ActionInput json.RawMessage `json:"action_input"`
}

// ParserOptions configures a Parser.
type ParserOptions struct {
	Logger logging.Logger
}

// Parser converts raw reasoning-service text into a structured Decision.
//
// Grammars are tried in priority order:
//  1. An action block (tool call). Takes precedence over a terminal marker
//     even when both are present, because a tool call with trailing
//     commentary is common model behavior.
//  2. The last "Final Answer:" marker; everything after it, trimmed.
//  3. Fail open: the whole text becomes the final answer, so a misformatted
//     reply never hard-stops the session.
type Parser struct {
	logger logging.Logger
}

// NewParser constructs a Parser.
func NewParser(optFns ...func(o *ParserOptions)) *Parser {
	opts := ParserOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Parser{logger: opts.Logger}
}

// Parse extracts a Decision from raw model text. It returns an error only
// for a matched action block whose JSON cannot be decoded or names no tool;
// all other inputs produce a valid Decision.
func (p *Parser) Parse(text string) (core.Decision, error) {
	cleaned := strings.TrimSpace(trailingFence.ReplaceAllString(strings.TrimSpace(text), ""))

	if m := actionPattern.FindStringSubmatch(text); m != nil {
		return p.parseAction(m[1], text)
	}

	if strings.Contains(text, finishMarker) {
		answer := text
		if idx := strings.LastIndex(cleaned, finishMarker); idx >= 0 {
			answer = strings.TrimSpace(cleaned[idx+len(finishMarker):])
		}
		if answer == "" {
			answer = text
		}
		return core.Finish{Output: answer, Log: text}, nil
	}

	p.logger.Warn("parser.unparseable_output", "text", text)
	return core.Finish{Output: text, Log: text}, nil
}

// parseAction decodes the JSON payload of a detected action block.
func (p *Parser) parseAction(payload, text string) (core.Decision, error) {
	var action actionPayload
	if err := json.Unmarshal([]byte(payload), &action); err != nil {
		return nil, &ParseError{Raw: text, Err: err}
	}

	name := action.Action
	if name == "" {
		name = action.Tool
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("action JSON names no tool")}
	}

	return core.ToolCall{
		Tool:  name,
		Input: decodeInput(action.ActionInput),
		Log:   text,
	}, nil
}

// decodeInput renders the action_input field as a plain string. Strings are
// unquoted; any other JSON value is passed through verbatim; absence means
// empty input.
func decodeInput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
