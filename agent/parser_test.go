package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modemneko/HakusAI/core"
)

func TestParser_ActionBlock(t *testing.T) {
	p := NewParser()

	text := "Thought: 需要查一下。\nAction:\n```json\n{\"action\": \"search\", \"action_input\": \"北京今天天气\"}\n```"
	decision, err := p.Parse(text)
	require.NoError(t, err)

	call, ok := decision.(core.ToolCall)
	require.True(t, ok, "expected a ToolCall, got %T", decision)
	assert.Equal(t, "search", call.Tool)
	assert.Equal(t, "北京今天天气", call.Input)
	assert.Equal(t, text, call.RawLog())
}

func TestParser_ActionPrecedesFinalAnswer(t *testing.T) {
	// A tool call with trailing commentary is common model behavior; the
	// action block must win even when both markers are present.
	p := NewParser()

	text := "Action:\n```json\n{\"action\": \"search\", \"action_input\": \"天气\"}\n```\n" +
		"Final Answer: 我还不知道呢"
	decision, err := p.Parse(text)
	require.NoError(t, err)

	_, ok := decision.(core.ToolCall)
	assert.True(t, ok, "action block must take precedence, got %T", decision)
}

func TestParser_ToolAliasAndNumberedAction(t *testing.T) {
	p := NewParser()

	decision, err := p.Parse("Action 2:\n```json\n{\"tool\": \"search\", \"action_input\": \"q\"}\n```")
	require.NoError(t, err)

	call, ok := decision.(core.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "search", call.Tool)
}

func TestParser_MissingActionInputDefaultsEmpty(t *testing.T) {
	p := NewParser()

	decision, err := p.Parse("Action:\n```json\n{\"action\": \"search\"}\n```")
	require.NoError(t, err)

	call, ok := decision.(core.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "", call.Input)
}

func TestParser_MalformedActionJSON(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("Action:\n```json\n{\"action\": \"search\",}\n```")
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestParser_ActionJSONWithoutToolName(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("Action:\n```json\n{\"action_input\": \"q\"}\n```")
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestParser_FinalAnswer(t *testing.T) {
	p := NewParser()

	decision, err := p.Parse("Thought: 我知道了。\nFinal Answer: 今天北京晴。")
	require.NoError(t, err)

	finish, ok := decision.(core.Finish)
	require.True(t, ok)
	assert.Equal(t, "今天北京晴。", finish.Output)
}

func TestParser_FinalAnswerLastOccurrenceWins(t *testing.T) {
	p := NewParser()

	decision, err := p.Parse("Final Answer: 草稿\n想了想还是改一下。\nFinal Answer: 最终版本")
	require.NoError(t, err)

	finish, ok := decision.(core.Finish)
	require.True(t, ok)
	assert.Equal(t, "最终版本", finish.Output)
}

func TestParser_FinalAnswerStripsTrailingFence(t *testing.T) {
	p := NewParser()

	decision, err := p.Parse("Final Answer: 好的呀\n```")
	require.NoError(t, err)

	finish, ok := decision.(core.Finish)
	require.True(t, ok)
	assert.Equal(t, "好的呀", finish.Output)
}

func TestParser_EmptyFinalAnswerFallsBackToFullText(t *testing.T) {
	p := NewParser()

	text := "Final Answer:"
	decision, err := p.Parse(text)
	require.NoError(t, err)

	finish, ok := decision.(core.Finish)
	require.True(t, ok)
	assert.Equal(t, text, finish.Output)
}

func TestParser_FailOpenOnPlainText(t *testing.T) {
	// Neither marker: the session must never hard-stop on a misformatted
	// reply, so the whole text becomes the answer.
	p := NewParser()

	for _, text := range []string{"你好呀，咱是小羽！", "", "Thought: 嗯……"} {
		decision, err := p.Parse(text)
		require.NoError(t, err)

		finish, ok := decision.(core.Finish)
		require.True(t, ok, "input %q", text)
		assert.Equal(t, text, finish.Output)
		assert.Equal(t, text, finish.RawLog())
	}
}
