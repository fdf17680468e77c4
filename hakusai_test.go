package hakusai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/model"
	"github.com/modemneko/HakusAI/tool"
)

type cannedSearcher struct{}

func (cannedSearcher) Lookup(context.Context, string) ([]core.SearchResult, error) {
	return []core.SearchResult{
		{Title: "北京天气", Snippet: "晴，23度", Link: "https://example.com/weather"},
	}, nil
}

func TestHakusAI_Chat(t *testing.T) {
	completer := model.NewMockCompleter()
	completer.AddRule("用户最新问题", "Final Answer: 你好呀，咱是小羽！")

	ai := New(completer)
	resp, err := ai.Chat(context.Background(), "u1", "你好")
	require.NoError(t, err)
	assert.Equal(t, "你好呀，咱是小羽！", resp)
}

func TestHakusAI_ChatWithSearchTool(t *testing.T) {
	completer := model.NewMockCompleter()
	completer.AddRule("Title: 北京天气", "Final Answer: 今天北京晴，23度哦！")
	completer.AddRule("用户最新问题: 今天北京天气",
		"Action:\n```json\n{\"action\": \"search\", \"action_input\": \"今天北京天气\"}\n```")

	ai := New(completer, func(o *Options) {
		o.Searcher = cannedSearcher{}
	})

	resp, err := ai.Chat(context.Background(), "u1", "今天北京天气")
	require.NoError(t, err)
	assert.Equal(t, "今天北京晴，23度哦！", resp)
	assert.Contains(t, ai.Runner().TurnLog("u1"), "- search: ")
}

func TestHakusAI_ChatWithCustomTool(t *testing.T) {
	completer := model.NewMockCompleter()
	completer.AddRule("Observation: 42", "Final Answer: 答案是 42！")
	completer.AddRule("用户最新问题",
		"Action:\n```json\n{\"action\": \"oracle\", \"action_input\": \"问题\"}\n```")

	ai := New(completer, func(o *Options) {
		o.Tools = []tool.Tool{tool42{}}
	})

	resp, err := ai.Chat(context.Background(), "u1", "宇宙的答案是什么")
	require.NoError(t, err)
	assert.Equal(t, "答案是 42！", resp)
}

type tool42 struct{}

func (tool42) Name() string        { return "oracle" }
func (tool42) Description() string { return "回答终极问题" }

func (tool42) Call(*core.ToolContext, string) (string, error) {
	return "42", nil
}
