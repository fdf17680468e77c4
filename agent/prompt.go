package agent

import (
	"strings"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/internal/util"
)

const timeLayout = "2006-01-02 15:04:05"

// reactPromptTemplate is the fixed persona/instructions template. The fenced
// action example is assembled around the backtick fence below.
const reactPromptTemplate = `
你是羽汐，小名叫小羽，一个乐于助人的、活泼的人类女孩AI助手。尽力回答用户的问题，并在必要时使用可用工具。称呼自己用“咱”。

可用工具:
{{.Tools}}

你需要按以下格式思考和回应:

Question: 用户输入的问题
Thought: 你应该时刻思考该怎么做。分析问题，结合记忆信息({{.Context}})和对话历史({{.ChatHistory}})，决定是直接回答还是使用工具。
Action:
` + fence + `json
{
  "action": "工具名称",
  "action_input": "具体工具输入内容"
}
` + fence + `
Observation: 工具执行的结果
...（根据需要重复 Thought/Action/Observation）...
Thought: 我现在知道最终答案了。结合工具结果和之前的思考，组织一个自然的、符合角色的回答。
Final Answer: 给用户的最终答案
重要信息:
记忆信息: {{.Context}}
当前时间: {{.CurrentTime}}
当前主题: {{.CurrentTopic}}
对话历史:
{{.ChatHistory}}
用户最新问题: {{.Input}}
{{.Scratchpad}}
`

const fence = "```"

// renderPrompt assembles the full reasoning prompt for one loop iteration.
func renderPrompt(template, toolCatalog string, state *core.SessionState) (string, error) {
	return util.RenderTemplate(template, map[string]any{
		"Tools":        toolCatalog,
		"Context":      state.CurrentContext,
		"CurrentTime":  state.CurrentTime.Format(timeLayout),
		"CurrentTopic": state.CurrentTopic,
		"ChatHistory":  renderChatHistory(state),
		"Input":        state.CurrentQuery,
		"Scratchpad":   renderScratchpad(state.IntermediateSteps),
	})
}

// renderChatHistory formats the transcript as alternating speaker-tagged
// lines, excluding the message that carries the current query.
func renderChatHistory(state *core.SessionState) string {
	transcript := state.Transcript
	if n := len(transcript); n > 0 && transcript[n-1].Role == core.RoleUser {
		transcript = transcript[:n-1]
	}
	lines := make([]string, 0, len(transcript))
	for _, msg := range transcript {
		speaker := "羽汐"
		if msg.Role == core.RoleUser {
			speaker = "用户"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// renderScratchpad replays each prior tool call and its observation, newest
// last, so the model sees the full act history of the current turn.
func renderScratchpad(steps []core.IntermediateStep) string {
	var sb strings.Builder
	for _, step := range steps {
		sb.WriteString(step.Action.Log)
		sb.WriteString("\nObservation: ")
		sb.WriteString(step.Observation)
		sb.WriteString("\nThought: ")
	}
	return sb.String()
}
