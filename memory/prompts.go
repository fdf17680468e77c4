package memory

// Prompt templates for the scheduler's reasoning-service calls. Rendered via
// internal/util.RenderTemplate.

const intentPrompt = `
基于用户查询和对话历史，判断用户意图和主题，返回格式：
意图：<意图类型>
主题：<主要话题>
用户查询：{{.Query}}
对话历史：{{.History}}
意图类型：
- ask_personal_info_name
- ask_personal_info_location
- ask_preference
- confirm_info
- request_action
- request_info
- general_chat
`

const extractPrompt = `
基于用户的提问、回答和图片描述，提取个人信息、偏好、习惯、情感或行为。
用户问题：{{.Query}}
回答：{{.Response}}
历史：{{.History}}
时间：{{.CurrentTime}}
情感强度：{{.EmotionDict}}
图片描述：{{.ImageDescription}}

任务：
1. 提取个人信息：` + "`类型=内容`" + `，如 ` + "`姓名=小明`" + `
2. 提取偏好/习惯/情感/行为：简要描述，如 ` + "`喜欢蓝色`" + `
3. 无信息则返回 "无"
4. 格式：` + "`个人信息: 类型1=内容1 | 偏好: 内容1 | 习惯: 内容1 | 情感: 内容1 | 行为: 内容1`" + `
`

const consolidationPrompt = `
回顾对话历史：
{{.History}}
时间：{{.CurrentTime}}
提取 1-3 条关键观察结论，如核心偏好、个人信息更新。若无信息则返回 "无"。
格式：
- <观察点1>
- <观察点2>
或 "无"
`

const reflectionPrompt = `
观察：
{{.Observations}}
历史：
{{.History}}
时间：{{.CurrentTime}}
情感：{{.EmotionDict}}
生成 1-3 条高层洞察，检查矛盾。
格式：
洞察总结:
- <洞察1>
发现的矛盾:
- <矛盾1> -> <说明>
或 "无"
`

// emotionIntensity is the lexicon handed to the extraction and reflection
// prompts so the model weighs affect terms consistently. Order is fixed for
// deterministic prompt rendering.
var emotionIntensity = []struct {
	Term   string
	Weight float64
}{
	{"超级喜欢", 1.5}, {"非常喜欢", 1.0}, {"很喜欢", 0.8}, {"喜欢", 0.6}, {"有点喜欢", 0.3}, {"还行", 0.2},
	{"完全讨厌", 1.5}, {"非常讨厌", 1.2}, {"很讨厌", 1.0}, {"讨厌", 0.8}, {"有点讨厌", 0.4}, {"不喜欢", 0.3},
	{"无所谓", 0.1}, {"随便", 0.1}, {"一般", 0.2},
}
