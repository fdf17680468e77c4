// Package memory implements the long-term memory side of the orchestrator:
// similarity retrieval that feeds the reasoning prompt, per-turn fact
// extraction, periodic consolidation of the conversation window into
// observations, and reflection that distills observations into insights.
// It also provides a process-local in-memory vector store for tests and
// demos.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/internal/util"
	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/model"
)

const timeLayout = "2006-01-02 15:04:05"

// intentResultBudget maps a classified intent to the number of memories
// retrieved for it. Unlisted intents fall back to the general-chat budget.
var intentResultBudget = map[string]int{
	"ask_personal_info_name":     3,
	"ask_personal_info_location": 3,
	"ask_preference":             4,
	"confirm_info":               3,
	"request_action":             4,
	"request_info":               4,
	"general_chat":               5,
}

const defaultResultBudget = 5

// Options configures a Scheduler.
type Options struct {
	// ConsolidationStepInterval is the turn-count threshold of the
	// consolidation trigger.
	ConsolidationStepInterval int

	// ReflectionObservationThreshold is the new-observation count that
	// triggers reflection.
	ReflectionObservationThreshold int

	// MaxMemoryAge filters retrieved items older than this relative to the
	// turn's capture time.
	MaxMemoryAge time.Duration

	// Logger receives structured scheduler logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Scheduler decides when to consolidate and reflect, and performs the
// summarization/extraction calls that populate long-term memory.
//
// Failure semantics: reasoning-service and store failures degrade (skipped
// extraction, empty context) rather than abort the turn, and the trigger
// watermarks always advance together with their guarded action so the same
// window is never reprocessed.
type Scheduler struct {
	completer model.Completer
	store     core.VectorStore
	logger    logging.Logger

	consolidationStepInterval      int
	reflectionObservationThreshold int
	maxMemoryAge                   time.Duration
}

// New constructs a Scheduler over a reasoning service and a vector store.
func New(completer model.Completer, store core.VectorStore, optFns ...func(o *Options)) *Scheduler {
	opts := Options{
		ConsolidationStepInterval:      5,
		ReflectionObservationThreshold: 3,
		MaxMemoryAge:                   30 * 24 * time.Hour,
		Logger:                         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Scheduler{
		completer:                      completer,
		store:                          store,
		logger:                         opts.Logger,
		consolidationStepInterval:      opts.ConsolidationStepInterval,
		reflectionObservationThreshold: opts.ReflectionObservationThreshold,
		maxMemoryAge:                   opts.MaxMemoryAge,
	}
}

// RetrieveContext classifies the query's intent and topic, retrieves an
// intent-sized set of memories, age-filters them and renders the result into
// state.CurrentContext.
//
// Retrieval over-fetches by 2x (at least 10) before the age filter so
// stale-but-similar matches cannot crowd out fresh ones.
func (s *Scheduler) RetrieveContext(ctx context.Context, state *core.SessionState) error {
	intent, topic := s.classifyIntent(ctx, state)
	state.CurrentTopic = topic

	k, ok := intentResultBudget[intent]
	if !ok {
		k = defaultResultBudget
	}
	fetchK := 2 * k
	if fetchK < 10 {
		fetchK = 10
	}

	results, err := s.store.Search(ctx, state.UID, state.CurrentQuery, fetchK, nil)
	if err != nil {
		s.logger.Error("memory.retrieve.search_failed", "uid", state.UID, "error", err.Error())
		results = nil
	}

	cutoff := state.CurrentTime.Add(-s.maxMemoryAge)
	fresh := make([]core.ScoredItem, 0, k)
	for _, res := range results {
		if res.Item.Timestamp.Before(cutoff) {
			continue
		}
		fresh = append(fresh, res)
		if len(fresh) == k {
			break
		}
	}
	state.RetrievedMemory = fresh

	lines := make([]string, 0, len(fresh))
	for _, res := range fresh {
		lines = append(lines, "- "+res.Item.Content)
	}
	context := strings.Join(lines, "\n")
	if context == "" {
		context = "无相关记忆"
	}
	if state.ImageDescription != "" {
		context += "\n图片描述: " + state.ImageDescription
	}
	state.CurrentContext = context

	s.logger.Info("memory.retrieve.done",
		"uid", state.UID, "intent", intent, "topic", topic,
		"fetched", len(results), "kept", len(fresh))
	return nil
}

// classifyIntent runs the intent/topic prompt. Transport failures and
// unrecognized output both degrade to general chat.
func (s *Scheduler) classifyIntent(ctx context.Context, state *core.SessionState) (intent, topic string) {
	intent, topic = "general_chat", "未知"

	prompt, err := util.RenderTemplate(intentPrompt, map[string]any{
		"Query":   state.CurrentQuery,
		"History": renderHistory(state.RecentTurns(3)),
	})
	if err != nil {
		s.logger.Error("memory.intent.render_failed", "uid", state.UID, "error", err.Error())
		return intent, topic
	}

	result, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("memory.intent.classify_failed", "uid", state.UID, "error", err.Error())
		return intent, topic
	}

	result = strings.TrimSpace(result)
	if _, rest, ok := strings.Cut(result, "意图："); ok {
		line, _, _ := strings.Cut(rest, "\n")
		intent = strings.TrimSpace(line)
	}
	if _, rest, ok := strings.Cut(result, "主题："); ok {
		topic = strings.TrimSpace(rest)
	}
	return intent, topic
}

// ExtractFacts mines the just-completed (query, response, image description)
// for personal-info, preference, habit, emotion and behavior facts and
// inserts them as memory items. A "无" reply is a valid no-op; a part
// missing its category delimiter is skipped with a warning, never fatal.
func (s *Scheduler) ExtractFacts(ctx context.Context, state *core.SessionState) error {
	response := ""
	if n := len(state.TurnHistory); n > 0 {
		response = state.TurnHistory[n-1].Response
	}

	prompt, err := util.RenderTemplate(extractPrompt, map[string]any{
		"Query":            state.CurrentQuery,
		"Response":         response,
		"History":          renderHistory(state.RecentTurns(3)),
		"CurrentTime":      state.CurrentTime.Format(timeLayout),
		"EmotionDict":      emotionLexicon(),
		"ImageDescription": state.ImageDescription,
	})
	if err != nil {
		s.logger.Error("memory.extract.render_failed", "uid", state.UID, "error", err.Error())
		return nil
	}

	result, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("memory.extract.failed", "uid", state.UID, "error", err.Error())
		return nil
	}

	result = strings.TrimSpace(result)
	if result == "" || result == "无" {
		s.logger.Info("memory.extract.nothing", "uid", state.UID)
		return nil
	}

	items := s.parseExtraction(state, result)
	if len(items) == 0 {
		s.logger.Info("memory.extract.no_valid_items", "uid", state.UID)
		return nil
	}

	if err := s.store.Insert(ctx, state.UID, items); err != nil {
		s.logger.Error("memory.extract.insert_failed", "uid", state.UID, "error", err.Error())
		return nil
	}
	state.NewObservationCount += len(items)
	s.logger.Info("memory.extract.stored", "uid", state.UID, "items", len(items))
	return nil
}

// parseExtraction decodes the pipe-delimited category format. Malformed
// parts are skipped; unknown categories are ignored.
func (s *Scheduler) parseExtraction(state *core.SessionState, result string) []core.MemoryItem {
	var items []core.MemoryItem
	for _, part := range strings.Split(result, " | ") {
		category, content, ok := strings.Cut(part, ":")
		if !ok {
			s.logger.Warn("memory.extract.malformed_part", "uid", state.UID, "part", part)
			continue
		}
		category = strings.TrimSpace(category)

		var memType core.MemoryType
		switch category {
		case "个人信息":
			memType = core.MemoryTypePersonalInfo
		case "偏好", "习惯", "情感", "行为":
			memType = core.MemoryTypePreference
		default:
			continue
		}

		for _, raw := range strings.Split(content, ";") {
			fact := strings.TrimSpace(raw)
			if fact == "" {
				continue
			}
			items = append(items, core.MemoryItem{
				Content:   category + ": " + fact,
				Type:      memType,
				Timestamp: state.CurrentTime,
				Step:      state.CurrentStep,
			})
		}
	}
	return items
}

// ShouldConsolidate is the consolidation trigger predicate: enough turns
// since the last consolidation, or enough days since the last reflection.
// The elapsed-time arm deliberately compares against the reflection
// timestamp, matching the long-standing behavior of this trigger.
func (s *Scheduler) ShouldConsolidate(state *core.SessionState) bool {
	if state.CurrentStep-state.LastConsolidationStep >= s.consolidationStepInterval {
		return true
	}
	days := int(state.CurrentTime.Sub(state.LastReflectionTime).Hours() / 24)
	return days >= state.ReflectionIntervalDays
}

// Consolidate summarizes all turns since the last consolidation into up to
// three observation memories. The watermark advances to the current step
// whether or not anything was produced, so the window is never re-scanned.
func (s *Scheduler) Consolidate(ctx context.Context, state *core.SessionState) error {
	defer func() { state.LastConsolidationStep = state.CurrentStep }()

	window := state.TurnHistory
	if state.LastConsolidationStep < len(window) {
		window = window[state.LastConsolidationStep:]
	} else {
		window = nil
	}
	if len(window) == 0 {
		return nil
	}

	lines := make([]string, 0, len(window))
	for _, turn := range window {
		lines = append(lines, fmt.Sprintf("[%s -> %s]", turn.Query, turn.Response))
	}

	prompt, err := util.RenderTemplate(consolidationPrompt, map[string]any{
		"History":     strings.Join(lines, "\n"),
		"CurrentTime": state.CurrentTime.Format(timeLayout),
	})
	if err != nil {
		s.logger.Error("memory.consolidate.render_failed", "uid", state.UID, "error", err.Error())
		return nil
	}

	result, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("memory.consolidate.failed", "uid", state.UID, "error", err.Error())
		return nil
	}
	result = strings.TrimSpace(result)
	if result == "无" {
		return nil
	}

	var items []core.MemoryItem
	for _, line := range strings.Split(result, "\n") {
		obs, ok := strings.CutPrefix(strings.TrimSpace(line), "- ")
		if !ok || strings.TrimSpace(obs) == "" {
			continue
		}
		items = append(items, core.MemoryItem{
			Content:   strings.TrimSpace(obs),
			Type:      core.MemoryTypeObservation,
			Timestamp: state.CurrentTime,
			Step:      state.CurrentStep,
		})
	}
	if len(items) == 0 {
		return nil
	}

	if err := s.store.Insert(ctx, state.UID, items); err != nil {
		s.logger.Error("memory.consolidate.insert_failed", "uid", state.UID, "error", err.Error())
		return nil
	}
	state.NewObservationCount += len(items)
	s.logger.Info("memory.consolidate.stored", "uid", state.UID, "observations", len(items))
	return nil
}

// ShouldReflect is the reflection trigger predicate.
func (s *Scheduler) ShouldReflect(state *core.SessionState) bool {
	return state.NewObservationCount >= s.reflectionObservationThreshold
}

// Reflect retrieves every memory created after the last reflection,
// distills up to three higher-level insights (plus any detected
// contradictions) and stores the insights. The observation counter resets
// and both reflection watermarks advance unconditionally, even when zero
// insights were produced.
func (s *Scheduler) Reflect(ctx context.Context, state *core.SessionState) error {
	defer func() {
		state.NewObservationCount = 0
		state.LastReflectionStep = state.CurrentStep
		state.LastReflectionTime = state.CurrentTime
	}()

	stepGT := state.LastReflectionStep
	recent, err := s.store.Search(ctx, state.UID, "", 10, &core.SearchFilter{StepGreaterThan: &stepGT})
	if err != nil {
		s.logger.Error("memory.reflect.search_failed", "uid", state.UID, "error", err.Error())
		return nil
	}
	if len(recent) == 0 {
		return nil
	}

	obsLines := make([]string, 0, len(recent))
	for _, res := range recent {
		obsLines = append(obsLines, "- "+res.Item.Content)
	}

	prompt, err := util.RenderTemplate(reflectionPrompt, map[string]any{
		"Observations": strings.Join(obsLines, "\n"),
		"History":      renderHistory(state.RecentTurns(10)),
		"CurrentTime":  state.CurrentTime.Format(timeLayout),
		"EmotionDict":  emotionLexicon(),
	})
	if err != nil {
		s.logger.Error("memory.reflect.render_failed", "uid", state.UID, "error", err.Error())
		return nil
	}

	result, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("memory.reflect.failed", "uid", state.UID, "error", err.Error())
		return nil
	}

	insights, contradictions := parseReflection(result)
	if len(contradictions) > 0 {
		s.logger.Info("memory.reflect.contradictions", "uid", state.UID, "count", len(contradictions))
	}

	var items []core.MemoryItem
	for _, insight := range insights {
		if insight == "无" {
			return nil
		}
		items = append(items, core.MemoryItem{
			Content:   insight,
			Type:      core.MemoryTypeInsight,
			Timestamp: state.CurrentTime,
			Step:      state.CurrentStep,
		})
	}
	if len(items) == 0 {
		return nil
	}

	if err := s.store.Insert(ctx, state.UID, items); err != nil {
		s.logger.Error("memory.reflect.insert_failed", "uid", state.UID, "error", err.Error())
		return nil
	}
	s.logger.Info("memory.reflect.stored", "uid", state.UID, "insights", len(items))
	return nil
}

// parseReflection splits the sectioned reflection reply into insight and
// contradiction bullet lists.
func parseReflection(result string) (insights, contradictions []string) {
	section := ""
	for _, raw := range strings.Split(result, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "洞察总结:"):
			section = "insights"
		case strings.HasPrefix(line, "发现的矛盾:"):
			section = "contradictions"
		case strings.HasPrefix(line, "- ") && section == "insights":
			insights = append(insights, strings.TrimSpace(line[len("- "):]))
		case strings.HasPrefix(line, "- ") && section == "contradictions":
			contradictions = append(contradictions, strings.TrimSpace(line[len("- "):]))
		}
	}
	return insights, contradictions
}

// renderHistory formats turns as "问: … 答: …" lines, or a placeholder when
// the history is empty.
func renderHistory(turns []core.Turn) string {
	if len(turns) == 0 {
		return "无历史"
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("问: %s 答: %s", turn.Query, turn.Response))
	}
	return strings.Join(lines, "\n")
}

// emotionLexicon renders the fixed affect-term weights for prompt use.
func emotionLexicon() string {
	parts := make([]string, 0, len(emotionIntensity))
	for _, e := range emotionIntensity {
		parts = append(parts, e.Term+"="+strconv.FormatFloat(e.Weight, 'g', -1, 64))
	}
	return strings.Join(parts, ", ")
}
