package core

import (
	"time"
)

// Message roles used in the session transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry (a speaker-tagged line of conversation).
type Message struct {
	Role    string
	Content string
}

// Turn is one completed (query, response) exchange.
type Turn struct {
	Query    string
	Response string
}

// IntermediateStep pairs a dispatched tool call with the observation text it
// produced. Steps accumulate across the tool-use cycle of a single turn.
type IntermediateStep struct {
	Action      ToolCall
	Observation string
}

// SessionState is the long-lived, per-user conversational state threaded
// through every workflow node. It is created once per uid and mutated in
// place across turns.
//
// Ownership contract: a SessionState is owned exclusively by the turn
// currently processing it. The Runner serializes turns per uid; SessionState
// itself carries no locking.
type SessionState struct {
	// UID is the opaque session identifier. Never shared across sessions.
	UID string

	// TurnHistory is the append-only sequence of completed exchanges, in
	// chronological order.
	TurnHistory []Turn

	// Transcript is the speaker-tagged message log, including the annotated
	// form of the current query once the capture node has run.
	Transcript []Message

	// CurrentStep is the monotonically increasing turn counter.
	CurrentStep int

	// Watermarks consumed by the memory scheduler's trigger predicates.
	LastConsolidationStep int
	LastReflectionStep    int
	LastReflectionTime    time.Time

	// NewObservationCount counts memory items added since the last
	// reflection. Reflection resets it to zero.
	NewObservationCount int

	// ReflectionIntervalDays is the elapsed-time threshold feeding the
	// consolidation trigger.
	ReflectionIntervalDays int

	// Transient per-turn fields, overwritten by each turn.
	CurrentQuery     string
	CurrentTopic     string
	CurrentContext   string
	CurrentTime      time.Time
	ImageDescription string

	// ShortTermMemory snapshots the last few turns at input capture.
	ShortTermMemory []Turn

	// RetrievedMemory holds the age-filtered retrieval result of the
	// current turn, kept for debug rendering.
	RetrievedMemory []ScoredItem

	// IntermediateSteps is the tool-call scratchpad of the current
	// reasoning-act loop. Cleared at input capture only.
	IntermediateSteps []IntermediateStep

	// Outcome is the terminal decision of the current reasoning-act loop.
	Outcome Decision

	// SearchCache maps a search query to its formatted result text.
	// Session-scoped, unbounded, never evicted.
	SearchCache map[string]string
}

// NewSessionState creates the initial state for a fresh uid.
func NewSessionState(uid string) *SessionState {
	now := time.Now()
	return &SessionState{
		UID:                    uid,
		ReflectionIntervalDays: 1,
		CurrentTime:            now,
		LastReflectionTime:     now,
		SearchCache:            map[string]string{},
	}
}

// BeginTurn resets the per-loop scratch fields. Called at input capture so
// IntermediateSteps accumulate across the whole tool-use cycle of one turn.
func (s *SessionState) BeginTurn(query string, now time.Time) {
	s.CurrentQuery = query
	s.CurrentTime = now
	s.IntermediateSteps = nil
	s.Outcome = nil
	s.RetrievedMemory = nil
}

// AppendTurn records a completed exchange and advances the turn counter.
func (s *SessionState) AppendTurn(query, response string) {
	s.TurnHistory = append(s.TurnHistory, Turn{Query: query, Response: response})
	s.CurrentStep++
}

// RecentTurns returns the last n completed turns (fewer if the history is
// shorter). The returned slice aliases the history; callers must not mutate it.
func (s *SessionState) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.TurnHistory) == 0 {
		return nil
	}
	if len(s.TurnHistory) < n {
		n = len(s.TurnHistory)
	}
	return s.TurnHistory[len(s.TurnHistory)-n:]
}

// CachedSearch looks up a previously stored search result.
func (s *SessionState) CachedSearch(query string) (string, bool) {
	v, ok := s.SearchCache[query]
	return v, ok
}

// CacheSearch stores a search result keyed by the exact input string.
func (s *SessionState) CacheSearch(query, result string) {
	if s.SearchCache == nil {
		s.SearchCache = map[string]string{}
	}
	s.SearchCache[query] = result
}
