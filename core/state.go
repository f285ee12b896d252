package core

// Route is the per-stage decision value controlling which graph transition
// fires next. It is mutated only by the router and tool executor stages.
type Route string

const (
	// RouteUnset is the zero value before the router has run.
	RouteUnset Route = ""
	// RouteDirect answers from model knowledge without tools.
	RouteDirect Route = "direct"
	// RouteToolUse sends the turn through the tool executor loop.
	RouteToolUse Route = "tool_use"
	// RouteClarification asks the user for more information.
	RouteClarification Route = "clarification"
	// RouteSynthesize terminates the tool loop and produces the final answer.
	RouteSynthesize Route = "synthesize"
)

// DefaultLoopLimit caps tool executor passes per turn.
const DefaultLoopLimit = 5

// TurnState is the mutable record threaded through one orchestration run.
// It is owned exclusively by that run and never shared across concurrent
// runs. History is append-only; Answer is set once by the synthesizer.
type TurnState struct {
	// ConversationID ties the turn to a stored conversation, if any.
	ConversationID string `json:"conversation_id,omitempty"`
	// Input is the raw user text that started this run.
	Input string `json:"input"`
	// History is the ordered conversation, appends only within a run.
	History []Message `json:"history"`
	// Route drives graph transitions.
	Route Route `json:"route"`
	// Team is set once by the optional classifier stage, read-only after.
	Team string `json:"team,omitempty"`
	// LoopCount increments exactly once per tool executor pass that
	// performed at least one tool call.
	LoopCount int `json:"loop_count"`
	// LoopLimit is the fixed ceiling for LoopCount.
	LoopLimit int `json:"loop_limit"`
	// Invocations is the append-only tool call log for the run.
	Invocations []Invocation `json:"invocations,omitempty"`
	// Answer is empty until the synthesizer runs, immutable afterwards.
	Answer string `json:"answer,omitempty"`
}

// NewTurnState builds the initial state for a run. Prior history, when
// given, is copied and the new user message appended; otherwise the history
// starts with just the user message.
func NewTurnState(input string, prior []Message) *TurnState {
	history := make([]Message, 0, len(prior)+1)
	history = append(history, prior...)
	history = append(history, UserMessage(input))
	return &TurnState{
		Input:     input,
		History:   history,
		Route:     RouteUnset,
		LoopLimit: DefaultLoopLimit,
	}
}

// Append adds messages to the history.
func (s *TurnState) Append(msgs ...Message) {
	s.History = append(s.History, msgs...)
}

// Record appends tool invocation records to the log.
func (s *TurnState) Record(invs ...Invocation) {
	s.Invocations = append(s.Invocations, invs...)
}

// Clone returns a deep-enough copy for streaming snapshots: slices are
// copied so later stages cannot mutate an emitted snapshot. Message and
// Invocation payloads are treated as immutable once appended.
func (s *TurnState) Clone() *TurnState {
	if s == nil {
		return nil
	}
	c := *s
	c.History = make([]Message, len(s.History))
	copy(c.History, s.History)
	c.Invocations = make([]Invocation, len(s.Invocations))
	copy(c.Invocations, s.Invocations)
	return &c
}
