package search

import "github.com/samber/lo"

// State is the phase of the search loop for the current grid point.
type State string

const (
	StateIdle        State = "idle"
	StateConfiguring State = "configuring"
	StateExecuting   State = "executing"
	StateAnalyzing   State = "analyzing"
	StateScoring     State = "scoring"
	StateDone        State = "done"
)

var transitions = map[State][]State{
	StateIdle:        {StateConfiguring, StateDone},
	StateConfiguring: {StateExecuting, StateIdle},
	StateExecuting:   {StateAnalyzing, StateIdle},
	StateAnalyzing:   {StateScoring, StateIdle},
	StateScoring:     {StateIdle, StateDone},
	StateDone:        nil,
}

// CanTransition reports whether the loop may move from one state to the other.
func (s State) CanTransition(to State) bool {
	return lo.Contains(transitions[s], to)
}
