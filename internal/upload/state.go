package upload

import "fmt"

// State of the upload/analysis state machine.
type State int

const (
	StateEmpty State = iota
	StateStaged
	StateAnalyzing
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateStaged:
		return "staged"
	case StateAnalyzing:
		return "analyzing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for candidate := StateEmpty; candidate <= StateFailed; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown upload state %q", text)
}

// transitions lists the states reachable from each state.
//
// Staging is allowed from every state, including Analyzing, in which case the
// pending response becomes stale. Complete and Failed go back to Staged before
// a re-analysis.
var transitions = map[State][]State{
	StateEmpty:     {StateEmpty, StateStaged},
	StateStaged:    {StateEmpty, StateStaged, StateAnalyzing},
	StateAnalyzing: {StateEmpty, StateStaged, StateComplete, StateFailed},
	StateComplete:  {StateEmpty, StateStaged},
	StateFailed:    {StateEmpty, StateStaged},
}

// CanTransition reports whether the machine may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
