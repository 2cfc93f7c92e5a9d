package session

import "fmt"

// State is one stage of the connect -> authorize -> select-instance ->
// load-state -> steady sequence.
type State int

const (
	Disconnected State = iota
	Connecting
	Authenticating
	SelectingInstance
	LoadingState
	Steady
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Authenticating:
		return "AUTHENTICATING"
	case SelectingInstance:
		return "SELECTING_INSTANCE"
	case LoadingState:
		return "LOADING_STATE"
	case Steady:
		return "STEADY"
	case ShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

var validTransitions = map[State]map[State]bool{
	Disconnected:      {Connecting: true},
	Connecting:        {Authenticating: true, SelectingInstance: true, LoadingState: true, Disconnected: true, ShuttingDown: true},
	Authenticating:    {SelectingInstance: true, Disconnected: true, ShuttingDown: true},
	SelectingInstance:  {LoadingState: true, Disconnected: true, ShuttingDown: true},
	LoadingState:      {Steady: true, Disconnected: true, ShuttingDown: true},
	Steady:            {Disconnected: true, ShuttingDown: true},
	ShuttingDown:      {Disconnected: true},
}

// IsValidTransition reports whether the FSM may move from `from` to `to`.
// Connecting -> LoadingState is the raw-connect shortcut that skips
// authentication and instance selection.
func IsValidTransition(from, to State) bool {
	if targets, ok := validTransitions[from]; ok {
		return targets[to]
	}
	return false
}
