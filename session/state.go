package session

import "fmt"

// State is the lifecycle stage of a Session.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	AwaitingResponse
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case AwaitingResponse:
		return "awaiting_response"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition other than resource release is possible.
func (s State) Terminal() bool {
	return s == Closed || s == Failed
}
