package rescue

import "fmt"

// State is the position of a Runner in its submission lifecycle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateWaitingForResolution
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateWaitingForResolution:
		return "waiting_for_resolution"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further cycles will run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
