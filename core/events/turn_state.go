package events

const (
	// KindTurnStateChanged identifies a conversation turn state transition.
	KindTurnStateChanged Kind = "turn_state.changed"
	// KindTurnFailed identifies a turn that ended in the error state.
	KindTurnFailed Kind = "turn_state.failed"
)

// TurnStateChanged marks a transition of the conversation turn machine.
// States are carried as their string names so receivers do not depend on the
// engine package.
type TurnStateChanged struct {
	Base
	From string
	To   string
}

// NewTurnStateChanged creates a turn state transition event.
func NewTurnStateChanged(from, to string) TurnStateChanged {
	return TurnStateChanged{Base: NewBase(KindTurnStateChanged), From: from, To: to}
}

// TurnFailed marks a turn that failed during response generation.
type TurnFailed struct {
	Base
	Err error
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(err error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), Err: err}
}
