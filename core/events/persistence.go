package events

// KindPersistFailed identifies a failed message save.
const KindPersistFailed Kind = "persistence.failed"

// PersistFailed marks a message that could not be saved to the configured
// store. The in-memory conversation keeps the message regardless.
type PersistFailed struct {
	Base
	MessageID string
	Err       error
}

// NewPersistFailed creates a persist failed event.
func NewPersistFailed(messageID string, err error) PersistFailed {
	return PersistFailed{Base: NewBase(KindPersistFailed), MessageID: messageID, Err: err}
}
