package events

// KindSessionStarted identifies the start of a conversation session.
const KindSessionStarted Kind = "session.started"

// SessionStarted marks a new conversation session with its greeting posted.
type SessionStarted struct {
	Base
	SessionID     string
	SessionNumber int
}

// NewSessionStarted creates a session started event.
func NewSessionStarted(sessionID string, sessionNumber int) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), SessionID: sessionID, SessionNumber: sessionNumber}
}
