package voicechat

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied means microphone or speech recognition access was not
// granted. Surfaced to the user with a prompt to grant access.
var ErrPermissionDenied = errors.New("microphone permission not granted")

// InvalidStateError reports an operation invoked from a conversation turn
// state that does not permit it. It signals a caller ordering bug, not a
// user-facing condition.
type InvalidStateError struct {
	Operation string
	State     TurnState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not valid in state %q", e.Operation, e.State)
}

// AlreadyActiveError reports a voice command that would start capture or
// playback while another activation is running. The orchestrator prevents
// this in normal flow; seeing it means a caller bypassed the command queue.
type AlreadyActiveError struct {
	Operation string
	State     VoiceState
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("%s rejected, voice session is %q", e.Operation, e.State)
}
