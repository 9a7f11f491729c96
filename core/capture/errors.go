package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means microphone or recognition access was not
	// granted. User-actionable.
	ErrPermissionDenied = errors.New("capture permission denied")

	// ErrEngineUnavailable means the transcription engine could not be
	// reached or initialized.
	ErrEngineUnavailable = errors.New("transcription engine unavailable")

	// ErrAlreadyStarted means Start was called while an activation was
	// already running.
	ErrAlreadyStarted = errors.New("capture already started")
)

// RecognitionError wraps a failure reported by the transcription engine
// mid-activation.
type RecognitionError struct {
	Cause error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed: %v", e.Cause)
}

func (e *RecognitionError) Unwrap() error {
	return e.Cause
}
