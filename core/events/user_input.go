package events

const (
	// KindUserTranscriptInterim identifies mutable interim transcript updates.
	KindUserTranscriptInterim Kind = "user_input.transcript_interim"
	// KindUserTranscriptFinal identifies the final transcript for the capture activation.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindCaptureFailed identifies a capture activation terminated by an error.
	KindCaptureFailed Kind = "user_input.capture_failed"
)

// UserTranscriptInterim carries the mutable interim transcript snapshot.
type UserTranscriptInterim struct {
	Base
	Transcript string
}

// NewUserTranscriptInterim creates an interim transcript snapshot event.
func NewUserTranscriptInterim(transcript string) UserTranscriptInterim {
	return UserTranscriptInterim{Base: NewBase(KindUserTranscriptInterim), Transcript: transcript}
}

// UserTranscriptFinal carries the final transcript, held for confirmation.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// CaptureFailed marks a capture activation that terminated with an error.
type CaptureFailed struct {
	Base
	Err error
}

// NewCaptureFailed creates a capture failed event.
func NewCaptureFailed(err error) CaptureFailed {
	return CaptureFailed{Base: NewBase(KindCaptureFailed), Err: err}
}
