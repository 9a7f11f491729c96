package events

const (
	// KindPlaybackStarted identifies the start of speech playback.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies playback that ran to completion.
	KindPlaybackEnded Kind = "playback.ended"
	// KindPlaybackCancelled identifies playback interrupted mid-utterance.
	KindPlaybackCancelled Kind = "playback.cancelled"
	// KindPlaybackFailed identifies a playback activation terminated by an error.
	KindPlaybackFailed Kind = "playback.failed"
)

// PlaybackStarted marks the start of speech playback for a reply.
type PlaybackStarted struct {
	Base
	Text string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(text string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Text: text}
}

// PlaybackEnded marks playback that ran to completion.
type PlaybackEnded struct{ Base }

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded() PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded)}
}

// PlaybackCancelled marks playback that was interrupted.
type PlaybackCancelled struct{ Base }

// NewPlaybackCancelled creates a playback cancelled event.
func NewPlaybackCancelled() PlaybackCancelled {
	return PlaybackCancelled{Base: NewBase(KindPlaybackCancelled)}
}

// PlaybackFailed marks a playback activation that terminated with an error.
type PlaybackFailed struct {
	Base
	Err error
}

// NewPlaybackFailed creates a playback failed event.
func NewPlaybackFailed(err error) PlaybackFailed {
	return PlaybackFailed{Base: NewBase(KindPlaybackFailed), Err: err}
}
