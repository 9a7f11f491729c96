package voicechat

import (
	"github.com/mindfuljourney/voicechat-core/core/events"
	"github.com/mindfuljourney/voicechat-core/core/providers"
)

type OrchestratorOptions struct {
	onEvent                func(events.Event)
	onInterimTranscription func(transcript string)
	onTranscription        func(transcript string)
	onCaptureFailed        func(err error)
	onUserMessage          func(msg providers.Message)
	onAssistantMessage     func(msg providers.Message)
	onTurnStateChanged     func(from, to TurnState)
	onTurnFailed           func(err error)
	onVoiceStateChanged    func(from, to VoiceState)
	onPlaybackStarted      func(text string)
	onPlaybackEnded        func(cancelled bool)
	onPersistFailed        func(err error)
}

type OrchestratorOption func(*OrchestratorOptions)

// WithEventHandler registers a callback for every event from either state
// machine. Callbacks run on the goroutine that produced the event and must
// not block.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onEvent = handler }
}

// WithInterimTranscriptionCallback fires on every interim transcript update
// while listening.
func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onInterimTranscription = callback }
}

// WithTranscriptionCallback fires with the final transcript of a capture
// activation, before the user confirms it.
func WithTranscriptionCallback(callback func(transcript string)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onTranscription = callback }
}

// WithCaptureFailedCallback fires when a capture activation terminates with
// an error. Callers typically fall back to text input.
func WithCaptureFailedCallback(callback func(err error)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onCaptureFailed = callback }
}

// WithUserMessageCallback fires when a user message enters the log.
func WithUserMessageCallback(callback func(msg providers.Message)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onUserMessage = callback }
}

// WithAssistantMessageCallback fires when an assistant reply enters the log.
func WithAssistantMessageCallback(callback func(msg providers.Message)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onAssistantMessage = callback }
}

// WithTurnStateChangedCallback fires on every conversation turn transition.
func WithTurnStateChangedCallback(callback func(from, to TurnState)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onTurnStateChanged = callback }
}

// WithTurnFailedCallback fires when response generation fails.
func WithTurnFailedCallback(callback func(err error)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onTurnFailed = callback }
}

// WithVoiceStateChangedCallback fires on every voice state transition.
func WithVoiceStateChangedCallback(callback func(from, to VoiceState)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onVoiceStateChanged = callback }
}

// WithPlaybackStartedCallback fires when synthesized speech begins playing.
func WithPlaybackStartedCallback(callback func(text string)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onPlaybackStarted = callback }
}

// WithPlaybackEndedCallback fires when playback terminates, with cancelled
// reporting whether it was interrupted rather than ran to completion.
func WithPlaybackEndedCallback(callback func(cancelled bool)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onPlaybackEnded = callback }
}

// WithPersistFailedCallback fires when a message could not be saved to the
// configured store.
func WithPersistFailedCallback(callback func(err error)) OrchestratorOption {
	return func(o *OrchestratorOptions) { o.onPersistFailed = callback }
}
