// Package capture defines the contract between the voice session and
// streaming speech capture adapters.
//
// A Source owns the microphone and the transcription engine behind it. One
// Start call opens one capture activation: partial transcripts stream in
// through the configured callbacks until Stop signals end-of-audio, after
// which exactly one final transcript (or one error) terminates the
// activation.
//
// Callbacks are always delivered asynchronously: neither Start nor Stop
// invokes one before returning. Callers rely on this to issue source calls
// while holding their own locks.
package capture

import "context"

// Source is a restartable capture activation factory.
type Source interface {
	// Start begins streaming microphone audio into the transcription engine.
	// It returns once capture is running; transcript updates are delivered
	// through the callbacks configured via options.
	//
	// Start fails with ErrEngineUnavailable if the engine cannot be reached
	// and ErrAlreadyStarted if an activation is already running.
	Start(ctx context.Context, opts ...Option) error

	// Stop signals end-of-audio. The final transcript callback (or the error
	// callback) fires asynchronously after the engine flushes; Stop itself
	// does not wait for it. Stop is a no-op if nothing is active.
	Stop() error
}

// Options carries the per-activation callbacks.
//
// PartialTranscriptCallback receives the best transcript so far; each call
// replaces the previous value. FinalTranscriptCallback receives the terminal
// transcript for the activation and is called at most once, after which no
// further callbacks fire. ErrorCallback terminates the activation in place
// of the final transcript.
type Options struct {
	PartialTranscriptCallback func(transcript string)
	FinalTranscriptCallback   func(transcript string)
	ErrorCallback             func(err error)
}

type Option func(*Options)

func WithPartialTranscriptCallback(callback func(transcript string)) Option {
	return func(o *Options) {
		o.PartialTranscriptCallback = callback
	}
}

func WithFinalTranscriptCallback(callback func(transcript string)) Option {
	return func(o *Options) {
		o.FinalTranscriptCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) Option {
	return func(o *Options) {
		o.ErrorCallback = callback
	}
}
