// Package playback defines the contract between the voice session and
// speech synthesis adapters.
//
// A Player turns one string of text into one playback activation. Speak does
// not block for the duration of the audio; lifecycle is reported through the
// configured callbacks: Started fires when audio begins, then exactly one of
// Finished (playback ran to completion) or Cancelled (Cancel interrupted it)
// terminates the activation. An error reported through the error callback
// also terminates the activation.
//
// Callbacks are always delivered asynchronously: neither Speak nor Cancel
// invokes one before returning. Callers rely on this to issue player calls
// while holding their own locks.
package playback

import (
	"context"
	"errors"
)

// ErrAlreadySpeaking means Speak was called while a playback activation was
// still running.
var ErrAlreadySpeaking = errors.New("playback already active")

type Player interface {
	// Speak starts synthesizing and playing text. It returns once synthesis
	// has been kicked off; completion is signaled via callbacks.
	Speak(ctx context.Context, text string, opts ...Option) error

	// Cancel interrupts the current playback activation mid-utterance. It is
	// a no-op if nothing is playing and never reports an error for an
	// already-finished activation.
	Cancel() error
}

type Options struct {
	StartedCallback   func()
	FinishedCallback  func()
	CancelledCallback func()
	ErrorCallback     func(err error)
}

type Option func(*Options)

func WithStartedCallback(callback func()) Option {
	return func(o *Options) { o.StartedCallback = callback }
}

func WithFinishedCallback(callback func()) Option {
	return func(o *Options) { o.FinishedCallback = callback }
}

func WithCancelledCallback(callback func()) Option {
	return func(o *Options) { o.CancelledCallback = callback }
}

func WithErrorCallback(callback func(err error)) Option {
	return func(o *Options) { o.ErrorCallback = callback }
}
