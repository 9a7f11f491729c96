package voicechat

import (
	"context"
	"fmt"
	"sync"

	"github.com/mindfuljourney/voicechat-core/core/capture"
	"github.com/mindfuljourney/voicechat-core/core/events"
	"github.com/mindfuljourney/voicechat-core/core/playback"
)

// VoiceState is the voice machine's state.
type VoiceState string

const (
	// VoiceIdle means neither capture nor playback is active.
	VoiceIdle VoiceState = "idle"
	// VoiceListening means the capture source is streaming transcript updates.
	VoiceListening VoiceState = "listening"
	// VoiceProcessing means end-of-audio was signalled and the final
	// transcript has not arrived yet.
	VoiceProcessing VoiceState = "processing"
	// VoiceSpeaking means synthesized speech is playing.
	VoiceSpeaking VoiceState = "speaking"
)

// VoiceSession owns one capture source and one speech player and guarantees
// at most one of them is active at a time. Listening and speaking are
// mutually exclusive; commands that would overlap activations are rejected
// with [*AlreadyActiveError] rather than queued, so ordering bugs in the
// caller surface instead of hiding.
//
// Every capture or playback activation is tagged with a counter; adapter
// callbacks that arrive after the activation was superseded are dropped.
// Adapter start/stop calls run under the session lock, so the state never
// reports [VoiceIdle] while a resource is still being torn down. This
// requires adapters to deliver their callbacks asynchronously, which both
// bundled adapters do.
type VoiceSession struct {
	captureSource     capture.Source
	player            playback.Player
	permissionGranted bool
	emit              eventEmitter

	mu         sync.Mutex
	state      VoiceState
	activation uint64
	partial    string
	transcript *string
	captureErr error
	// captureDone is closed when the current capture activation terminates,
	// releasing anyone blocked in StopListening.
	captureDone chan struct{}
}

type VoiceSessionOption func(*VoiceSession)

// WithMicrophonePermission records whether microphone and recognition access
// was granted at startup. Without it every StartListening fails with
// [ErrPermissionDenied].
func WithMicrophonePermission(granted bool) VoiceSessionOption {
	return func(s *VoiceSession) { s.permissionGranted = granted }
}

// WithSessionEventHandler registers a callback for voice session events.
func WithSessionEventHandler(handler func(events.Event)) VoiceSessionOption {
	return func(s *VoiceSession) { s.emit = handler }
}

func NewVoiceSession(captureSource capture.Source, player playback.Player, opts ...VoiceSessionOption) (*VoiceSession, error) {
	if captureSource == nil {
		return nil, fmt.Errorf("capture source is required")
	}
	if player == nil {
		return nil, fmt.Errorf("speech player is required")
	}

	session := &VoiceSession{
		captureSource:     captureSource,
		player:            player,
		permissionGranted: true,
		state:             VoiceIdle,
		emit:              noopEventEmitter,
	}
	for _, opt := range opts {
		opt(session)
	}
	if session.emit == nil {
		session.emit = noopEventEmitter
	}

	return session, nil
}

// State reports the current voice state. The value is a snapshot and may be
// stale by the time the caller acts on it.
func (s *VoiceSession) State() VoiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PartialTranscript reports the latest interim transcript while listening.
func (s *VoiceSession) PartialTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial
}

// StartListening begins a capture activation. Valid only from [VoiceIdle];
// it never cancels an active playback itself, that policy belongs to the
// orchestrator.
func (s *VoiceSession) StartListening(ctx context.Context) error {
	s.mu.Lock()
	if !s.permissionGranted {
		s.mu.Unlock()
		return ErrPermissionDenied
	}
	if s.state != VoiceIdle {
		state := s.state
		s.mu.Unlock()
		return &AlreadyActiveError{Operation: "start listening", State: state}
	}

	s.activation++
	act := s.activation
	s.state = VoiceListening
	s.partial = ""
	s.transcript = nil
	s.captureErr = nil
	s.captureDone = make(chan struct{})

	err := s.captureSource.Start(ctx,
		capture.WithPartialTranscriptCallback(func(transcript string) {
			s.handlePartialTranscript(act, transcript)
		}),
		capture.WithFinalTranscriptCallback(func(transcript string) {
			s.handleFinalTranscript(act, transcript)
		}),
		capture.WithErrorCallback(func(err error) {
			s.handleCaptureError(act, err)
		}),
	)
	if err != nil {
		s.activation++
		s.state = VoiceIdle
		s.captureDone = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to start capture: %w", err)
	}
	s.mu.Unlock()

	s.emit(events.NewVoiceStateChanged(string(VoiceIdle), string(VoiceListening)))
	return nil
}

// StopListening signals end-of-audio and blocks until the final transcript
// or a capture error arrives. A successful final transcript is retained for
// [VoiceSession.ConsumeTranscript]; on error it is discarded and the capture
// error is returned. Safe to call from any state; a no-op when nothing is
// being captured.
func (s *VoiceSession) StopListening(ctx context.Context) error {
	wait := s.beginStopListening()
	if wait == nil {
		return nil
	}
	return wait(ctx)
}

// beginStopListening performs the non-blocking half of StopListening: the
// transition to [VoiceProcessing] and the end-of-audio signal. It returns
// nil when nothing is being captured, otherwise a wait function that blocks
// until the activation terminates.
func (s *VoiceSession) beginStopListening() func(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case VoiceListening:
		s.state = VoiceProcessing
		done := s.captureDone
		if err := s.captureSource.Stop(); err != nil {
			logger.Warn("failed to signal end of audio", "error", err)
		}
		s.mu.Unlock()

		s.emit(events.NewVoiceStateChanged(string(VoiceListening), string(VoiceProcessing)))
		return s.waitForCapture(done)
	case VoiceProcessing:
		done := s.captureDone
		s.mu.Unlock()
		return s.waitForCapture(done)
	default:
		s.mu.Unlock()
		return nil
	}
}

func (s *VoiceSession) waitForCapture(done chan struct{}) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if done != nil {
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		return s.captureErr
	}
}

// ConsumeTranscript returns the retained final transcript and clears it.
// Each final transcript can be consumed exactly once.
func (s *VoiceSession) ConsumeTranscript() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transcript == nil {
		return "", false
	}
	transcript := *s.transcript
	s.transcript = nil
	return transcript, true
}

// StartSpeaking begins a playback activation for the given text. Valid only
// from [VoiceIdle]; it does not block for the duration of the audio.
func (s *VoiceSession) StartSpeaking(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.state != VoiceIdle {
		state := s.state
		s.mu.Unlock()
		return &AlreadyActiveError{Operation: "start speaking", State: state}
	}

	s.activation++
	act := s.activation
	s.state = VoiceSpeaking

	err := s.player.Speak(ctx, text,
		playback.WithStartedCallback(func() {
			s.handlePlaybackStarted(act, text)
		}),
		playback.WithFinishedCallback(func() {
			s.handlePlaybackEnded(act, false)
		}),
		playback.WithCancelledCallback(func() {
			s.handlePlaybackEnded(act, true)
		}),
		playback.WithErrorCallback(func(err error) {
			s.handlePlaybackError(act, err)
		}),
	)
	if err != nil {
		s.activation++
		s.state = VoiceIdle
		s.mu.Unlock()
		return fmt.Errorf("failed to start playback: %w", err)
	}
	s.mu.Unlock()

	s.emit(events.NewVoiceStateChanged(string(VoiceIdle), string(VoiceSpeaking)))
	return nil
}

// StopSpeaking cancels playback mid-utterance. Playback teardown happens
// before the state reports [VoiceIdle], so a start command issued
// immediately after does not race with the cancelled activation. Safe to
// call from any state; a no-op when nothing is playing.
func (s *VoiceSession) StopSpeaking() error {
	s.mu.Lock()
	if s.state != VoiceSpeaking {
		s.mu.Unlock()
		return nil
	}

	// Supersede the activation first so late player callbacks are dropped.
	s.activation++
	if err := s.player.Cancel(); err != nil {
		logger.Warn("failed to cancel playback", "error", err)
	}
	s.state = VoiceIdle
	s.mu.Unlock()

	s.emit(events.NewPlaybackCancelled())
	s.emit(events.NewVoiceStateChanged(string(VoiceSpeaking), string(VoiceIdle)))
	return nil
}

// StopAll tears down whatever is active and returns the session to
// [VoiceIdle], discarding any unread transcript. It is idempotent, absorbs
// adapter errors and never fails.
func (s *VoiceSession) StopAll() {
	s.mu.Lock()
	prev := s.state
	s.activation++
	s.partial = ""
	s.transcript = nil
	s.captureErr = nil
	done := s.captureDone
	s.captureDone = nil

	switch prev {
	case VoiceListening, VoiceProcessing:
		if err := s.captureSource.Stop(); err != nil {
			logger.Warn("failed to stop capture during teardown", "error", err)
		}
	case VoiceSpeaking:
		if err := s.player.Cancel(); err != nil {
			logger.Warn("failed to cancel playback during teardown", "error", err)
		}
	}
	s.state = VoiceIdle
	s.mu.Unlock()

	if done != nil {
		close(done)
	}

	if prev == VoiceSpeaking {
		s.emit(events.NewPlaybackCancelled())
	}
	if prev != VoiceIdle {
		s.emit(events.NewVoiceStateChanged(string(prev), string(VoiceIdle)))
	}
}

func (s *VoiceSession) handlePartialTranscript(act uint64, transcript string) {
	s.mu.Lock()
	if act != s.activation || s.state != VoiceListening {
		s.mu.Unlock()
		return
	}
	s.partial = transcript
	s.mu.Unlock()

	s.emit(events.NewUserTranscriptInterim(transcript))
}

func (s *VoiceSession) handleFinalTranscript(act uint64, transcript string) {
	s.mu.Lock()
	if act != s.activation {
		s.mu.Unlock()
		return
	}

	from := s.state
	s.state = VoiceIdle
	s.partial = ""
	if transcript != "" {
		s.transcript = &transcript
	}
	done := s.captureDone
	s.captureDone = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
	}

	s.emit(events.NewUserTranscriptFinal(transcript))
	s.emit(events.NewVoiceStateChanged(string(from), string(VoiceIdle)))
}

func (s *VoiceSession) handleCaptureError(act uint64, err error) {
	s.mu.Lock()
	if act != s.activation {
		s.mu.Unlock()
		return
	}

	from := s.state
	s.state = VoiceIdle
	s.partial = ""
	s.transcript = nil
	s.captureErr = err
	done := s.captureDone
	s.captureDone = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
	}

	s.emit(events.NewCaptureFailed(err))
	s.emit(events.NewVoiceStateChanged(string(from), string(VoiceIdle)))
}

func (s *VoiceSession) handlePlaybackStarted(act uint64, text string) {
	s.mu.Lock()
	current := act == s.activation && s.state == VoiceSpeaking
	s.mu.Unlock()

	if current {
		s.emit(events.NewPlaybackStarted(text))
	}
}

func (s *VoiceSession) handlePlaybackEnded(act uint64, cancelled bool) {
	s.mu.Lock()
	if act != s.activation || s.state != VoiceSpeaking {
		s.mu.Unlock()
		return
	}
	s.state = VoiceIdle
	s.mu.Unlock()

	if cancelled {
		s.emit(events.NewPlaybackCancelled())
	} else {
		s.emit(events.NewPlaybackEnded())
	}
	s.emit(events.NewVoiceStateChanged(string(VoiceSpeaking), string(VoiceIdle)))
}

func (s *VoiceSession) handlePlaybackError(act uint64, err error) {
	s.mu.Lock()
	if act != s.activation || s.state != VoiceSpeaking {
		s.mu.Unlock()
		return
	}
	s.state = VoiceIdle
	s.mu.Unlock()

	logger.Warn("playback failed", "error", err)
	s.emit(events.NewPlaybackFailed(err))
	s.emit(events.NewVoiceStateChanged(string(VoiceSpeaking), string(VoiceIdle)))
}
