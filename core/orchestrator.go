package voicechat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mindfuljourney/voicechat-core/core/events"
	"github.com/mindfuljourney/voicechat-core/core/providers"
)

// ErrOrchestratorClosed is returned by commands issued after Close.
var ErrOrchestratorClosed = errors.New("orchestrator is closed")

// ErrNoTranscript is returned by ConfirmTranscript when no final transcript
// is awaiting confirmation.
var ErrNoTranscript = errors.New("no transcript awaiting confirmation")

// Orchestrator wires a [VoiceSession] to a [ConversationEngine] without
// either owning the other. All voice commands it issues are serialized
// through one queue goroutine, which makes compound commands such as the
// barge-in pair (cancel playback, then start listening) atomic with respect
// to each other.
//
// Cross-machine policy implemented here:
//
//   - A final transcript is never auto-submitted; the caller confirms it
//     via [Orchestrator.ConfirmTranscript].
//   - A fresh assistant reply is spoken only while voice mode is on and the
//     voice session is idle. Replies arriving mid-capture are skipped, not
//     queued, so a stale reply is never spoken over a live utterance.
//   - Turning voice mode off tears the voice session down unconditionally
//     and discards any unread transcript.
type Orchestrator struct {
	engine  *ConversationEngine
	session *VoiceSession
	emit    eventEmitter

	voiceMode atomic.Bool

	queue     chan func()
	closeCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewOrchestrator(engine *ConversationEngine, session *VoiceSession, opts ...OrchestratorOption) (*Orchestrator, error) {
	if engine == nil {
		return nil, fmt.Errorf("conversation engine is required")
	}
	if session == nil {
		return nil, fmt.Errorf("voice session is required")
	}

	options := OrchestratorOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	orchestrator := &Orchestrator{
		engine:  engine,
		session: session,
		emit:    newCallbackEventEmitter(options),
		queue:   make(chan func(), 64),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}

	// The orchestrator observes both machines through their emitters. This
	// rewiring happens before any activity, so it needs no locking.
	engine.emit = chainEmitters(engine.emit, orchestrator.handleEngineEvent)
	session.emit = chainEmitters(session.emit, orchestrator.emit)

	go orchestrator.run()

	return orchestrator, nil
}

func (o *Orchestrator) run() {
	defer close(o.done)
	for {
		select {
		case <-o.closeCh:
			return
		case command := <-o.queue:
			command()
		}
	}
}

// Close stops the command queue and tears down the voice session. Commands
// issued afterwards fail with [ErrOrchestratorClosed].
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.closeCh)
		<-o.done
		o.session.StopAll()
	})
}

// StartSession starts a new conversation session on the engine.
func (o *Orchestrator) StartSession(ctx context.Context) {
	o.engine.StartSession(ctx)
}

// SubmitText submits typed user input directly to the engine, bypassing the
// voice pipeline. It blocks until the reply arrives or generation fails.
func (o *Orchestrator) SubmitText(ctx context.Context, text string) error {
	return o.engine.SubmitUserMessage(ctx, text)
}

// AcknowledgeError clears the engine's error state after a failed turn.
func (o *Orchestrator) AcknowledgeError() error {
	return o.engine.AcknowledgeError()
}

// SetVoiceMode toggles the voice pipeline. Turning it off stops capture and
// playback unconditionally and discards any unread transcript.
func (o *Orchestrator) SetVoiceMode(ctx context.Context, on bool) error {
	return o.command(ctx, func() error {
		o.voiceMode.Store(on)
		if !on {
			o.session.StopAll()
		}
		return nil
	})
}

// VoiceMode reports whether the voice pipeline is active.
func (o *Orchestrator) VoiceMode() bool {
	return o.voiceMode.Load()
}

// StartListening begins a capture activation. If the assistant is mid-speech
// the playback is cancelled first; the pair runs as one command so no other
// voice command can interleave.
func (o *Orchestrator) StartListening(ctx context.Context) error {
	return o.command(ctx, func() error {
		if o.session.State() == VoiceSpeaking {
			if err := o.session.StopSpeaking(); err != nil {
				return err
			}
		}
		return o.session.StartListening(ctx)
	})
}

// StopListening signals end-of-audio and blocks until the final transcript
// or a capture error arrives. The transcript is retained for
// [Orchestrator.ConfirmTranscript]; it is not auto-submitted.
func (o *Orchestrator) StopListening(ctx context.Context) error {
	// Only the non-blocking half runs on the queue; waiting for the final
	// transcript happens here so the queue stays responsive.
	var wait func(ctx context.Context) error
	err := o.command(ctx, func() error {
		wait = o.session.beginStopListening()
		return nil
	})
	if err != nil || wait == nil {
		return err
	}
	return wait(ctx)
}

// ConfirmTranscript consumes the pending final transcript and submits it as
// a voice-originated user message. It blocks until the reply arrives or
// generation fails, and returns [ErrNoTranscript] when there is nothing to
// confirm.
func (o *Orchestrator) ConfirmTranscript(ctx context.Context) error {
	var transcript string
	var ok bool
	err := o.command(ctx, func() error {
		transcript, ok = o.session.ConsumeTranscript()
		return nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoTranscript
	}

	return o.engine.SubmitUserMessage(ctx, transcript, WithVoiceOrigin())
}

// DiscardTranscript drops the pending final transcript without submitting.
func (o *Orchestrator) DiscardTranscript(ctx context.Context) error {
	return o.command(ctx, func() error {
		o.session.ConsumeTranscript()
		return nil
	})
}

// command runs fn on the queue goroutine and waits for its result.
func (o *Orchestrator) command(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case o.queue <- func() { reply <- fn() }:
	case <-o.closeCh:
		return ErrOrchestratorClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-o.done:
		return ErrOrchestratorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue schedules fn without waiting, dropping it if the queue is closed.
func (o *Orchestrator) enqueue(fn func()) {
	select {
	case o.queue <- fn:
	case <-o.closeCh:
	}
}

func (o *Orchestrator) handleEngineEvent(event events.Event) {
	o.emit(event)

	if appended, ok := event.(events.AssistantMessageAppended); ok {
		o.enqueue(func() { o.autoSpeak(appended.Message) })
	}
}

// autoSpeak speaks a fresh assistant reply while voice mode is on and the
// voice session is idle. A busy session means the user moved on; the reply
// is skipped rather than queued.
func (o *Orchestrator) autoSpeak(msg providers.Message) {
	if !o.voiceMode.Load() {
		return
	}
	if o.session.State() != VoiceIdle {
		return
	}

	if err := o.session.StartSpeaking(context.Background(), msg.Content); err != nil {
		logger.Warn("failed to speak assistant reply", "error", err)
	}
}
