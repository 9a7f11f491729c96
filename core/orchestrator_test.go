package voicechat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mindfuljourney/voicechat-core/core/providers"
)

func newTestOrchestrator(t *testing.T, provider providers.ResponseProvider, opts ...OrchestratorOption) (*Orchestrator, *ConversationEngine, *VoiceSession, *scriptedCaptureSource, *scriptedPlayer) {
	t.Helper()

	engine, err := NewConversationEngine(provider)
	if err != nil {
		t.Fatalf("expected engine to be created, got %v", err)
	}

	captureSource := newScriptedCaptureSource()
	player := newScriptedPlayer()
	session, err := NewVoiceSession(captureSource, player)
	if err != nil {
		t.Fatalf("expected session to be created, got %v", err)
	}

	orchestrator, err := NewOrchestrator(engine, session, opts...)
	if err != nil {
		t.Fatalf("expected orchestrator to be created, got %v", err)
	}
	t.Cleanup(orchestrator.Close)

	return orchestrator, engine, session, captureSource, player
}

func TestBargeInCancelsPlaybackThenListens(t *testing.T) {
	var cancelledEvents atomic.Int32
	provider := newStubProvider("reply")
	orchestrator, _, session, captureSource, player := newTestOrchestrator(t, provider,
		WithPlaybackEndedCallback(func(cancelled bool) {
			if cancelled {
				cancelledEvents.Add(1)
			}
		}),
	)

	if err := orchestrator.SetVoiceMode(t.Context(), true); err != nil {
		t.Fatalf("expected voice mode toggle to succeed, got %v", err)
	}
	orchestrator.StartSession(t.Context())

	// The greeting is spoken automatically once voice mode is on.
	select {
	case <-player.spoken:
	case <-time.After(time.Second):
		t.Fatal("greeting was never spoken")
	}
	if got := session.State(); got != VoiceSpeaking {
		t.Fatalf("expected state %q, got %q", VoiceSpeaking, got)
	}

	if err := orchestrator.StartListening(t.Context()); err != nil {
		t.Fatalf("expected barge-in to succeed, got %v", err)
	}

	if got := cancelledEvents.Load(); got != 1 {
		t.Fatalf("expected exactly one cancelled playback event, got %d", got)
	}
	if got := session.State(); got != VoiceListening {
		t.Fatalf("expected state %q after barge-in, got %q", VoiceListening, got)
	}
	if player.active.Load() {
		t.Fatal("expected playback to be torn down before listening started")
	}
	if !captureSource.active.Load() {
		t.Fatal("expected capture to be running")
	}
}

func TestAutoSpeakSkippedWhileUserIsSpeaking(t *testing.T) {
	provider := newStubProvider("a fresh reply")
	orchestrator, _, session, _, player := newTestOrchestrator(t, provider)

	orchestrator.StartSession(t.Context())
	if err := orchestrator.SetVoiceMode(t.Context(), true); err != nil {
		t.Fatalf("expected voice mode toggle to succeed, got %v", err)
	}

	if err := orchestrator.StartListening(t.Context()); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}

	if err := orchestrator.SubmitText(t.Context(), "typed while talking"); err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}

	// The reply arrived while the user was mid-utterance: it must be
	// skipped, not queued.
	select {
	case text := <-player.spoken:
		t.Fatalf("expected no playback, but %q was spoken", text)
	case <-time.After(100 * time.Millisecond):
	}
	if got := session.State(); got != VoiceListening {
		t.Fatalf("expected state %q, got %q", VoiceListening, got)
	}
}

func TestNoAutoSpeakWhenVoiceModeOff(t *testing.T) {
	provider := newStubProvider("reply")
	orchestrator, _, _, _, player := newTestOrchestrator(t, provider)

	orchestrator.StartSession(t.Context())
	if err := orchestrator.SubmitText(t.Context(), "hello"); err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}

	select {
	case text := <-player.spoken:
		t.Fatalf("expected no playback with voice mode off, but %q was spoken", text)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFinalTranscriptRequiresConfirmation(t *testing.T) {
	provider := newStubProvider("that sounds hard")
	orchestrator, engine, _, captureSource, _ := newTestOrchestrator(t, provider)

	orchestrator.StartSession(t.Context())

	if err := orchestrator.StartListening(t.Context()); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- orchestrator.StopListening(context.Background())
	}()
	select {
	case <-captureSource.stopped:
	case <-time.After(time.Second):
		t.Fatal("end of audio was never signalled")
	}
	captureSource.emitFinal("I feel anxious")
	select {
	case err := <-stopDone:
		if err != nil {
			t.Fatalf("expected stop to succeed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stop never returned")
	}

	if got := len(engine.Messages()); got != 1 {
		t.Fatalf("expected the transcript to stay unsubmitted, log has %d messages", got)
	}

	if err := orchestrator.ConfirmTranscript(t.Context()); err != nil {
		t.Fatalf("expected confirm to succeed, got %v", err)
	}

	messages := engine.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages after confirmation, got %d", len(messages))
	}
	if messages[1].Content != "I feel anxious" || !messages[1].IsVoice {
		t.Fatalf("expected a voice-originated user message, got %+v", messages[1])
	}

	if err := orchestrator.ConfirmTranscript(t.Context()); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript on second confirm, got %v", err)
	}
}

func TestVoiceModeOffTearsDownAndClearsTranscript(t *testing.T) {
	provider := newStubProvider("reply")
	orchestrator, _, session, captureSource, _ := newTestOrchestrator(t, provider)

	orchestrator.StartSession(t.Context())
	if err := orchestrator.SetVoiceMode(t.Context(), true); err != nil {
		t.Fatalf("expected voice mode toggle to succeed, got %v", err)
	}

	if err := orchestrator.StartListening(t.Context()); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- orchestrator.StopListening(context.Background())
	}()
	select {
	case <-captureSource.stopped:
	case <-time.After(time.Second):
		t.Fatal("end of audio was never signalled")
	}
	captureSource.emitFinal("unread words")
	<-stopDone

	if err := orchestrator.SetVoiceMode(t.Context(), false); err != nil {
		t.Fatalf("expected voice mode toggle to succeed, got %v", err)
	}

	if got := session.State(); got != VoiceIdle {
		t.Fatalf("expected state %q, got %q", VoiceIdle, got)
	}
	if err := orchestrator.ConfirmTranscript(t.Context()); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected the unread transcript to be discarded, got %v", err)
	}
}

func TestVoiceModeOffWhileListeningReleasesCapture(t *testing.T) {
	provider := newStubProvider("reply")
	orchestrator, _, session, captureSource, _ := newTestOrchestrator(t, provider)

	orchestrator.StartSession(t.Context())
	if err := orchestrator.StartListening(t.Context()); err != nil {
		t.Fatalf("expected listening to start, got %v", err)
	}

	if err := orchestrator.SetVoiceMode(t.Context(), false); err != nil {
		t.Fatalf("expected voice mode toggle to succeed, got %v", err)
	}

	if captureSource.active.Load() {
		t.Fatal("expected capture to be released")
	}
	if got := session.State(); got != VoiceIdle {
		t.Fatalf("expected state %q, got %q", VoiceIdle, got)
	}
}

func TestClosedOrchestratorRejectsCommands(t *testing.T) {
	provider := newStubProvider("reply")
	orchestrator, _, _, _, _ := newTestOrchestrator(t, provider)

	orchestrator.Close()

	if err := orchestrator.StartListening(t.Context()); !errors.Is(err, ErrOrchestratorClosed) {
		t.Fatalf("expected ErrOrchestratorClosed, got %v", err)
	}
	if err := orchestrator.SetVoiceMode(t.Context(), true); !errors.Is(err, ErrOrchestratorClosed) {
		t.Fatalf("expected ErrOrchestratorClosed, got %v", err)
	}
}
