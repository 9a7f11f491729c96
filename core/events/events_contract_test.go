package events

import (
	"fmt"
	"testing"

	"github.com/mindfuljourney/voicechat-core/core/providers"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	msg := providers.NewMessage(providers.RoleUser, "hi")

	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session started", event: NewSessionStarted("id", 1), expected: KindSessionStarted},
		{name: "user transcript interim", event: NewUserTranscriptInterim("text"), expected: KindUserTranscriptInterim},
		{name: "user transcript final", event: NewUserTranscriptFinal("text"), expected: KindUserTranscriptFinal},
		{name: "capture failed", event: NewCaptureFailed(fmt.Errorf("boom")), expected: KindCaptureFailed},
		{name: "user message appended", event: NewUserMessageAppended(msg), expected: KindUserMessageAppended},
		{name: "assistant message appended", event: NewAssistantMessageAppended(msg), expected: KindAssistantMessageAppended},
		{name: "turn state changed", event: NewTurnStateChanged("idle", "awaiting_user_input"), expected: KindTurnStateChanged},
		{name: "turn failed", event: NewTurnFailed(fmt.Errorf("boom")), expected: KindTurnFailed},
		{name: "voice state changed", event: NewVoiceStateChanged("idle", "listening"), expected: KindVoiceStateChanged},
		{name: "playback started", event: NewPlaybackStarted("text"), expected: KindPlaybackStarted},
		{name: "playback ended", event: NewPlaybackEnded(), expected: KindPlaybackEnded},
		{name: "playback cancelled", event: NewPlaybackCancelled(), expected: KindPlaybackCancelled},
		{name: "playback failed", event: NewPlaybackFailed(fmt.Errorf("boom")), expected: KindPlaybackFailed},
		{name: "persist failed", event: NewPersistFailed("msg-id", fmt.Errorf("boom")), expected: KindPersistFailed},
	}

	seen := map[Kind]string{}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatal("expected a non-zero timestamp")
			}
			if previous, duplicated := seen[testCase.expected]; duplicated {
				t.Fatalf("kind %q already used by %q", testCase.expected, previous)
			}
			seen[testCase.expected] = testCase.name
		})
	}
}
