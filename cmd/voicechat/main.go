// Command voicechat runs a terminal chat client on top of the conversation
// engine, with optional voice input and spoken replies.
//
// Configuration is taken from the environment:
//
//	OPENAI_API_KEY      response generation (required)
//	DEEPGRAM_API_KEY    transcription and speech synthesis (required)
//	SUPABASE_URL        message persistence (optional)
//	SUPABASE_ANON_KEY   message persistence (optional)
//	SESSION_NUMBER      display counter for this session (optional)
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	voicechat "github.com/mindfuljourney/voicechat-core/core"
	"github.com/mindfuljourney/voicechat-core/core/audio/miniaudio"
	capturedeepgram "github.com/mindfuljourney/voicechat-core/core/capture/deepgram"
	"github.com/mindfuljourney/voicechat-core/core/events"
	playbackdeepgram "github.com/mindfuljourney/voicechat-core/core/playback/deepgram"
	"github.com/mindfuljourney/voicechat-core/core/providers/openai"
	"github.com/mindfuljourney/voicechat-core/core/store"
	"github.com/mindfuljourney/voicechat-core/core/store/supabase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	provider, err := openai.NewClient(
		openai.WithInstructions("You are a supportive, empathetic conversation partner. Keep replies short enough to be spoken aloud."),
	)
	if err != nil {
		return err
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to initialize audio devices: %w", err)
	}
	defer audioClient.Close()

	captureSource, err := capturedeepgram.NewSource(audioClient.Capture())
	if err != nil {
		return err
	}
	player, err := playbackdeepgram.NewPlayer(audioClient.Playback())
	if err != nil {
		return err
	}

	var msgStore store.MessageStore = store.NewMemoryStore()
	if url, key := os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_ANON_KEY"); url != "" && key != "" {
		if msgStore, err = supabase.NewStore(url, key); err != nil {
			return err
		}
	}

	sessionNumber := 1
	if raw := os.Getenv("SESSION_NUMBER"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			sessionNumber = parsed
		}
	}

	engine, err := voicechat.NewConversationEngine(provider,
		voicechat.WithMessageStore(msgStore),
		voicechat.WithSessionNumber(sessionNumber),
	)
	if err != nil {
		return err
	}

	session, err := voicechat.NewVoiceSession(captureSource, player)
	if err != nil {
		return err
	}

	eventCh := make(chan events.Event, 128)
	orchestrator, err := voicechat.NewOrchestrator(engine, session,
		voicechat.WithEventHandler(func(event events.Event) {
			select {
			case eventCh <- event:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	orchestrator.StartSession(context.Background())

	program := tea.NewProgram(newModel(orchestrator, eventCh), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
