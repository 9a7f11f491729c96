package voicechat

import (
	"github.com/mindfuljourney/voicechat-core/core/events"
)

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func chainEmitters(emitters ...eventEmitter) eventEmitter {
	return func(event events.Event) {
		for _, emit := range emitters {
			if emit != nil {
				emit(event)
			}
		}
	}
}

func newCallbackEventEmitter(opts OrchestratorOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UserTranscriptInterim:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.CaptureFailed:
			if opts.onCaptureFailed != nil {
				opts.onCaptureFailed(typedEvent.Err)
			}
		case events.UserMessageAppended:
			if opts.onUserMessage != nil {
				opts.onUserMessage(typedEvent.Message)
			}
		case events.AssistantMessageAppended:
			if opts.onAssistantMessage != nil {
				opts.onAssistantMessage(typedEvent.Message)
			}
		case events.TurnStateChanged:
			if opts.onTurnStateChanged != nil {
				opts.onTurnStateChanged(TurnState(typedEvent.From), TurnState(typedEvent.To))
			}
		case events.TurnFailed:
			if opts.onTurnFailed != nil {
				opts.onTurnFailed(typedEvent.Err)
			}
		case events.VoiceStateChanged:
			if opts.onVoiceStateChanged != nil {
				opts.onVoiceStateChanged(VoiceState(typedEvent.From), VoiceState(typedEvent.To))
			}
		case events.PlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(typedEvent.Text)
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(false)
			}
		case events.PlaybackCancelled:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(true)
			}
		case events.PersistFailed:
			if opts.onPersistFailed != nil {
				opts.onPersistFailed(typedEvent.Err)
			}
		}
	}
}
