// Package events defines the typed event contract emitted by the
// conversation engine and the voice orchestrator.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - user_input.*
//   - message.*
//   - turn_state.*
//   - voice_state.*
//   - playback.*
//   - persistence.*
//
// Semantics used across the package:
//
//   - Interim: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text/state for the current activation.
//   - Changed: a state machine moved to a new state.
//   - Failed: an operation terminated with an error.
//
// session events
//
//   - SessionStarted (session.started): a conversation session began and the
//     greeting was posted.
//
// user_input events
//
//   - UserTranscriptInterim (user_input.transcript_interim): mutable interim
//     transcript snapshot while listening.
//   - UserTranscriptFinal (user_input.transcript_final): terminal transcript
//     for the capture activation, pending confirmation.
//   - CaptureFailed (user_input.capture_failed): the capture activation
//     terminated with an error.
//
// message events
//
//   - UserMessageAppended (message.user_appended): a user message entered the
//     conversation history.
//   - AssistantMessageAppended (message.assistant_appended): an assistant
//     reply entered the conversation history.
//
// turn_state events
//
//   - TurnStateChanged (turn_state.changed): the conversation turn machine
//     moved to a new state.
//   - TurnFailed (turn_state.failed): response generation failed and the turn
//     machine entered its error state.
//
// voice_state events
//
//   - VoiceStateChanged (voice_state.changed): the voice machine moved to a
//     new state.
//
// playback events
//
//   - PlaybackStarted (playback.started): speech synthesis began playing.
//   - PlaybackEnded (playback.ended): playback ran to completion.
//   - PlaybackCancelled (playback.cancelled): playback was interrupted.
//   - PlaybackFailed (playback.failed): the playback activation terminated
//     with an error.
//
// persistence events
//
//   - PersistFailed (persistence.failed): a message could not be saved to the
//     configured store; the in-memory conversation is unaffected.
package events
