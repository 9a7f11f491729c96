// Package voicechat mediates a back and forth text/voice dialogue between a
// user and an automated responder.
//
// The package is built from three cooperating pieces:
//
//   - [ConversationEngine] owns the message log and the conversation turn
//     state machine. It appends user input, requests a reply from a
//     [providers.ResponseProvider], and appends the reply.
//   - [VoiceSession] owns the voice state machine on top of one
//     [capture.Source] and one [playback.Player], guaranteeing at most one
//     active capture and at most one active playback at a time.
//   - [Orchestrator] wires the two together without either owning the other:
//     it serializes voice commands, cancels playback when the user barges in,
//     and speaks freshly generated replies while voice mode is on.
//
// Neither machine knows about the other; all cross-machine policy lives in
// the orchestrator.
package voicechat
