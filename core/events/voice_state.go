package events

// KindVoiceStateChanged identifies a voice state transition.
const KindVoiceStateChanged Kind = "voice_state.changed"

// VoiceStateChanged marks a transition of the voice machine. States are
// carried as their string names so receivers do not depend on the session
// package.
type VoiceStateChanged struct {
	Base
	From string
	To   string
}

// NewVoiceStateChanged creates a voice state transition event.
func NewVoiceStateChanged(from, to string) VoiceStateChanged {
	return VoiceStateChanged{Base: NewBase(KindVoiceStateChanged), From: from, To: to}
}
