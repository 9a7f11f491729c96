package deepgram

// Voice identifies a Deepgram Aura speech model.
type Voice string

const (
	VoiceThalia  Voice = "aura-2-thalia-en"
	VoiceAsteria Voice = "aura-2-asteria-en"
	VoiceLuna    Voice = "aura-2-luna-en"
	VoiceOrion   Voice = "aura-2-orion-en"
	VoiceArcas   Voice = "aura-2-arcas-en"
)

var defaultVoice = VoiceThalia

func AvailableVoices() []Voice {
	return []Voice{VoiceThalia, VoiceAsteria, VoiceLuna, VoiceOrion, VoiceArcas}
}
