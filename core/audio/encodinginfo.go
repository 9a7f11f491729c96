package audio

const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultEncoding   = EncodingLinear16
)

// DefaultEncodingInfo returns the encoding shared by the bundled capture and
// playback clients: 16kHz mono linear16 PCM.
func DefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Encoding: DefaultEncoding}
}

type EncodingInfo struct {
	SampleRate int
	Encoding   Encoding
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Encoding == ""
}

// SilenceValue is the byte that represents silence for the encoding.
func (e EncodingInfo) SilenceValue() byte {
	switch e.Encoding {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	}

	return 0
}

// BytesPerSecond returns the raw audio throughput for a mono stream.
func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.Encoding.ByteSize()
}

type Encoding string

const (
	EncodingLinear16 Encoding = "linear16"
	EncodingMulaw    Encoding = "mulaw"
	EncodingALaw     Encoding = "alaw"
)

func (e Encoding) Name() string {
	return string(e)
}

func (e Encoding) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}
