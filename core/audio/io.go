package audio

import "context"

// Input produces raw audio frames from a capture device. Frames are delivered
// on the device's own goroutine; receivers must not block in onAudio.
type Input interface {
	Start(ctx context.Context, onAudio func(audio []byte)) error
	Stop() error
	EncodingInfo() EncodingInfo
}

// Output consumes raw audio frames for playback. SendAudio buffers; the
// device drains the buffer at playback rate. ClearBuffer drops anything not
// yet played.
type Output interface {
	Start() error
	SendAudio(audio []byte) error
	// Mark registers a callback that fires once every frame sent before the
	// mark has actually been played.
	Mark(onPlayed func()) error
	ClearBuffer()
	Stop() error
	EncodingInfo() EncodingInfo
}
