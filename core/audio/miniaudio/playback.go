package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/mindfuljourney/voicechat-core/core/audio"
)

// PlaybackClient implements [audio.Output] on top of a miniaudio playback
// device. Audio is buffered in SendAudio and drained by the device callback;
// marks fire once the buffer has drained past their registration point.
type PlaybackClient struct {
	device *malgo.Device
	config malgo.DeviceConfig

	buffered []byte
	marks    []playbackMark

	mu       sync.Mutex
	bufferMu sync.Mutex
}

type playbackMark struct {
	position int
	onPlayed func()
}

func (c *PlaybackClient) init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.DefaultChannels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(audio.DefaultChannels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	device, err := malgo.InitDevice(audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: c.processAudio(bytesPerFrame),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	c.device = device
	return nil
}

func (c *PlaybackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (c *PlaybackClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()

	if device == nil {
		return fmt.Errorf("playback device not initialized")
	} else if !device.IsStarted() {
		return fmt.Errorf("playback device not started")
	}

	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	c.buffered = append(c.buffered, audio...)
	return nil
}

func (c *PlaybackClient) Mark(onPlayed func()) error {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()

	c.marks = append(c.marks, playbackMark{position: len(c.buffered), onPlayed: onPlayed})
	return nil
}

func (c *PlaybackClient) ClearBuffer() {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	c.buffered = nil
	c.marks = nil
}

func (c *PlaybackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.ClearBuffer()
	return nil
}

func (c *PlaybackClient) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncodingInfo()
}

func (c *PlaybackClient) uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	return nil
}

func (c *PlaybackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.bufferMu.Lock()
		played := min(need, len(c.buffered))
		copy(pOutput, c.buffered[:played])
		c.buffered = c.buffered[played:]
		passed := c.advanceMarks(played)
		c.bufferMu.Unlock()

		if len(passed) > 0 {
			go func() {
				for _, mark := range passed {
					mark.onPlayed()
				}
			}()
		}
	}
}

// advanceMarks must be called with bufferMu held.
func (c *PlaybackClient) advanceMarks(played int) []playbackMark {
	passedMarks := 0
	for i, mark := range c.marks {
		if mark.position > played {
			c.marks[i].position -= played
		} else {
			passedMarks++
		}
	}
	if passedMarks == 0 {
		return nil
	}

	passed := c.marks[:passedMarks]
	c.marks = append([]playbackMark(nil), c.marks[passedMarks:]...)
	return passed
}
