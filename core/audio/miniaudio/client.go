package miniaudio

import (
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
)

// Client owns one miniaudio context shared by a capture and a playback
// device. Both devices use the package default encoding (16kHz mono s16).
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	capture  CaptureClient
	playback PlaybackClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.capture.init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := client.playback.init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return &client, nil
}

// Capture returns the microphone side of the client.
func (c *Client) Capture() *CaptureClient { return &c.capture }

// Playback returns the speaker side of the client.
func (c *Client) Playback() *PlaybackClient { return &c.playback }

func (c *Client) Close() error {
	err := errors.Join(c.capture.uninit(), c.playback.uninit())

	if c.audioContext != nil {
		err = errors.Join(err, c.audioContext.Uninit())
		c.audioContext.Free()
		c.audioContext = nil
	}

	if err != nil {
		return fmt.Errorf("failed to close miniaudio client: %w", err)
	}
	return nil
}
