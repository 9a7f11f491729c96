package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/mindfuljourney/voicechat-core/core/audio"
)

// Client implements [audio.Output] with a blocking portaudio stream. Unlike
// the miniaudio client it writes synchronously, so marks fire as soon as the
// buffered audio has been handed to the device.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	buffered   []byte
	started    bool

	out []int16
	mu  sync.Mutex
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{bufferSize: bufferSize, stream: stream, out: out}, nil
}

func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	c.started = true
	return nil
}

func (c *Client) SendAudio(audio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	chunkSize := c.bufferSize * 2

	audio = append(c.buffered, audio...)
	for len(audio) >= chunkSize {
		if err := binary.Read(bytes.NewReader(audio[:chunkSize]), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to frame playback audio: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
		audio = audio[chunkSize:]
	}

	c.buffered = append([]byte(nil), audio...)
	return nil
}

func (c *Client) Mark(onPlayed func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	chunkSize := c.bufferSize * 2
	if len(c.buffered) > 0 {
		padded := make([]byte, chunkSize)
		copy(padded, c.buffered)
		c.buffered = nil

		if err := binary.Read(bytes.NewReader(padded), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to frame playback audio: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to flush portaudio stream: %w", err)
		}
	}

	go onPlayed()
	return nil
}

func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffered = nil
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffered = nil
	if !c.started {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	c.started = false
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncodingInfo()
}

func (c *Client) Close() error {
	err := c.stream.Close()
	if terminateErr := portaudio.Terminate(); err == nil {
		err = terminateErr
	}
	return err
}
