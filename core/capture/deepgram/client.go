// Package deepgram implements [capture.Source] against the Deepgram live
// transcription websocket, fed by a local [audio.Input] device.
package deepgram

import (
	"fmt"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mindfuljourney/voicechat-core/core/audio"
	"github.com/mindfuljourney/voicechat-core/core/capture"
)

type Source struct {
	apiKey string
	model  string
	input  audio.Input

	conn   *websocket.Conn
	connMu sync.Mutex

	// activation state, guarded by mu
	mu          sync.Mutex
	active      bool
	stopping    bool
	accumulated string
	options     capture.Options
}

type SourceOption func(*Source)

// WithAPIKey overrides the DEEPGRAM_API_KEY environment variable.
func WithAPIKey(apiKey string) SourceOption {
	return func(s *Source) { s.apiKey = apiKey }
}

func WithModel(model string) SourceOption {
	return func(s *Source) { s.model = model }
}

func NewSource(input audio.Input, opts ...SourceOption) (*Source, error) {
	source := &Source{
		apiKey: os.Getenv("DEEPGRAM_API_KEY"),
		model:  defaultModel,
		input:  input,
	}
	for _, opt := range opts {
		opt(source)
	}

	if source.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}
	if source.input == nil {
		return nil, fmt.Errorf("audio input is required")
	}

	return source, nil
}
