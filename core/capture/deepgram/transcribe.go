package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/mindfuljourney/voicechat-core/core/capture"
)

const (
	defaultModel = "nova-3"
	listenURL    = "wss://api.deepgram.com/v1/listen"
)

func (s *Source) Start(ctx context.Context, opts ...capture.Option) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return capture.ErrAlreadyStarted
	}

	options := capture.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	s.options = options
	s.active = true
	s.stopping = false
	s.accumulated = ""
	s.mu.Unlock()

	conn, err := s.connectWebsocket()
	if err != nil {
		s.deactivate()
		return fmt.Errorf("%w: %v", capture.ErrEngineUnavailable, err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	go s.readAndProcessMessages(conn)

	if err := s.input.Start(ctx, s.sendAudio); err != nil {
		s.closeConn()
		s.deactivate()
		return fmt.Errorf("failed to start audio input: %w", err)
	}

	return nil
}

// Stop signals end-of-audio. The remaining transcript is flushed by the
// server and delivered through the final transcript callback once the
// websocket closes.
func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.active || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.mu.Unlock()

	if err := s.input.Stop(); err != nil {
		log.Println("Failed to stop audio input:", err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}

	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to signal end of audio: %w", err)
	}
	return nil
}

func (s *Source) connectWebsocket() (*websocket.Conn, error) {
	encodingInfo := s.input.EncodingInfo()

	endpoint, _ := url.Parse(listenURL)
	queryParams := endpoint.Query()
	queryParams.Set("encoding", encodingInfo.Encoding.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", s.model)
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("endpointing", "300")
	endpoint.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (s *Source) sendAudio(audio []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		log.Println("Failed to write audio to deepgram client:", err)
	}
}

func (s *Source) readAndProcessMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			s.closeConn()
			s.finish(err)
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg)
		}
	}
}

func (s *Source) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal deepgram message:", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message:", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			return
		}

		s.mu.Lock()
		if msgResp.IsFinal {
			if s.accumulated != "" {
				s.accumulated += " "
			}
			s.accumulated += transcript
			transcript = s.accumulated
		} else if s.accumulated != "" {
			transcript = s.accumulated + " " + transcript
		}
		onPartial := s.options.PartialTranscriptCallback
		active := s.active
		s.mu.Unlock()

		if active && onPartial != nil {
			onPartial(transcript)
		}
	}
}

// finish terminates the current activation: a normal websocket close after
// Stop yields the final transcript, anything else is a recognition error.
func (s *Source) finish(readErr error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false

	stopping := s.stopping
	transcript := strings.TrimSpace(s.accumulated)
	options := s.options
	s.accumulated = ""
	s.mu.Unlock()

	if stopping || websocket.IsCloseError(readErr, websocket.CloseNormalClosure) {
		if options.FinalTranscriptCallback != nil {
			options.FinalTranscriptCallback(transcript)
		}
		return
	}

	if options.ErrorCallback != nil {
		options.ErrorCallback(&capture.RecognitionError{Cause: readErr})
	}
}

func (s *Source) deactivate() {
	s.mu.Lock()
	s.active = false
	s.stopping = false
	s.mu.Unlock()
}

func (s *Source) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
