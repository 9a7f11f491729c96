// Package deepgram implements [playback.Player] against the Deepgram speak
// websocket, draining synthesized audio into a local [audio.Output] device.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mindfuljourney/voicechat-core/core/audio"
	"github.com/mindfuljourney/voicechat-core/core/playback"
)

const speakHost = "api.deepgram.com"

type Player struct {
	apiKey string
	voice  Voice
	output audio.Output

	mu     sync.Mutex
	active *utterance
}

type PlayerOption func(*Player)

// WithAPIKey overrides the DEEPGRAM_API_KEY environment variable.
func WithAPIKey(apiKey string) PlayerOption {
	return func(p *Player) { p.apiKey = apiKey }
}

func WithVoice(voice Voice) PlayerOption {
	return func(p *Player) { p.voice = voice }
}

func NewPlayer(output audio.Output, opts ...PlayerOption) (*Player, error) {
	player := &Player{
		apiKey: os.Getenv("DEEPGRAM_API_KEY"),
		voice:  defaultVoice,
		output: output,
	}
	for _, opt := range opts {
		opt(player)
	}

	if player.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}
	if player.output == nil {
		return nil, fmt.Errorf("audio output is required")
	}
	if !slices.Contains(AvailableVoices(), player.voice) {
		return nil, fmt.Errorf("invalid voice %q", player.voice)
	}

	return player, nil
}

func (p *Player) Speak(ctx context.Context, text string, opts ...playback.Option) error {
	options := playback.Options{}
	for _, opt := range opts {
		opt(&options)
	}

	p.mu.Lock()
	if p.active != nil {
		p.mu.Unlock()
		return playback.ErrAlreadySpeaking
	}

	u := &utterance{player: p, options: options}
	p.active = u
	p.mu.Unlock()

	conn, err := p.connectWebsocket()
	if err != nil {
		p.clearActive(u)
		return fmt.Errorf("failed to open speak websocket: %w", err)
	}
	u.conn = conn

	if err := p.output.Start(); err != nil {
		_ = conn.Close()
		p.clearActive(u)
		return fmt.Errorf("failed to start audio output: %w", err)
	}

	go u.readAndProcessMessages()

	if err := u.sendWebsocketMessage(speakMsg(text)); err != nil {
		_ = conn.Close()
		p.clearActive(u)
		return fmt.Errorf("failed to send text: %w", err)
	}
	if err := u.sendWebsocketMessage(flushMsg); err != nil {
		_ = conn.Close()
		p.clearActive(u)
		return fmt.Errorf("failed to flush text: %w", err)
	}

	return nil
}

func (p *Player) Cancel() error {
	p.mu.Lock()
	u := p.active
	p.mu.Unlock()

	if u == nil {
		return nil
	}

	u.cancel()
	return nil
}

func (p *Player) connectWebsocket() (*websocket.Conn, error) {
	encodingInfo := p.output.EncodingInfo()

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Encoding.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(p.voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   speakHost, Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + p.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (p *Player) clearActive(u *utterance) {
	p.mu.Lock()
	if p.active == u {
		p.active = nil
	}
	p.mu.Unlock()
}

// utterance is one playback activation: one websocket stream feeding the
// output device, terminated by exactly one of finished/cancelled/errored.
type utterance struct {
	player  *Player
	options playback.Options
	conn    *websocket.Conn

	mu      sync.Mutex
	started bool
	done    bool
}

func (u *utterance) readAndProcessMessages() {
	for {
		msgType, msg, err := u.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !u.isDone() {
				log.Printf("Websocket read error: %v", err)
				u.fail(err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) == 0 {
				continue
			}
			u.markStarted()
			if err := u.player.output.SendAudio(msg); err != nil {
				log.Printf("Failed to send audio to output: %v", err)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				continue
			}

			if parsedMsg.Type == "Flushed" {
				// All audio for the utterance has been handed to the output
				// device; report finished once it has actually been played.
				if err := u.player.output.Mark(u.finish); err != nil {
					u.finish()
				}
			}
		}
	}
}

func (u *utterance) markStarted() {
	u.mu.Lock()
	shouldNotify := !u.started && !u.done
	u.started = true
	u.mu.Unlock()

	if shouldNotify && u.options.StartedCallback != nil {
		u.options.StartedCallback()
	}
}

func (u *utterance) finish() {
	if !u.complete() {
		return
	}

	u.teardown()
	if u.options.FinishedCallback != nil {
		u.options.FinishedCallback()
	}
}

func (u *utterance) cancel() {
	if !u.complete() {
		return
	}

	u.player.output.ClearBuffer()
	u.teardown()
	if u.options.CancelledCallback != nil {
		// Delivered asynchronously so Cancel never re-enters the caller.
		go u.options.CancelledCallback()
	}
}

func (u *utterance) fail(err error) {
	if !u.complete() {
		return
	}

	u.teardown()
	if u.options.ErrorCallback != nil {
		u.options.ErrorCallback(err)
	}
}

// complete claims the terminal transition; only the first caller wins.
func (u *utterance) complete() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return false
	}
	u.done = true
	return true
}

func (u *utterance) isDone() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.done
}

func (u *utterance) teardown() {
	if err := u.sendWebsocketMessage(closeMsg); err != nil {
		_ = u.conn.Close()
	}
	u.player.clearActive(u)
}

type websocketMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func speakMsg(text string) websocketMessage {
	return websocketMessage{Type: "Speak", Text: text}
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func (u *utterance) sendWebsocketMessage(msg any) error {
	if u.conn == nil {
		return fmt.Errorf("websocket connection closed")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
