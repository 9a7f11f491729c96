package voicechat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/mindfuljourney/voicechat-core/core/events"
	"github.com/mindfuljourney/voicechat-core/core/providers"
	"github.com/mindfuljourney/voicechat-core/core/store"
)

// TurnState is the conversation turn machine's state.
type TurnState string

const (
	// TurnIdle means no session has been started yet.
	TurnIdle TurnState = "idle"
	// TurnAwaitingUserInput means the session is ready for the next user message.
	TurnAwaitingUserInput TurnState = "awaiting_user_input"
	// TurnResponsePending means a user message was appended and a reply is
	// being generated.
	TurnResponsePending TurnState = "response_pending"
	// TurnError means the last response generation failed and has not been
	// acknowledged yet.
	TurnError TurnState = "error"
)

const (
	defaultGreeting = "Hello, I'm your AI therapist. I'm here to provide a safe space " +
		"for you to discuss your thoughts, feelings, and challenges.\n\nHow are you feeling today?"
	defaultHistoryLimit    = 50
	defaultResponseTimeout = 30 * time.Second
)

// ConversationEngine owns the message log and the conversation turn state
// machine. The log is append-only within a session; all mutation happens
// under the engine's internal lock, so the engine is safe for concurrent use.
type ConversationEngine struct {
	provider providers.ResponseProvider
	msgStore store.MessageStore
	emit     eventEmitter

	greeting        string
	historyLimit    int
	responseTimeout time.Duration
	sessionNumber   int

	mu         sync.Mutex
	state      TurnState
	sessionID  string
	messages   []providers.Message
	generation uint64
	failure    error
}

type EngineOption func(*ConversationEngine)

// WithGreeting overrides the synthesized opening assistant message.
func WithGreeting(greeting string) EngineOption {
	return func(e *ConversationEngine) { e.greeting = greeting }
}

// WithHistoryLimit caps how many messages are sent to the response provider.
// Oldest messages are dropped first; the opening greeting is always kept.
func WithHistoryLimit(limit int) EngineOption {
	return func(e *ConversationEngine) { e.historyLimit = limit }
}

// WithResponseTimeout bounds each response provider call. Expiry is treated
// the same as a provider failure.
func WithResponseTimeout(timeout time.Duration) EngineOption {
	return func(e *ConversationEngine) { e.responseTimeout = timeout }
}

// WithMessageStore persists appended messages. Persistence failures are
// surfaced as events and never block the in-memory conversation.
func WithMessageStore(msgStore store.MessageStore) EngineOption {
	return func(e *ConversationEngine) { e.msgStore = msgStore }
}

// WithSessionNumber injects the caller-owned session counter, used for
// display only. The engine never increments or persists it.
func WithSessionNumber(sessionNumber int) EngineOption {
	return func(e *ConversationEngine) { e.sessionNumber = sessionNumber }
}

// WithEngineEventHandler registers a callback for engine events.
func WithEngineEventHandler(handler func(events.Event)) EngineOption {
	return func(e *ConversationEngine) { e.emit = handler }
}

func NewConversationEngine(provider providers.ResponseProvider, opts ...EngineOption) (*ConversationEngine, error) {
	if provider == nil {
		return nil, fmt.Errorf("response provider is required")
	}

	engine := &ConversationEngine{
		provider:        provider,
		greeting:        defaultGreeting,
		historyLimit:    defaultHistoryLimit,
		responseTimeout: defaultResponseTimeout,
		sessionNumber:   1,
		state:           TurnIdle,
		emit:            noopEventEmitter,
	}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.emit == nil {
		engine.emit = noopEventEmitter
	}

	return engine, nil
}

// StartSession resets the log, appends the opening assistant message and
// moves to [TurnAwaitingUserInput]. Calling it twice starts a second greeting
// rather than deduplicating.
func (e *ConversationEngine) StartSession(ctx context.Context) {
	greeting := providers.NewMessage(providers.RoleAssistant, e.greeting)

	e.mu.Lock()
	from := e.state
	e.sessionID = uuid.NewString()
	e.messages = []providers.Message{greeting}
	e.generation++
	e.failure = nil
	e.state = TurnAwaitingUserInput
	sessionID := e.sessionID
	e.mu.Unlock()

	e.emit(events.NewSessionStarted(sessionID, e.sessionNumber))
	e.emit(events.NewAssistantMessageAppended(greeting))
	e.emit(events.NewTurnStateChanged(string(from), string(TurnAwaitingUserInput)))

	e.persist(ctx, sessionID, greeting)
}

type SubmitOptions struct {
	voiceOrigin bool
}

type SubmitOption func(*SubmitOptions)

// WithVoiceOrigin marks the submitted message as entered through the voice
// pipeline.
func WithVoiceOrigin() SubmitOption {
	return func(o *SubmitOptions) { o.voiceOrigin = true }
}

// SubmitUserMessage appends a user message and blocks until the provider
// returns a reply, the configured timeout expires, or the provider fails.
//
// It is valid only from [TurnAwaitingUserInput] and returns
// [*InvalidStateError] otherwise, without touching the log. On failure the
// machine moves to [TurnError] with the user message retained so the user
// can retry by resubmitting after [ConversationEngine.AcknowledgeError].
func (e *ConversationEngine) SubmitUserMessage(ctx context.Context, text string, opts ...SubmitOption) error {
	ctx, span := tracer.Start(ctx, "voicechat.SubmitUserMessage")
	defer span.End()

	options := SubmitOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("user message must not be empty")
	}

	userMsg := providers.NewMessage(providers.RoleUser, text)
	userMsg.IsVoice = options.voiceOrigin

	e.mu.Lock()
	if e.state != TurnAwaitingUserInput {
		state := e.state
		e.mu.Unlock()
		return &InvalidStateError{Operation: "submit user message", State: state}
	}

	e.messages = append(e.messages, userMsg)
	e.generation++
	generation := e.generation
	e.state = TurnResponsePending
	sessionID := e.sessionID
	history := e.providerHistory()
	e.mu.Unlock()

	e.emit(events.NewUserMessageAppended(userMsg))
	e.emit(events.NewTurnStateChanged(string(TurnAwaitingUserInput), string(TurnResponsePending)))
	e.persist(ctx, sessionID, userMsg)

	generateCtx, cancel := context.WithTimeout(ctx, e.responseTimeout)
	defer cancel()

	reply, err := e.provider.Generate(generateCtx, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response generation failed")
		e.failTurn(generation, err)
		return fmt.Errorf("failed to generate response: %w", err)
	}

	e.completeTurn(ctx, generation, reply, options.voiceOrigin)
	return nil
}

// completeTurn applies a provider reply tagged with the generation that
// requested it. A reply arriving after the engine has moved on is discarded
// without touching the log.
func (e *ConversationEngine) completeTurn(ctx context.Context, generation uint64, reply string, voiceOrigin bool) {
	assistantMsg := providers.NewMessage(providers.RoleAssistant, reply)
	assistantMsg.IsVoice = voiceOrigin

	e.mu.Lock()
	if e.generation != generation || e.state != TurnResponsePending {
		e.mu.Unlock()
		logger.DebugContext(ctx, "discarding stale provider response")
		return
	}

	e.messages = append(e.messages, assistantMsg)
	e.state = TurnAwaitingUserInput
	sessionID := e.sessionID
	e.mu.Unlock()

	e.emit(events.NewAssistantMessageAppended(assistantMsg))
	e.emit(events.NewTurnStateChanged(string(TurnResponsePending), string(TurnAwaitingUserInput)))
	e.persist(ctx, sessionID, assistantMsg)
}

func (e *ConversationEngine) failTurn(generation uint64, err error) {
	e.mu.Lock()
	if e.generation != generation || e.state != TurnResponsePending {
		e.mu.Unlock()
		return
	}

	e.state = TurnError
	e.failure = err
	e.mu.Unlock()

	e.emit(events.NewTurnFailed(err))
	e.emit(events.NewTurnStateChanged(string(TurnResponsePending), string(TurnError)))
}

// AcknowledgeError moves the machine from [TurnError] back to
// [TurnAwaitingUserInput] without appending anything. The failed user
// message stays in the log.
func (e *ConversationEngine) AcknowledgeError() error {
	e.mu.Lock()
	if e.state != TurnError {
		state := e.state
		e.mu.Unlock()
		return &InvalidStateError{Operation: "acknowledge error", State: state}
	}

	e.state = TurnAwaitingUserInput
	e.failure = nil
	e.generation++
	e.mu.Unlock()

	e.emit(events.NewTurnStateChanged(string(TurnError), string(TurnAwaitingUserInput)))
	return nil
}

// State reports the current turn state. The value is a snapshot and may be
// stale by the time the caller acts on it.
func (e *ConversationEngine) State() TurnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Failure reports the retained reason while the machine is in [TurnError].
func (e *ConversationEngine) Failure() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure
}

// SessionID reports the identifier of the active session, empty before
// [ConversationEngine.StartSession].
func (e *ConversationEngine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// SessionNumber reports the injected display counter for this session.
func (e *ConversationEngine) SessionNumber() int {
	return e.sessionNumber
}

// Messages returns a copy of the message log.
func (e *ConversationEngine) Messages() []providers.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	messages := make([]providers.Message, len(e.messages))
	copy(messages, e.messages)
	return messages
}

// providerHistory returns the history slice handed to the provider, capped
// at the configured limit. The greeting is pinned; the oldest messages after
// it are dropped first. Callers must hold e.mu.
func (e *ConversationEngine) providerHistory() []providers.Message {
	if e.historyLimit <= 0 || len(e.messages) <= e.historyLimit {
		history := make([]providers.Message, len(e.messages))
		copy(history, e.messages)
		return history
	}

	history := make([]providers.Message, 0, e.historyLimit)
	history = append(history, e.messages[0])
	history = append(history, e.messages[len(e.messages)-(e.historyLimit-1):]...)
	return history
}

func (e *ConversationEngine) persist(ctx context.Context, sessionID string, msg providers.Message) {
	if e.msgStore == nil {
		return
	}

	if err := e.msgStore.Save(ctx, sessionID, msg); err != nil {
		logger.WarnContext(ctx, "failed to persist message", "error", err)
		e.emit(events.NewPersistFailed(msg.ID, err))
	}
}
