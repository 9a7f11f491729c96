package voicechat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mindfuljourney/voicechat-core/core/events"
	"github.com/mindfuljourney/voicechat-core/core/providers"
)

type stubProvider struct {
	mu        sync.Mutex
	replies   []string
	err       error
	histories [][]providers.Message
	block     chan struct{}
	called    chan struct{}
}

func newStubProvider(replies ...string) *stubProvider {
	return &stubProvider{replies: replies, called: make(chan struct{}, 8)}
}

func (p *stubProvider) Generate(ctx context.Context, history []providers.Message) (string, error) {
	p.mu.Lock()
	p.histories = append(p.histories, history)
	block := p.block
	err := p.err
	reply := ""
	if len(p.replies) > 0 {
		reply = p.replies[0]
		if len(p.replies) > 1 {
			p.replies = p.replies[1:]
		}
	}
	p.mu.Unlock()

	select {
	case p.called <- struct{}{}:
	default:
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", &providers.Error{Kind: providers.ErrorKindNetwork, Cause: ctx.Err()}
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (p *stubProvider) lastHistory() []providers.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.histories) == 0 {
		return nil
	}
	return p.histories[len(p.histories)-1]
}

func TestStartSessionPostsGreeting(t *testing.T) {
	provider := newStubProvider()
	engine, err := NewConversationEngine(provider, WithGreeting("Hello there."))
	if err != nil {
		t.Fatalf("expected engine to be created, got %v", err)
	}

	engine.StartSession(t.Context())

	messages := engine.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected log to contain only the greeting, got %d messages", len(messages))
	}
	if messages[0].Role != providers.RoleAssistant || messages[0].Content != "Hello there." {
		t.Fatalf("unexpected greeting message: %+v", messages[0])
	}
	if got := engine.State(); got != TurnAwaitingUserInput {
		t.Fatalf("expected state %q, got %q", TurnAwaitingUserInput, got)
	}
}

func TestSubmitUserMessageRoundTrip(t *testing.T) {
	provider := newStubProvider("Tell me more...")
	engine, _ := NewConversationEngine(provider)
	engine.StartSession(t.Context())

	if err := engine.SubmitUserMessage(t.Context(), "I feel anxious"); err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}

	messages := engine.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[1].Role != providers.RoleUser || messages[1].Content != "I feel anxious" {
		t.Fatalf("unexpected user message: %+v", messages[1])
	}
	if messages[2].Role != providers.RoleAssistant || messages[2].Content != "Tell me more..." {
		t.Fatalf("unexpected assistant message: %+v", messages[2])
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("expected created_at to be monotonically non-decreasing, %v before %v",
				messages[i].CreatedAt, messages[i-1].CreatedAt)
		}
	}
	if got := engine.State(); got != TurnAwaitingUserInput {
		t.Fatalf("expected state %q, got %q", TurnAwaitingUserInput, got)
	}
}

func TestSubmitOutsideAwaitingUserInputFails(t *testing.T) {
	provider := newStubProvider("reply")
	engine, _ := NewConversationEngine(provider)

	err := engine.SubmitUserMessage(t.Context(), "too early")
	var invalidState *InvalidStateError
	if !errors.As(err, &invalidState) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if len(engine.Messages()) != 0 {
		t.Fatalf("expected log to stay untouched, got %d messages", len(engine.Messages()))
	}
}

func TestProviderFailureRetainsUserMessage(t *testing.T) {
	provider := newStubProvider()
	provider.err = &providers.Error{Kind: providers.ErrorKindNetwork, Cause: fmt.Errorf("connection reset")}
	engine, _ := NewConversationEngine(provider)
	engine.StartSession(t.Context())

	if err := engine.SubmitUserMessage(t.Context(), "hello?"); err == nil {
		t.Fatal("expected submit to fail")
	}

	if got := engine.State(); got != TurnError {
		t.Fatalf("expected state %q, got %q", TurnError, got)
	}
	if engine.Failure() == nil {
		t.Fatal("expected failure reason to be retained")
	}

	messages := engine.Messages()
	if len(messages) != 2 || messages[1].Content != "hello?" {
		t.Fatalf("expected the failed user message to remain in the log, got %+v", messages)
	}

	if err := engine.AcknowledgeError(); err != nil {
		t.Fatalf("expected acknowledge to succeed, got %v", err)
	}
	if got := engine.State(); got != TurnAwaitingUserInput {
		t.Fatalf("expected state %q after acknowledge, got %q", TurnAwaitingUserInput, got)
	}
	if engine.Failure() != nil {
		t.Fatal("expected failure reason to be cleared")
	}

	provider.err = nil
	provider.replies = []string{"still here"}
	if err := engine.SubmitUserMessage(t.Context(), "hello again"); err != nil {
		t.Fatalf("expected resubmit to succeed, got %v", err)
	}
}

func TestProviderTimeoutTreatedAsFailure(t *testing.T) {
	provider := newStubProvider("late reply")
	provider.block = make(chan struct{})
	engine, _ := NewConversationEngine(provider, WithResponseTimeout(20*time.Millisecond))
	engine.StartSession(t.Context())

	if err := engine.SubmitUserMessage(t.Context(), "anyone?"); err == nil {
		t.Fatal("expected submit to fail on timeout")
	}

	if got := engine.State(); got != TurnError {
		t.Fatalf("expected state %q, got %q", TurnError, got)
	}
	messages := engine.Messages()
	if len(messages) != 2 || messages[1].Content != "anyone?" {
		t.Fatalf("expected the unanswered user message to remain, got %+v", messages)
	}
}

func TestStaleProviderResponseDiscarded(t *testing.T) {
	provider := newStubProvider("stale reply")
	provider.block = make(chan struct{})
	engine, _ := NewConversationEngine(provider, WithGreeting("hi"))
	engine.StartSession(t.Context())

	submitted := make(chan error, 1)
	go func() {
		submitted <- engine.SubmitUserMessage(t.Context(), "first message")
	}()

	select {
	case <-provider.called:
	case <-time.After(time.Second):
		t.Fatal("provider was never invoked")
	}

	// The session restarts while the first response is still in flight.
	engine.StartSession(t.Context())
	close(provider.block)

	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("submit never returned")
	}

	for _, msg := range engine.Messages() {
		if msg.Content == "stale reply" || msg.Content == "first message" {
			t.Fatalf("expected the superseded turn to stay out of the new log, found %q", msg.Content)
		}
	}
	if got := engine.State(); got != TurnAwaitingUserInput {
		t.Fatalf("expected state %q, got %q", TurnAwaitingUserInput, got)
	}
}

func TestProviderHistoryCapPinsGreeting(t *testing.T) {
	provider := newStubProvider("ok")
	engine, _ := NewConversationEngine(provider, WithGreeting("greeting"), WithHistoryLimit(3))
	engine.StartSession(t.Context())

	for i := range 4 {
		if err := engine.SubmitUserMessage(t.Context(), fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("expected submit %d to succeed, got %v", i, err)
		}
	}

	history := provider.lastHistory()
	if len(history) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(history))
	}
	if history[0].Content != "greeting" {
		t.Fatalf("expected the greeting to be pinned first, got %q", history[0].Content)
	}
	if history[len(history)-1].Content != "message 3" {
		t.Fatalf("expected the newest message last, got %q", history[len(history)-1].Content)
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, providers.Message) error {
	return fmt.Errorf("table missing")
}

func (failingStore) List(context.Context, string) ([]providers.Message, error) {
	return nil, fmt.Errorf("table missing")
}

func TestPersistFailureSurfacedNotFatal(t *testing.T) {
	var mu sync.Mutex
	persistFailures := 0

	provider := newStubProvider("reply")
	engine, _ := NewConversationEngine(provider,
		WithMessageStore(failingStore{}),
		WithEngineEventHandler(func(event events.Event) {
			if event.Kind() == events.KindPersistFailed {
				mu.Lock()
				persistFailures++
				mu.Unlock()
			}
		}),
	)
	engine.StartSession(t.Context())

	if err := engine.SubmitUserMessage(t.Context(), "hello"); err != nil {
		t.Fatalf("expected submit to succeed despite persistence failing, got %v", err)
	}
	if len(engine.Messages()) != 3 {
		t.Fatalf("expected the in-memory log to keep all messages, got %d", len(engine.Messages()))
	}

	mu.Lock()
	defer mu.Unlock()
	if persistFailures != 3 {
		t.Fatalf("expected 3 persist failure events, got %d", persistFailures)
	}
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	provider := newStubProvider("reply")
	engine, _ := NewConversationEngine(provider)
	engine.StartSession(t.Context())

	if err := engine.SubmitUserMessage(t.Context(), "   "); err == nil {
		t.Fatal("expected blank input to be rejected")
	}
	if len(engine.Messages()) != 1 {
		t.Fatalf("expected log to stay untouched, got %d messages", len(engine.Messages()))
	}
	if !strings.Contains(engine.Messages()[0].Content, "How are you feeling") {
		t.Fatalf("unexpected greeting content: %q", engine.Messages()[0].Content)
	}
}
