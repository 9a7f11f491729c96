package openai

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mindfuljourney/voicechat-core/core/providers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
		WithInstructions("be brief"),
	)
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}
	return client
}

func TestGenerateReturnsReply(t *testing.T) {
	var gotRequest requestBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Tell me more..."}},
			},
		})
	})

	history := []providers.Message{
		providers.NewMessage(providers.RoleAssistant, "How are you?"),
		providers.NewMessage(providers.RoleUser, "I feel anxious"),
	}

	reply, err := client.Generate(t.Context(), history)
	if err != nil {
		t.Fatalf("expected generate to succeed, got %v", err)
	}
	if reply != "Tell me more..." {
		t.Fatalf("unexpected reply %q", reply)
	}

	if len(gotRequest.Messages) != 3 {
		t.Fatalf("expected system prompt plus 2 history messages, got %d", len(gotRequest.Messages))
	}
	if gotRequest.Messages[0].Role != messageRoleSystem || gotRequest.Messages[0].Content != "be brief" {
		t.Fatalf("unexpected system message %+v", gotRequest.Messages[0])
	}
	if gotRequest.Messages[2].Role != messageRoleUser {
		t.Fatalf("expected the last message to carry the user role, got %q", gotRequest.Messages[2].Role)
	}
}

func TestGenerateClassifiesFailures(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		expected   providers.ErrorKind
	}{
		{name: "unauthorized", statusCode: http.StatusUnauthorized, expected: providers.ErrorKindAuthFailure},
		{name: "forbidden", statusCode: http.StatusForbidden, expected: providers.ErrorKindAuthFailure},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, expected: providers.ErrorKindRateLimited},
		{name: "server error", statusCode: http.StatusInternalServerError, expected: providers.ErrorKindNetwork},
		{name: "unexpected status", statusCode: http.StatusBadRequest, expected: providers.ErrorKindInvalidResponse},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(testCase.statusCode)
			})

			_, err := client.Generate(t.Context(), nil)
			var providerErr *providers.Error
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected a provider error, got %v", err)
			}
			if providerErr.Kind != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, providerErr.Kind)
			}
		})
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := client.Generate(t.Context(), nil)
	var providerErr *providers.Error
	if !errors.As(err, &providerErr) || providerErr.Kind != providers.ErrorKindInvalidResponse {
		t.Fatalf("expected invalid response error, got %v", err)
	}
}

func TestGenerateReportsTransportFailureAsNetwork(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}

	_, err = client.Generate(t.Context(), nil)
	var providerErr *providers.Error
	if !errors.As(err, &providerErr) || providerErr.Kind != providers.ErrorKindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}
