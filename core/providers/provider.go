// Package providers defines the conversation message model and the contract
// for services that generate assistant replies from conversation history.
package providers

import (
	"context"
	"fmt"
)

// ResponseProvider produces the next assistant reply for a conversation.
//
// Generate blocks until a reply is available, the context is done, or the
// provider fails. Implementations return [*Error] for failures so callers can
// distinguish auth problems from transient network ones.
type ResponseProvider interface {
	Generate(ctx context.Context, history []Message) (string, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	ErrorKindNetwork         ErrorKind = "network"
	ErrorKindAuthFailure     ErrorKind = "auth_failure"
	ErrorKindRateLimited     ErrorKind = "rate_limited"
	ErrorKindInvalidResponse ErrorKind = "invalid_response"
)

type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("provider error (%s)", e.Kind)
	}
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }
