package events

import "github.com/mindfuljourney/voicechat-core/core/providers"

const (
	// KindUserMessageAppended identifies a user message entering the history.
	KindUserMessageAppended Kind = "message.user_appended"
	// KindAssistantMessageAppended identifies an assistant reply entering the history.
	KindAssistantMessageAppended Kind = "message.assistant_appended"
)

// UserMessageAppended carries a user message added to the conversation.
type UserMessageAppended struct {
	Base
	Message providers.Message
}

// NewUserMessageAppended creates a user message appended event.
func NewUserMessageAppended(msg providers.Message) UserMessageAppended {
	return UserMessageAppended{Base: NewBase(KindUserMessageAppended), Message: msg}
}

// AssistantMessageAppended carries an assistant reply added to the conversation.
type AssistantMessageAppended struct {
	Base
	Message providers.Message
}

// NewAssistantMessageAppended creates an assistant message appended event.
func NewAssistantMessageAppended(msg providers.Message) AssistantMessageAppended {
	return AssistantMessageAppended{Base: NewBase(KindAssistantMessageAppended), Message: msg}
}
