package providers

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time

	// IsVoice records that the message entered or left the conversation
	// through the voice pipeline rather than typed input.
	IsVoice bool
}

func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func NewVoiceMessage(role Role, content string) Message {
	msg := NewMessage(role, content)
	msg.IsVoice = true
	return msg
}
