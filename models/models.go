package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message. The set is closed.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Conversation is an owned, ordered, append-only sequence of messages.
// ID and OwnerID are immutable after creation.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// Append adds a new message to the in-memory history and returns it. The
// timestamp is assigned here and never decreases within a conversation.
func (c *Conversation) Append(role Role, content string) Message {
	now := time.Now()
	if n := len(c.Messages); n > 0 && c.Messages[n-1].Timestamp.After(now) {
		now = c.Messages[n-1].Timestamp
	}
	msg := Message{Role: role, Content: content, Timestamp: now}
	c.Messages = append(c.Messages, msg)
	return msg
}

// Message is one turn in a conversation. A message without an ID has not been
// persisted yet; the store assigns one on persist.
type Message struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagePayload is the wire form of a message on the chat endpoint.
// Timestamps travel as epoch milliseconds.
type MessagePayload struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Payload converts a message to its wire form.
func (m Message) Payload() MessagePayload {
	return MessagePayload{
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp.UnixMilli(),
	}
}

// User is an identity record kept in sync with the auth provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ChatRequest is the request body for sending a chat message.
type ChatRequest struct {
	ChatID string `json:"chatId"`
	Prompt string `json:"prompt"`
}

// CreateConversationRequest is the request body for creating a conversation.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// RenameConversationRequest is the request body for renaming a conversation.
type RenameConversationRequest struct {
	Title string `json:"title"`
}
