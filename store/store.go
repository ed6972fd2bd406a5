package store

import (
	"context"
	"errors"

	"chat-api/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a conversation does not exist or is not owned
// by the requesting user. Callers cannot tell the two cases apart.
var ErrNotFound = errors.New("conversation not found")

// ConversationStore persists conversations and their messages. Every lookup
// is scoped by both the conversation id and the owner in one operation.
type ConversationStore interface {
	Create(ctx context.Context, ownerID, title string) (*models.Conversation, error)
	Load(ctx context.Context, id uuid.UUID, ownerID string) (*models.Conversation, error)
	Persist(ctx context.Context, conv *models.Conversation) error
	List(ctx context.Context, ownerID string) ([]models.Conversation, error)
	Rename(ctx context.Context, id uuid.UUID, ownerID, title string) error
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}

// UserStore keeps identity records in sync with the auth provider.
type UserStore interface {
	UpsertUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id string) error
}
