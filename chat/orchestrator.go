package chat

import (
	"context"
	"fmt"

	"chat-api/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationSource is the slice of the store the pipeline needs.
type ConversationSource interface {
	Load(ctx context.Context, id uuid.UUID, ownerID string) (*models.Conversation, error)
	Persist(ctx context.Context, conv *models.Conversation) error
}

// Completer produces the next assistant turn from a full ordered history.
type Completer interface {
	Complete(ctx context.Context, history []models.Message) (models.Message, error)
}

// Orchestrator runs one chat request end to end: load the owned
// conversation, append the user's turn, request a completion over the full
// history, append the assistant's turn on success, and persist exactly once
// either way.
type Orchestrator struct {
	store       ConversationSource
	completions Completer
	logger      *zap.Logger
}

// NewOrchestrator wires the pipeline's collaborators.
func NewOrchestrator(store ConversationSource, completions Completer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:       store,
		completions: completions,
		logger:      logger,
	}
}

// SendMessage runs the pipeline for one validated request and returns the
// assistant's turn on success.
//
// The user's turn survives a failed completion: the conversation is
// persisted with the one-sided turn and the completion failure is returned.
// There is no rollback of the user's turn and no retry of the completion.
func (o *Orchestrator) SendMessage(ctx context.Context, ownerID string, chatID uuid.UUID, prompt string) (models.Message, error) {
	conv, err := o.store.Load(ctx, chatID, ownerID)
	if err != nil {
		return models.Message{}, err
	}

	conv.Append(models.RoleUser, prompt)

	reply, completionErr := o.completions.Complete(ctx, conv.Messages)

	var assistant models.Message
	if completionErr == nil {
		assistant = conv.Append(reply.Role, reply.Content)
	} else {
		o.logger.Error("completion failed, persisting user turn alone",
			zap.String("chat_id", chatID.String()),
			zap.Error(completionErr))
	}

	if err := o.store.Persist(ctx, conv); err != nil {
		o.logger.Error("failed to persist conversation",
			zap.String("chat_id", chatID.String()),
			zap.Error(err))
		if completionErr != nil {
			return models.Message{}, completionErr
		}
		return models.Message{}, fmt.Errorf("failed to persist conversation: %w", err)
	}

	if completionErr != nil {
		return models.Message{}, completionErr
	}
	return assistant, nil
}
