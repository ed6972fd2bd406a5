package chat

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"chat-api/models"
	"chat-api/services"
	"chat-api/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	conv       *models.Conversation
	loadErr    error
	persistErr error

	loadCalls    int
	persistCalls int
	persisted    []models.Message
}

func (f *fakeStore) Load(ctx context.Context, id uuid.UUID, ownerID string) (*models.Conversation, error) {
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	copied := *f.conv
	copied.Messages = append([]models.Message(nil), f.conv.Messages...)
	return &copied, nil
}

func (f *fakeStore) Persist(ctx context.Context, conv *models.Conversation) error {
	f.persistCalls++
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted = append([]models.Message(nil), conv.Messages...)
	return nil
}

type fakeCompleter struct {
	reply models.Message
	err   error

	calls   int
	history []models.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, history []models.Message) (models.Message, error) {
	f.calls++
	f.history = append([]models.Message(nil), history...)
	if f.err != nil {
		return models.Message{}, f.err
	}
	return f.reply, nil
}

func seedConversation(ownerID string, priorTurns int) *models.Conversation {
	conv := &models.Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	for i := 0; i < priorTurns; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		conv.Append(role, "earlier turn")
	}
	return conv
}

func TestSendMessageAppendsBothTurnsInOrder(t *testing.T) {
	conv := seedConversation("u1", 2)
	st := &fakeStore{conv: conv}
	completer := &fakeCompleter{reply: models.Message{Role: models.RoleAssistant, Content: "Hi there"}}
	orch := NewOrchestrator(st, completer, zap.NewNop())

	reply, err := orch.SendMessage(context.Background(), "u1", conv.ID, "Hello")
	require.NoError(t, err)

	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "Hi there", reply.Content)
	assert.False(t, reply.Timestamp.IsZero())

	require.Len(t, st.persisted, 4)
	user := st.persisted[2]
	assistant := st.persisted[3]
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "Hello", user.Content)
	assert.Equal(t, models.RoleAssistant, assistant.Role)
	assert.False(t, assistant.Timestamp.Before(user.Timestamp))
	assert.Equal(t, 1, st.persistCalls)
}

func TestSendMessageSubmitsFullHistory(t *testing.T) {
	conv := seedConversation("u1", 4)
	st := &fakeStore{conv: conv}
	completer := &fakeCompleter{reply: models.Message{Role: models.RoleAssistant, Content: "ok"}}
	orch := NewOrchestrator(st, completer, zap.NewNop())

	_, err := orch.SendMessage(context.Background(), "u1", conv.ID, "latest question")
	require.NoError(t, err)

	// The provider is stateless: it must see every prior turn plus the new
	// user turn, in conversational order.
	require.Len(t, completer.history, 5)
	for i, msg := range conv.Messages {
		assert.Equal(t, msg.Content, completer.history[i].Content)
		assert.Equal(t, msg.Role, completer.history[i].Role)
	}
	last := completer.history[4]
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Equal(t, "latest question", last.Content)
}

func TestSendMessagePersistsUserTurnOnCompletionFailure(t *testing.T) {
	causes := map[string]error{
		"empty response": services.ErrEmptyCompletion,
		"upstream error": &services.UpstreamError{Status: 429, Message: "rate limited"},
		"network error":  &services.NetworkError{Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
	}

	for name, cause := range causes {
		t.Run(name, func(t *testing.T) {
			conv := seedConversation("u1", 2)
			st := &fakeStore{conv: conv}
			completer := &fakeCompleter{err: cause}
			orch := NewOrchestrator(st, completer, zap.NewNop())

			_, err := orch.SendMessage(context.Background(), "u1", conv.ID, "Hello")
			require.ErrorIs(t, err, cause)

			// The user's turn is durably recorded alone; there is no
			// rollback and no retry.
			require.Len(t, st.persisted, 3)
			assert.Equal(t, models.RoleUser, st.persisted[2].Role)
			assert.Equal(t, "Hello", st.persisted[2].Content)
			assert.Equal(t, 1, st.persistCalls)
			assert.Equal(t, 1, completer.calls)
		})
	}
}

func TestSendMessageNotFoundHasNoSideEffects(t *testing.T) {
	st := &fakeStore{loadErr: store.ErrNotFound}
	completer := &fakeCompleter{}
	orch := NewOrchestrator(st, completer, zap.NewNop())

	_, err := orch.SendMessage(context.Background(), "u1", uuid.New(), "Hello")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, completer.calls)
	assert.Equal(t, 0, st.persistCalls)
}

func TestSendMessagePersistFailureAfterSuccess(t *testing.T) {
	conv := seedConversation("u1", 0)
	sink := errors.New("disk full")
	st := &fakeStore{conv: conv, persistErr: sink}
	completer := &fakeCompleter{reply: models.Message{Role: models.RoleAssistant, Content: "Hi"}}
	orch := NewOrchestrator(st, completer, zap.NewNop())

	_, err := orch.SendMessage(context.Background(), "u1", conv.ID, "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, sink)
}

func TestSendMessagePersistFailureAfterCompletionFailureReturnsCompletionCause(t *testing.T) {
	conv := seedConversation("u1", 0)
	st := &fakeStore{conv: conv, persistErr: errors.New("disk full")}
	completer := &fakeCompleter{err: services.ErrEmptyCompletion}
	orch := NewOrchestrator(st, completer, zap.NewNop())

	_, err := orch.SendMessage(context.Background(), "u1", conv.ID, "Hello")
	require.ErrorIs(t, err, services.ErrEmptyCompletion)
	assert.Equal(t, 1, st.persistCalls)
}
