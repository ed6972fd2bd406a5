package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat-api/models"

	"github.com/google/uuid"
)

// Memory is an in-memory ConversationStore and UserStore. It mirrors the
// Postgres store's semantics, including the absence of any cross-request
// locking: concurrent persists of the same conversation are last-write-wins.
type Memory struct {
	mu    sync.Mutex
	convs map[uuid.UUID]models.Conversation
	users map[string]models.User
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		convs: make(map[uuid.UUID]models.Conversation),
		users: make(map[string]models.User),
	}
}

// Create inserts a new, empty conversation owned by ownerID.
func (m *Memory) Create(ctx context.Context, ownerID, title string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := models.Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	m.convs[conv.ID] = conv
	out := cloneConversation(conv)
	return &out, nil
}

// Load returns a copy of the conversation, scoped by id and owner.
func (m *Memory) Load(ctx context.Context, id uuid.UUID, ownerID string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := cloneConversation(conv)
	return &out, nil
}

// Persist stores the conversation's current message sequence, assigning ids
// to messages that do not have one yet. A later persist of the same
// conversation replaces an earlier one.
func (m *Memory) Persist(ctx context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range conv.Messages {
		if conv.Messages[i].ID == uuid.Nil {
			conv.Messages[i].ID = uuid.New()
		}
	}
	m.convs[conv.ID] = cloneConversation(*conv)
	return nil
}

// List returns the owner's conversations without message bodies, newest
// first.
func (m *Memory) List(ctx context.Context, ownerID string) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conversations := []models.Conversation{}
	for _, conv := range m.convs {
		if conv.OwnerID != ownerID {
			continue
		}
		c := conv
		c.Messages = nil
		conversations = append(conversations, c)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
	})
	return conversations, nil
}

// Rename updates a conversation's title, scoped by owner.
func (m *Memory) Rename(ctx context.Context, id uuid.UUID, ownerID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return ErrNotFound
	}
	conv.Title = title
	m.convs[id] = conv
	return nil
}

// Delete removes a conversation and its messages, scoped by owner.
func (m *Memory) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.convs, id)
	return nil
}

// UpsertUser creates or refreshes an identity record.
func (m *Memory) UpsertUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

// DeleteUser removes an identity record. Deleting an absent user is a no-op.
func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

// User looks up an identity record. Intended for tests.
func (m *Memory) User(id string) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	return user, ok
}

func cloneConversation(conv models.Conversation) models.Conversation {
	out := conv
	out.Messages = append([]models.Message(nil), conv.Messages...)
	return out
}
