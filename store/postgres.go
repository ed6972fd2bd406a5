package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chat-api/models"

	"github.com/google/uuid"
)

// Postgres implements ConversationStore and UserStore on PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres store backed by db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create inserts a new, empty conversation owned by ownerID.
func (p *Postgres) Create(ctx context.Context, ownerID, title string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, title, created_at) VALUES ($1, $2, $3, $4)",
		conv.ID, conv.OwnerID, conv.Title, conv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// Load fetches a conversation and its full message history. The lookup is
// scoped by id and owner in a single query, so a conversation owned by
// someone else is indistinguishable from a missing one.
func (p *Postgres) Load(ctx context.Context, id uuid.UUID, ownerID string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := p.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, created_at FROM conversations WHERE id = $1 AND user_id = $2",
		id, ownerID).
		Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	rows, err := p.db.QueryContext(ctx,
		"SELECT id, role, content, created_at FROM messages WHERE conversation_id = $1 ORDER BY seq ASC",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return conv, nil
}

// Persist durably writes the conversation's current message sequence.
// Messages that already carry an id were stored by an earlier persist; the
// rest are inserted in order within one transaction and assigned ids.
func (p *Postgres) Persist(ctx context.Context, conv *models.Conversation) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range conv.Messages {
		msg := &conv.Messages[i]
		if msg.ID != uuid.Nil {
			continue
		}
		msg.ID = uuid.New()
		_, err := tx.ExecContext(ctx,
			"INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)",
			msg.ID, conv.ID, msg.Role, msg.Content, msg.Timestamp)
		if err != nil {
			msg.ID = uuid.Nil
			return fmt.Errorf("failed to persist message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation: %w", err)
	}
	return nil
}

// List returns the owner's conversations without message bodies, newest
// first.
func (p *Postgres) List(ctx context.Context, ownerID string) ([]models.Conversation, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, user_id, title, created_at FROM conversations WHERE user_id = $1 ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	return conversations, nil
}

// Rename updates a conversation's title, scoped by owner.
func (p *Postgres) Rename(ctx context.Context, id uuid.UUID, ownerID, title string) error {
	res, err := p.db.ExecContext(ctx,
		"UPDATE conversations SET title = $1 WHERE id = $2 AND user_id = $3",
		title, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a conversation and its messages, scoped by owner.
func (p *Postgres) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM messages m USING conversations c
		 WHERE m.conversation_id = c.id AND c.id = $1 AND c.user_id = $2`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM conversations WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// UpsertUser creates or refreshes an identity record.
func (p *Postgres) UpsertUser(ctx context.Context, user models.User) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, image) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, image = EXCLUDED.image`,
		user.ID, user.Email, user.Name, user.Image)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// DeleteUser removes an identity record. Deleting an absent user is a no-op.
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
