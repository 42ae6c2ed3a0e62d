package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uiforge/uiforge-engine/pkg/database"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// ChatMessageRepository defines the interface for chat message data access.
// Messages are append-only; they are only removed by component cascade.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	// ListByComponent returns a component's messages ordered by creation
	// time ascending.
	ListByComponent(ctx context.Context, componentID uuid.UUID) ([]*models.ChatMessage, error)
}

// chatMessageRepository implements ChatMessageRepository using PostgreSQL.
type chatMessageRepository struct {
	db *database.DB
}

// NewChatMessageRepository creates a new chat message repository.
func NewChatMessageRepository(db *database.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

// Create appends a chat message.
func (r *chatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertChatMessage(ctx, tx, message); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByComponent returns all messages for one component, oldest first.
func (r *chatMessageRepository) ListByComponent(ctx context.Context, componentID uuid.UUID) ([]*models.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, component_id, role, content, created_at
		FROM chat_messages
		WHERE component_id = $1
		ORDER BY created_at, id`, componentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ComponentID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return messages, nil
}

// insertChatMessage inserts a message within an existing transaction.
func insertChatMessage(ctx context.Context, tx pgx.Tx, message *models.ChatMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()

	if !models.IsValidChatRole(message.Role) {
		return fmt.Errorf("invalid chat role %q", message.Role)
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO chat_messages (id, component_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		message.ID,
		message.ComponentID,
		message.Role,
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// Ensure chatMessageRepository implements ChatMessageRepository at compile time.
var _ ChatMessageRepository = (*chatMessageRepository)(nil)
