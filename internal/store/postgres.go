package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/hphungg/chatbot-sub000/internal/config"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// PostgresStore persists conversations in the portal database.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, group_id, title, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`,
		chat.ID, chat.UserID, chat.GroupID, chat.Title, chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, COALESCE(group_id, ''), title, created_at, updated_at
		FROM chats WHERE id = $1 AND user_id = $2`,
		chatID, userID,
	)
	var chat models.Chat
	err := row.Scan(&chat.ID, &chat.UserID, &chat.GroupID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &chat, nil
}

func (s *PostgresStore) ListChats(ctx context.Context, userID string) ([]*models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(group_id, ''), title, created_at, updated_at
		FROM chats WHERE user_id = $1
		ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.GroupID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

func (s *PostgresStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = $2, updated_at = NOW() WHERE id = $1`,
		chatID, title,
	)
	if err != nil {
		return fmt.Errorf("update chat title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteChat(ctx context.Context, chatID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chats WHERE id = $1 AND user_id = $2`,
		chatID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage writes the message and bumps the chat's updated_at in
// one transaction.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	parts, err := json.Marshal(msg.Parts)
	if err != nil {
		return fmt.Errorf("marshal parts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, finish_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ChatID, string(msg.Role), parts, msg.FinishReason, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = NOW() WHERE id = $1`,
		msg.ChatID,
	)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMessages(ctx context.Context, chatID string, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, chat_id, role, parts, finish_reason, created_at FROM (
			SELECT id, chat_id, role, parts, finish_reason, created_at
			FROM messages WHERE chat_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent ORDER BY created_at ASC, id ASC`
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := s.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var msg models.Message
		var parts []byte
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &parts, &msg.FinishReason, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(parts, &msg.Parts); err != nil {
			return nil, fmt.Errorf("unmarshal parts for message %s: %w", msg.ID, err)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}
