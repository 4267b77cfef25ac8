// Package store persists chats and their immutable message
// transcripts.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// ErrNotFound covers both a missing chat and a chat owned by someone
// else: callers cannot distinguish the two, so ownership probing leaks
// nothing.
var ErrNotFound = errors.New("store: chat not found")

// Store is the conversation persistence surface. Messages are
// append-only; AppendMessage commits a message and its parts
// atomically or not at all.
type Store interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error)
	ListChats(ctx context.Context, userID string) ([]*models.Chat, error)
	UpdateChatTitle(ctx context.Context, chatID, title string) error
	DeleteChat(ctx context.Context, chatID, userID string) error

	AppendMessage(ctx context.Context, msg *models.Message) error
	// GetMessages returns the most recent messages in chronological
	// order, oldest truncated first. limit <= 0 means no limit.
	GetMessages(ctx context.Context, chatID string, limit int) ([]*models.Message, error)
}

// validateMessage enforces part well-formedness and the pairing
// invariant: within one message every tool-call has its tool-result
// and every tool-result points at a tool-call, matched by callId.
func validateMessage(msg *models.Message) error {
	if msg.ChatID == "" {
		return fmt.Errorf("store: message requires chat id")
	}
	if len(msg.Parts) == 0 {
		return fmt.Errorf("store: message requires at least one part")
	}
	if err := models.ValidateParts(msg.Parts); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	calls := make(map[string]bool)
	for _, p := range msg.Parts {
		if p.Type == models.PartTypeToolCall {
			calls[p.ToolCall.ID] = false
		}
	}
	for _, p := range msg.Parts {
		if p.Type != models.PartTypeToolResult {
			continue
		}
		seen, ok := calls[p.ToolResult.CallID]
		if !ok {
			return fmt.Errorf("store: tool result %q has no matching tool call", p.ToolResult.CallID)
		}
		if seen {
			return fmt.Errorf("store: duplicate tool result for call %q", p.ToolResult.CallID)
		}
		calls[p.ToolResult.CallID] = true
	}
	for id, resolved := range calls {
		if !resolved {
			return fmt.Errorf("store: tool call %q has no result", id)
		}
	}
	return nil
}
