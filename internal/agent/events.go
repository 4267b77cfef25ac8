package agent

import (
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// EventType discriminates turn stream events.
type EventType string

const (
	EventTextDelta      EventType = "text-delta"
	EventReasoningDelta EventType = "reasoning-delta"
	EventToolCall       EventType = "tool-call"
	EventToolResult     EventType = "tool-result"
	EventFinish         EventType = "finish"
	EventError          EventType = "error"
)

// Event is one element of a turn's output stream. Seq increases
// monotonically within a turn and supports resume-from replay.
type Event struct {
	Type EventType `json:"type"`
	Seq  uint64    `json:"seq"`

	Delta      string             `json:"delta,omitempty"`
	ToolCall   *models.ToolCall   `json:"toolCall,omitempty"`
	ToolResult *models.ToolResult `json:"toolResult,omitempty"`

	// Finish fields.
	ChatID       string `json:"chatId,omitempty"`
	MessageID    string `json:"messageId,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`

	Error string `json:"error,omitempty"`
}

// Finish reasons.
const (
	FinishComplete  = "complete"
	FinishCancelled = "cancelled"
	FinishTimeout   = "timeout"
)
