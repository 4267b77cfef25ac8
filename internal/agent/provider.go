// Package agent implements the conversational turn runtime: the tool
// catalog and executor, the LLM provider abstraction, and the turn
// controller that drives a chat turn from inbound message to committed
// transcript.
package agent

import (
	"context"
	"encoding/json"

	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// Provider streams completions from an LLM backend.
type Provider interface {
	// Name identifies the backend for logs and metrics.
	Name() string

	// Complete streams a completion. The returned channel is closed
	// after the final chunk; a chunk with Err set terminates the
	// stream.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
}

// CompletionRequest is one model call within a turn.
type CompletionRequest struct {
	Model     string
	APIKey    string
	System    string
	Messages  []CompletionMessage
	Tools     []ToolDefinition
	MaxTokens int
}

// CompletionMessage is a transcript entry in provider-neutral form.
// Role "tool" carries results for the preceding assistant tool calls.
type CompletionMessage struct {
	Role        string
	Content     string
	ToolCalls   []*models.ToolCall
	ToolResults []*models.ToolResult
}

// CompletionChunk is one streamed fragment of a model response.
type CompletionChunk struct {
	Text      string
	Reasoning string
	ToolCall  *models.ToolCall

	Done         bool
	StopReason   string
	InputTokens  int
	OutputTokens int

	Err error
}

// ToolDefinition is the provider-facing description of one tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}
