// Package models defines the shared conversation data model: chats,
// immutable messages, and the closed set of message parts.
package models

import (
	"time"
)

// Chat is a single conversation owned by one user. Title is derived
// from the first user message and may be updated; everything else is
// written once.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GroupID   string    `json:"groupId,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is an immutable element of a chat transcript. Once committed
// a message is never edited; corrections append new messages.
type Message struct {
	ID     string `json:"id"`
	ChatID string `json:"chatId"`
	Role   Role   `json:"role"`
	Parts  []Part `json:"parts"`
	// FinishReason records how an assistant reply ended (complete,
	// cancelled, timeout) so readers can tell a truncated reply from
	// a full one. Empty on user messages.
	FinishReason string    `json:"finishReason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Text concatenates the message's text parts. Reasoning and tool parts
// are excluded; this is the rendering an LLM history consumer sees.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			out += p.Text
		}
	}
	return out
}

// ToolCalls returns the tool-call parts of the message in order.
func (m *Message) ToolCalls() []*ToolCall {
	var calls []*ToolCall
	for _, p := range m.Parts {
		if p.Type == PartTypeToolCall && p.ToolCall != nil {
			calls = append(calls, p.ToolCall)
		}
	}
	return calls
}

// ToolResults returns the tool-result parts of the message in order.
func (m *Message) ToolResults() []*ToolResult {
	var results []*ToolResult
	for _, p := range m.Parts {
		if p.Type == PartTypeToolResult && p.ToolResult != nil {
			results = append(results, p.ToolResult)
		}
	}
	return results
}
