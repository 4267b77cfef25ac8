package models

import (
	"encoding/json"
	"fmt"
)

// PartType discriminates the closed set of message part variants.
type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeReasoning  PartType = "reasoning"
	PartTypeToolCall   PartType = "tool-call"
	PartTypeToolResult PartType = "tool-result"
	PartTypeFile       PartType = "file"
)

// Part is one element of a message body. Exactly one payload field is
// set, selected by Type; Validate enforces this before persistence.
type Part struct {
	Type       PartType    `json:"type"`
	Text       string      `json:"text,omitempty"`
	ToolCall   *ToolCall   `json:"toolCall,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`
	File       *FileRef    `json:"file,omitempty"`
}

// ToolCall is the model's request to invoke a named tool. Input is the
// raw JSON argument object as produced by the model.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of one tool invocation, correlated to its
// originating call by CallID. Failed invocations set IsError and carry
// a human-readable explanation in Content; they are data, not errors.
type ToolResult struct {
	CallID  string `json:"callId"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"isError,omitempty"`
}

// FileRef points at an attachment by reference. Bodies are never
// inlined into the transcript.
type FileRef struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	URL       string `json:"url"`
}

func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

func ReasoningPart(text string) Part {
	return Part{Type: PartTypeReasoning, Text: text}
}

func ToolCallPart(call *ToolCall) Part {
	return Part{Type: PartTypeToolCall, ToolCall: call}
}

func ToolResultPart(result *ToolResult) Part {
	return Part{Type: PartTypeToolResult, ToolResult: result}
}

func FilePart(file *FileRef) Part {
	return Part{Type: PartTypeFile, File: file}
}

// Validate checks that the part carries the payload its type requires
// and nothing else.
func (p Part) Validate() error {
	switch p.Type {
	case PartTypeText, PartTypeReasoning:
		if p.ToolCall != nil || p.ToolResult != nil || p.File != nil {
			return fmt.Errorf("part type %q: unexpected payload", p.Type)
		}
	case PartTypeToolCall:
		if p.ToolCall == nil {
			return fmt.Errorf("part type %q: missing tool call", p.Type)
		}
		if p.ToolCall.ID == "" || p.ToolCall.Name == "" {
			return fmt.Errorf("part type %q: tool call requires id and name", p.Type)
		}
	case PartTypeToolResult:
		if p.ToolResult == nil {
			return fmt.Errorf("part type %q: missing tool result", p.Type)
		}
		if p.ToolResult.CallID == "" {
			return fmt.Errorf("part type %q: tool result requires callId", p.Type)
		}
	case PartTypeFile:
		if p.File == nil {
			return fmt.Errorf("part type %q: missing file reference", p.Type)
		}
	default:
		return fmt.Errorf("unknown part type %q", p.Type)
	}
	return nil
}

// ValidateParts checks every part of a message body and the pairing
// invariant: within one message, tool results must reference a
// tool-call id seen earlier in the same body or be orphan-free by
// construction (results for calls from the preceding assistant
// message are carried by the store-level check instead).
func ValidateParts(parts []Part) error {
	for i, p := range parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}
