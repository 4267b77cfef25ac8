package agent

import (
	"context"
	"encoding/json"
)

// Tool limits.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 1 << 20 // 1MB of argument JSON
)

// Tool is one invocable capability exposed to the model. Execute
// reports expected failures (bad lookups, unreachable collaborators)
// through Result.IsError; a returned error means the tool itself
// misbehaved and is normalized by the executor.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

// Result is a tool's outcome before callId correlation. Content is
// the payload handed back to the model, JSON or prose.
type Result struct {
	Content string
	IsError bool
}

// Ok builds a success result from a JSON-marshalable payload.
func Ok(payload any) *Result {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Result{Content: "kết quả không thể tuần tự hóa", IsError: true}
	}
	return &Result{Content: string(data)}
}

// Fail builds a failed result with a human-readable explanation.
func Fail(message string) *Result {
	return &Result{Content: message, IsError: true}
}
