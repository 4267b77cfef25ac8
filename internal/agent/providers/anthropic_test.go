package providers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

func TestBuildParamsDefaults(t *testing.T) {
	p := NewAnthropicProvider()
	params, err := p.buildParams(&agent.CompletionRequest{
		Model:  "claude-sonnet-4-20250514",
		System: "Bạn là trợ lý nội bộ của công ty.",
		Messages: []agent.CompletionMessage{
			{Role: "user", Content: "Hôm nay có sự kiện gì không?"},
		},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if params.MaxTokens != defaultMaxTokens {
		t.Errorf("MaxTokens = %d, want default %d", params.MaxTokens, defaultMaxTokens)
	}
	if len(params.System) != 1 || params.System[0].Text == "" {
		t.Errorf("system block = %+v", params.System)
	}
	if len(params.Messages) != 1 {
		t.Errorf("messages = %d, want 1", len(params.Messages))
	}
}

func TestConvertAnthropicMessages(t *testing.T) {
	msgs := []agent.CompletionMessage{
		{Role: "user", Content: "Ai làm ở phòng Kế toán?"},
		{Role: "assistant", ToolCalls: []*models.ToolCall{
			{ID: "tc1", Name: "getEmployeesByDepartment", Input: json.RawMessage(`{"departmentName":"Kế toán"}`)},
		}},
		{Role: "tool", ToolResults: []*models.ToolResult{
			{CallID: "tc1", Name: "getEmployeesByDepartment", Content: `{"count":3}`},
		}},
		{Role: "assistant", Content: "Phòng Kế toán có 3 nhân viên."},
	}

	got, err := convertAnthropicMessages(msgs)
	if err != nil {
		t.Fatalf("convertAnthropicMessages: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	// tool results ride on a user-role message
	if got[2].Role != "user" {
		t.Errorf("tool result message role = %q, want user", got[2].Role)
	}
	if got[1].Role != "assistant" || got[3].Role != "assistant" {
		t.Errorf("assistant roles = %q, %q", got[1].Role, got[3].Role)
	}
}

func TestConvertAnthropicMessagesBadToolInput(t *testing.T) {
	msgs := []agent.CompletionMessage{
		{Role: "assistant", ToolCalls: []*models.ToolCall{
			{ID: "tc1", Name: "getAllEmployees", Input: json.RawMessage(`{truncated`)},
		}},
	}
	if _, err := convertAnthropicMessages(msgs); err == nil {
		t.Error("invalid tool input accepted")
	}
}

func TestConvertAnthropicTools(t *testing.T) {
	tools, err := convertAnthropicTools([]agent.ToolDefinition{
		{
			Name:        "getEmployeeByName",
			Description: "Tìm nhân viên theo tên.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
		},
	})
	if err != nil {
		t.Fatalf("convertAnthropicTools: %v", err)
	}
	if len(tools) != 1 || tools[0].OfTool == nil {
		t.Fatalf("tools = %+v", tools)
	}
	if tools[0].OfTool.Name != "getEmployeeByName" {
		t.Errorf("name = %q", tools[0].OfTool.Name)
	}
	if tools[0].OfTool.Description.Value == "" {
		t.Error("description not set")
	}
}

func TestConvertAnthropicToolsBadSchema(t *testing.T) {
	_, err := convertAnthropicTools([]agent.ToolDefinition{
		{Name: "broken", InputSchema: json.RawMessage(`not a schema`)},
	})
	if err == nil {
		t.Error("invalid schema accepted")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("429 too many requests"), true},
		{errors.New("overloaded_error"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("401 unauthorized"), false},
		{errors.New("invalid_request_error"), false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Errorf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestAnthropicRequiresKey(t *testing.T) {
	p := NewAnthropicProvider()
	if _, err := p.Complete(context.Background(), &agent.CompletionRequest{Model: "claude-sonnet-4-20250514"}); err == nil {
		t.Error("missing key accepted")
	}
}
