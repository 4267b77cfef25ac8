package models

import (
	"encoding/json"
	"testing"
)

func TestPartValidate(t *testing.T) {
	tests := []struct {
		name    string
		part    Part
		wantErr bool
	}{
		{"text", TextPart("hello"), false},
		{"reasoning", ReasoningPart("thinking"), false},
		{"tool call", ToolCallPart(&ToolCall{ID: "c1", Name: "getAllEmployees", Input: json.RawMessage(`{}`)}), false},
		{"tool call missing id", ToolCallPart(&ToolCall{Name: "getAllEmployees"}), true},
		{"tool call nil payload", Part{Type: PartTypeToolCall}, true},
		{"tool result", ToolResultPart(&ToolResult{CallID: "c1", Name: "getAllEmployees", Content: "[]"}), false},
		{"tool result missing callId", ToolResultPart(&ToolResult{Name: "getAllEmployees"}), true},
		{"file", FilePart(&FileRef{Name: "report.pdf", MediaType: "application/pdf", URL: "https://files/report.pdf"}), false},
		{"file nil payload", Part{Type: PartTypeFile}, true},
		{"unknown type", Part{Type: "image"}, true},
		{"text with stray payload", Part{Type: PartTypeText, Text: "x", ToolCall: &ToolCall{ID: "c", Name: "n"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.part.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPartJSONRoundTrip(t *testing.T) {
	orig := ToolCallPart(&ToolCall{
		ID:    "call_123",
		Name:  "getEmployeeByName",
		Input: json.RawMessage(`{"name":"An"}`),
	})

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Part
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != PartTypeToolCall {
		t.Errorf("type = %q, want %q", got.Type, PartTypeToolCall)
	}
	if got.ToolCall == nil || got.ToolCall.Name != "getEmployeeByName" {
		t.Errorf("tool call not preserved: %+v", got.ToolCall)
	}
}

func TestMessageAccessors(t *testing.T) {
	msg := &Message{
		Role: RoleAssistant,
		Parts: []Part{
			ReasoningPart("user wants the marketing headcount"),
			TextPart("Phòng Marketing có "),
			ToolCallPart(&ToolCall{ID: "c1", Name: "getEmployeesByDepartment", Input: json.RawMessage(`{"departmentName":"Marketing"}`)}),
			ToolResultPart(&ToolResult{CallID: "c1", Name: "getEmployeesByDepartment", Content: "12"}),
			TextPart("12 nhân viên."),
		},
	}

	if got, want := msg.Text(), "Phòng Marketing có 12 nhân viên."; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if calls := msg.ToolCalls(); len(calls) != 1 || calls[0].ID != "c1" {
		t.Errorf("ToolCalls() = %+v, want one call c1", calls)
	}
	if results := msg.ToolResults(); len(results) != 1 || results[0].CallID != "c1" {
		t.Errorf("ToolResults() = %+v, want one result for c1", results)
	}
}
