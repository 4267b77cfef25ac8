// Package project exposes org-directory lookups for projects and
// their lifecycle state.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/directory"
)

// ByName finds projects whose name contains the query.
type ByName struct {
	Directory directory.Directory
}

func (t *ByName) Name() string { return "getProjectByName" }

func (t *ByName) Description() string {
	return "Tra cứu thông tin chi tiết của một dự án theo tên. Sử dụng khi cần tìm hiểu về một dự án cụ thể trong công ty."
}

func (t *ByName) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Tên dự án cần tra cứu"}
		},
		"required": ["name"]
	}`)
}

func (t *ByName) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return agent.Fail("Vui lòng cung cấp tên dự án cần tra cứu."), nil
	}

	projects, err := t.Directory.ProjectsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy dự án nào có tên chứa %q.", name)), nil
	}
	if len(projects) == 1 {
		return agent.Ok(map[string]any{"project": projects[0]}), nil
	}
	return agent.Ok(map[string]any{
		"message":    fmt.Sprintf("Tìm thấy %d dự án có tên chứa %q.", len(projects), name),
		"candidates": projects,
	}), nil
}

// All lists every project.
type All struct {
	Directory directory.Directory
}

func (t *All) Name() string { return "getAllProjects" }

func (t *All) Description() string {
	return "Lấy danh sách tất cả các dự án trong công ty. Sử dụng khi cần xem tổng quan về các dự án đang có."
}

func (t *All) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *All) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	projects, err := t.Directory.AllProjects(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"count":    len(projects),
		"projects": projects,
	}), nil
}

// Count reports the total number of projects.
type Count struct {
	Directory directory.Directory
}

func (t *Count) Name() string { return "getProjectCount" }

func (t *Count) Description() string {
	return "Lấy tổng số lượng dự án trong hệ thống. Sử dụng khi cần biết có bao nhiêu dự án trong công ty."
}

func (t *Count) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Count) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	count, err := t.Directory.ProjectCount(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{"count": count}), nil
}

// Active lists projects still in progress.
type Active struct {
	Directory directory.Directory
}

func (t *Active) Name() string { return "getActiveProjects" }

func (t *Active) Description() string {
	return "Lấy danh sách các dự án đang hoạt động. Sử dụng khi cần biết các dự án đang diễn ra."
}

func (t *Active) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Active) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	projects, err := t.Directory.ProjectsByStatus(ctx, directory.ProjectActive)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"count":    len(projects),
		"projects": projects,
	}), nil
}

// Completed lists projects that have finished.
type Completed struct {
	Directory directory.Directory
}

func (t *Completed) Name() string { return "getCompletedProjects" }

func (t *Completed) Description() string {
	return "Lấy danh sách các dự án đã hoàn thành. Sử dụng khi cần xem các dự án đã kết thúc."
}

func (t *Completed) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Completed) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	projects, err := t.Directory.ProjectsByStatus(ctx, directory.ProjectCompleted)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"count":    len(projects),
		"projects": projects,
	}), nil
}

// ByDepartment lists the projects a department participates in.
type ByDepartment struct {
	Directory directory.Directory
}

func (t *ByDepartment) Name() string { return "getProjectsByDepartment" }

func (t *ByDepartment) Description() string {
	return "Lấy danh sách dự án mà một phòng ban đang tham gia. Sử dụng khi cần biết phòng ban đang tham gia những dự án nào."
}

func (t *ByDepartment) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"departmentName": {"type": "string", "description": "Tên hoặc mã phòng ban cần tra cứu dự án"}
		},
		"required": ["departmentName"]
	}`)
}

func (t *ByDepartment) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		DepartmentName string `json:"departmentName"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.DepartmentName)
	if name == "" {
		return agent.Fail("Vui lòng cung cấp tên phòng ban."), nil
	}

	projects, err := t.Directory.ProjectsByDepartment(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy dự án nào của phòng ban %q.", name)), nil
	}
	return agent.Ok(map[string]any{
		"count":    len(projects),
		"projects": projects,
	}), nil
}
