// Package department exposes org-directory lookups for departments.
package department

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/directory"
)

// ByName finds departments whose name contains the query.
type ByName struct {
	Directory directory.Directory
}

func (t *ByName) Name() string { return "getDepartmentByName" }

func (t *ByName) Description() string {
	return "Tra cứu thông tin chi tiết của một phòng ban theo tên. Sử dụng khi cần tìm hiểu về một phòng ban cụ thể trong công ty."
}

func (t *ByName) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Tên phòng ban cần tra cứu"}
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
		return agent.Fail("Vui lòng cung cấp tên phòng ban cần tra cứu."), nil
	}

	departments, err := t.Directory.DepartmentsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy phòng ban nào có tên chứa %q.", name)), nil
	}
	if len(departments) == 1 {
		return agent.Ok(map[string]any{"department": departments[0]}), nil
	}
	return agent.Ok(map[string]any{
		"message":    fmt.Sprintf("Tìm thấy %d phòng ban có tên chứa %q.", len(departments), name),
		"candidates": departments,
	}), nil
}

// ByCode looks a department up by its exact code.
type ByCode struct {
	Directory directory.Directory
}

func (t *ByCode) Name() string { return "getDepartmentByCode" }

func (t *ByCode) Description() string {
	return "Tra cứu thông tin phòng ban theo mã phòng ban. Sử dụng khi người dùng cung cấp mã code của phòng ban."
}

func (t *ByCode) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"code": {"type": "string", "description": "Mã code của phòng ban cần tra cứu"}
		},
		"required": ["code"]
	}`)
}

func (t *ByCode) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return agent.Fail("Vui lòng cung cấp mã phòng ban."), nil
	}

	dept, err := t.Directory.DepartmentByCode(ctx, code)
	if errors.Is(err, directory.ErrNotFound) {
		return agent.Fail(fmt.Sprintf("Không tìm thấy phòng ban với mã %q.", code)), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{"department": dept}), nil
}

// All lists every department.
type All struct {
	Directory directory.Directory
}

func (t *All) Name() string { return "getAllDepartments" }

func (t *All) Description() string {
	return "Lấy danh sách tất cả các phòng ban trong công ty. Sử dụng khi cần xem tổng quan về cơ cấu tổ chức phòng ban."
}

func (t *All) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *All) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	departments, err := t.Directory.AllDepartments(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"count":       len(departments),
		"departments": departments,
	}), nil
}

// Count reports the number of departments.
type Count struct {
	Directory directory.Directory
}

func (t *Count) Name() string { return "getDepartmentCount" }

func (t *Count) Description() string {
	return "Lấy tổng số lượng phòng ban trong công ty. Sử dụng khi cần biết công ty có bao nhiêu phòng ban."
}

func (t *Count) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Count) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	count, err := t.Directory.DepartmentCount(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{"count": count}), nil
}

// Manager reports who manages a department, addressed by name.
type Manager struct {
	Directory directory.Directory
}

func (t *Manager) Name() string { return "getDepartmentManager" }

func (t *Manager) Description() string {
	return "Tra cứu thông tin người quản lý của một phòng ban cụ thể. Sử dụng khi cần biết ai đang quản lý phòng ban nào đó."
}

func (t *Manager) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"departmentName": {"type": "string", "description": "Tên phòng ban cần tra cứu quản lý"}
		},
		"required": ["departmentName"]
	}`)
}

func (t *Manager) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		DepartmentName string `json:"departmentName"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.DepartmentName)
	if name == "" {
		return agent.Fail("Vui lòng cung cấp tên phòng ban cần tra cứu."), nil
	}

	departments, err := t.Directory.DepartmentsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy phòng ban nào có tên chứa %q.", name)), nil
	}
	if len(departments) > 1 {
		return agent.Ok(map[string]any{
			"message":    fmt.Sprintf("Tìm thấy %d phòng ban có tên chứa %q.", len(departments), name),
			"candidates": departments,
		}), nil
	}

	dept := departments[0]
	if dept.ManagerName == "" {
		return agent.Fail(fmt.Sprintf("Phòng ban %s (%s) hiện chưa có quản lý.", dept.Name, dept.Code)), nil
	}
	return agent.Ok(map[string]any{
		"department": map[string]string{"name": dept.Name, "code": dept.Code},
		"manager":    map[string]string{"id": dept.ManagerID, "name": dept.ManagerName},
	}), nil
}
