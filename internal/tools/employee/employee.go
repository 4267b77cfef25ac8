// Package employee exposes org-directory lookups for people: by
// name, by email, by department or project membership, plus listing
// and counting. Name queries return every candidate so the model can
// disambiguate instead of picking one.
package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/directory"
)

// ByName finds employees whose name contains the query.
type ByName struct {
	Directory directory.Directory
}

func (t *ByName) Name() string { return "getEmployeeByName" }

func (t *ByName) Description() string {
	return "Tìm kiếm thông tin nhân viên theo tên hoặc họ tên. Sử dụng khi cần tra cứu thông tin chi tiết của một nhân viên cụ thể trong công ty."
}

func (t *ByName) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Tên hoặc họ tên của nhân viên cần tìm kiếm"}
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
		return agent.Fail("Vui lòng cung cấp tên nhân viên cần tìm."), nil
	}

	employees, err := t.Directory.EmployeesByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy nhân viên nào có tên chứa %q.", name)), nil
	}
	if len(employees) == 1 {
		return agent.Ok(map[string]any{"employee": employees[0]}), nil
	}
	// several matches: return all of them so the caller can ask the
	// user which one was meant
	return agent.Ok(map[string]any{
		"message":    fmt.Sprintf("Tìm thấy %d nhân viên có tên chứa %q.", len(employees), name),
		"candidates": employees,
	}), nil
}

// ByEmail looks an employee up by exact email address.
type ByEmail struct {
	Directory directory.Directory
}

func (t *ByEmail) Name() string { return "getEmployeeByEmail" }

func (t *ByEmail) Description() string {
	return "Tìm kiếm thông tin nhân viên theo địa chỉ email. Sử dụng khi người dùng cung cấp email cụ thể của nhân viên."
}

func (t *ByEmail) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"email": {"type": "string", "description": "Địa chỉ email của nhân viên cần tra cứu"}
		},
		"required": ["email"]
	}`)
}

func (t *ByEmail) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return agent.Fail("Vui lòng cung cấp địa chỉ email cần tra cứu."), nil
	}

	emp, err := t.Directory.EmployeeByEmail(ctx, email)
	if errors.Is(err, directory.ErrNotFound) {
		return agent.Fail(fmt.Sprintf("Không tìm thấy nhân viên với email %s.", email)), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{"employee": emp}), nil
}

// ByDepartment lists the members of a department.
type ByDepartment struct {
	Directory directory.Directory
}

func (t *ByDepartment) Name() string { return "getEmployeesByDepartment" }

func (t *ByDepartment) Description() string {
	return "Lấy danh sách tất cả nhân viên trong một phòng ban cụ thể. Sử dụng khi cần biết thành viên của một phòng ban nào đó."
}

func (t *ByDepartment) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"departmentName": {"type": "string", "description": "Tên hoặc mã phòng ban cần lấy danh sách nhân viên"}
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

	employees, err := t.Directory.EmployeesByDepartment(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy phòng ban %q hoặc phòng ban chưa có nhân viên.", name)), nil
	}
	return agent.Ok(map[string]any{
		"count":     len(employees),
		"employees": employees,
	}), nil
}

// ByProject lists the members of a project.
type ByProject struct {
	Directory directory.Directory
}

func (t *ByProject) Name() string { return "getEmployeesByProject" }

func (t *ByProject) Description() string {
	return "Lấy danh sách nhân viên đang tham gia một dự án cụ thể. Sử dụng khi cần biết thành viên của dự án."
}

func (t *ByProject) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"projectName": {"type": "string", "description": "Tên dự án cần lấy danh sách thành viên"}
		},
		"required": ["projectName"]
	}`)
}

func (t *ByProject) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		ProjectName string `json:"projectName"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.ProjectName)
	if name == "" {
		return agent.Fail("Vui lòng cung cấp tên dự án."), nil
	}

	employees, err := t.Directory.EmployeesByProject(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy dự án %q hoặc dự án chưa có thành viên.", name)), nil
	}
	return agent.Ok(map[string]any{
		"count":     len(employees),
		"employees": employees,
	}), nil
}

// All lists every employee in the company.
type All struct {
	Directory directory.Directory
}

func (t *All) Name() string { return "getAllEmployees" }

func (t *All) Description() string {
	return "Lấy danh sách tất cả nhân viên trong công ty. Sử dụng khi cần xem tổng quan về nhân sự."
}

func (t *All) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *All) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	employees, err := t.Directory.AllEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"count":     len(employees),
		"employees": employees,
	}), nil
}

// Count reports the total number of employees.
type Count struct {
	Directory directory.Directory
}

func (t *Count) Name() string { return "getEmployeeCount" }

func (t *Count) Description() string {
	return "Lấy tổng số lượng nhân viên trong công ty. Sử dụng khi cần biết quy mô nhân sự."
}

func (t *Count) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Count) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	count, err := t.Directory.EmployeeCount(ctx)
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{"count": count}), nil
}
