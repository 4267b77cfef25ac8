// Package email lets the agent send portal mail to individual
// employees, whole departments, explicit recipient lists, or the
// entire company. Batch sends report delivered and failed recipients
// separately; company-wide mail is restricted to admins.
package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/auth"
	"github.com/hphungg/chatbot-sub000/internal/directory"
	"github.com/hphungg/chatbot-sub000/internal/mail"
)

const maxRecipients = 100

func render(subject, message string) (string, *agent.Result) {
	body, err := mail.RenderBody(subject, message)
	if err != nil {
		return "", agent.Fail("Không thể tạo nội dung email.")
	}
	return body, nil
}

func batchPayload(result *mail.BatchResult) *agent.Result {
	payload := map[string]any{
		"delivered": len(result.Delivered),
		"failed":    len(result.Failed),
		"result":    result,
	}
	if !result.AllDelivered() && len(result.Delivered) == 0 {
		return agent.Fail(fmt.Sprintf("Không gửi được email cho người nhận nào (%d lỗi).", len(result.Failed)))
	}
	return agent.Ok(payload)
}

// ToEmployee mails one employee, addressed by email.
type ToEmployee struct {
	Directory directory.Directory
	Mailer    mail.Mailer
}

func (t *ToEmployee) Name() string { return "sendEmailToEmployee" }

func (t *ToEmployee) Description() string {
	return "Gửi email cho một nhân viên cụ thể trong công ty. Dùng khi người dùng muốn gửi email cho một người cụ thể."
}

func (t *ToEmployee) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"email": {"type": "string", "description": "Địa chỉ email của nhân viên"},
			"subject": {"type": "string", "description": "Tiêu đề email"},
			"message": {"type": "string", "description": "Nội dung email"}
		},
		"required": ["email", "subject", "message"]
	}`)
}

func (t *ToEmployee) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)

	emp, err := t.Directory.EmployeeByEmail(ctx, email)
	if errors.Is(err, directory.ErrNotFound) {
		return agent.Fail(fmt.Sprintf("Không tìm thấy nhân viên với email %s.", email)), nil
	}
	if err != nil {
		return nil, err
	}

	body, fail := render(input.Subject, input.Message)
	if fail != nil {
		return fail, nil
	}
	if err := t.Mailer.Send(ctx, &mail.Message{To: emp.Email, Subject: input.Subject, Body: body}); err != nil {
		return agent.Fail(fmt.Sprintf("Không gửi được email cho %s.", emp.Email)), nil
	}
	return agent.Ok(map[string]any{
		"message":   fmt.Sprintf("Đã gửi email cho %s (%s).", emp.Name, emp.Email),
		"recipient": emp.Email,
	}), nil
}

// ToDepartment mails every member of a department.
type ToDepartment struct {
	Directory directory.Directory
	Mailer    mail.Mailer
}

func (t *ToDepartment) Name() string { return "sendEmailToDepartment" }

func (t *ToDepartment) Description() string {
	return "Gửi email cho tất cả nhân viên trong một phòng ban cụ thể. Hữu ích khi người dùng muốn thông báo hoặc gửi thông tin cho cả phòng ban."
}

func (t *ToDepartment) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"departmentName": {"type": "string", "description": "Tên hoặc mã phòng ban cần gửi email"},
			"subject": {"type": "string", "description": "Tiêu đề email"},
			"message": {"type": "string", "description": "Nội dung email"}
		},
		"required": ["departmentName", "subject", "message"]
	}`)
}

func (t *ToDepartment) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		DepartmentName string `json:"departmentName"`
		Subject        string `json:"subject"`
		Message        string `json:"message"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.DepartmentName)

	employees, err := t.Directory.EmployeesByDepartment(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy phòng ban %q hoặc phòng ban chưa có nhân viên.", name)), nil
	}

	body, fail := render(input.Subject, input.Message)
	if fail != nil {
		return fail, nil
	}
	recipients := make([]string, 0, len(employees))
	for _, emp := range employees {
		recipients = append(recipients, emp.Email)
	}
	return batchPayload(mail.SendEach(ctx, t.Mailer, recipients, input.Subject, body)), nil
}

// ToCompany mails every employee. Admin only.
type ToCompany struct {
	Directory directory.Directory
	Mailer    mail.Mailer
}

func (t *ToCompany) Name() string { return "sendEmailToCompany" }

func (t *ToCompany) Description() string {
	return "Gửi email thông báo cho toàn bộ nhân viên trong công ty. Chỉ quản trị viên mới được sử dụng. Dùng cho các thông báo quan trọng của công ty."
}

func (t *ToCompany) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"subject": {"type": "string", "description": "Tiêu đề email"},
			"message": {"type": "string", "description": "Nội dung email"}
		},
		"required": ["subject", "message"]
	}`)
}

func (t *ToCompany) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, errors.New("acting user missing from context")
	}
	if !user.IsAdmin() {
		return agent.Fail("Chỉ quản trị viên mới có quyền gửi email cho toàn công ty."), nil
	}

	employees, err := t.Directory.AllEmployees(ctx)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return agent.Fail("Không có nhân viên nào trong hệ thống."), nil
	}

	body, fail := render(input.Subject, input.Message)
	if fail != nil {
		return fail, nil
	}
	recipients := make([]string, 0, len(employees))
	for _, emp := range employees {
		recipients = append(recipients, emp.Email)
	}
	return batchPayload(mail.SendEach(ctx, t.Mailer, recipients, input.Subject, body)), nil
}

// ToRecipients mails an explicit list of addresses. Only addresses
// belonging to portal employees are accepted.
type ToRecipients struct {
	Directory directory.Directory
	Mailer    mail.Mailer
}

func (t *ToRecipients) Name() string { return "sendEmailToRecipients" }

func (t *ToRecipients) Description() string {
	return "Gửi email cho nhiều nhân viên cùng lúc bằng danh sách email. Hữu ích khi người dùng muốn gửi email cho một nhóm người cụ thể."
}

func (t *ToRecipients) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"emails": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Danh sách địa chỉ email của các nhân viên"
			},
			"subject": {"type": "string", "description": "Tiêu đề email"},
			"message": {"type": "string", "description": "Nội dung email"}
		},
		"required": ["emails", "subject", "message"]
	}`)
}

func (t *ToRecipients) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Emails  []string `json:"emails"`
		Subject string   `json:"subject"`
		Message string   `json:"message"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	if len(input.Emails) == 0 {
		return agent.Fail("Vui lòng cung cấp ít nhất một địa chỉ email."), nil
	}
	if len(input.Emails) > maxRecipients {
		return agent.Fail(fmt.Sprintf("Danh sách người nhận vượt quá giới hạn %d địa chỉ.", maxRecipients)), nil
	}

	// outside addresses are rejected up front rather than reported as
	// delivery failures
	var recipients []string
	var unknown []string
	for _, email := range input.Emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		_, err := t.Directory.EmployeeByEmail(ctx, email)
		if errors.Is(err, directory.ErrNotFound) {
			unknown = append(unknown, email)
			continue
		}
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, email)
	}
	if len(recipients) == 0 {
		return agent.Fail("Không có địa chỉ nào trong danh sách thuộc về nhân viên công ty."), nil
	}

	body, fail := render(input.Subject, input.Message)
	if fail != nil {
		return fail, nil
	}
	result := mail.SendEach(ctx, t.Mailer, recipients, input.Subject, body)
	payload := batchPayload(result)
	if len(unknown) > 0 && !payload.IsError {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(payload.Content), &decoded); err == nil {
			decoded["unknown"] = unknown
			payload = agent.Ok(decoded)
		}
	}
	return payload, nil
}

// ToEmployeeByName mails one employee addressed by name. The mail is
// sent only on an unambiguous match; several candidates are reported
// back without sending anything.
type ToEmployeeByName struct {
	Directory directory.Directory
	Mailer    mail.Mailer
}

func (t *ToEmployeeByName) Name() string { return "sendEmailByEmployeeName" }

func (t *ToEmployeeByName) Description() string {
	return "Gửi email cho nhân viên bằng tên của họ. Hữu ích khi người dùng biết tên nhân viên nhưng không biết email."
}

func (t *ToEmployeeByName) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Tên hoặc họ tên của nhân viên"},
			"subject": {"type": "string", "description": "Tiêu đề email"},
			"message": {"type": "string", "description": "Nội dung email"}
		},
		"required": ["name", "subject", "message"]
	}`)
}

func (t *ToEmployeeByName) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Name    string `json:"name"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return agent.Fail("Vui lòng cung cấp tên nhân viên cần gửi email."), nil
	}

	employees, err := t.Directory.EmployeesByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return agent.Fail(fmt.Sprintf("Không tìm thấy nhân viên nào với tên %q.", name)), nil
	}
	if len(employees) > 1 {
		// ambiguous recipient: never guess who gets the mail
		data, err := json.Marshal(map[string]any{
			"message":    fmt.Sprintf("Tìm thấy %d nhân viên với tên %q. Vui lòng cung cấp tên cụ thể hơn hoặc sử dụng email để gửi.", len(employees), name),
			"candidates": employees,
		})
		if err != nil {
			return agent.Fail("kết quả không thể tuần tự hóa"), nil
		}
		return &agent.Result{Content: string(data), IsError: true}, nil
	}

	emp := employees[0]
	body, fail := render(input.Subject, input.Message)
	if fail != nil {
		return fail, nil
	}
	if err := t.Mailer.Send(ctx, &mail.Message{To: emp.Email, Subject: input.Subject, Body: body}); err != nil {
		return agent.Fail(fmt.Sprintf("Không gửi được email cho %s.", emp.Email)), nil
	}
	return agent.Ok(map[string]any{
		"message":   fmt.Sprintf("Đã gửi email cho %s (%s).", emp.Name, emp.Email),
		"recipient": emp.Email,
	}), nil
}
