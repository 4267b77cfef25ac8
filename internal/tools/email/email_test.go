package email

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hphungg/chatbot-sub000/internal/auth"
	"github.com/hphungg/chatbot-sub000/internal/directory"
	"github.com/hphungg/chatbot-sub000/internal/mail"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

type fakeMailer struct {
	sent []string
	fail map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, msg *mail.Message) error {
	if err, ok := f.fail[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg.To)
	return nil
}

func seedDirectory() *directory.MemoryDirectory {
	dir := directory.NewMemoryDirectory()
	dir.AddDepartment(&directory.Department{ID: "d1", Name: "Phòng Marketing", Code: "MKT"})
	dir.AddEmployee(&directory.Employee{ID: "e1", Name: "Trần Văn An", Email: "an.tran@congty.vn", DepartmentID: "d1", DepartmentName: "Phòng Marketing"})
	dir.AddEmployee(&directory.Employee{ID: "e2", Name: "Nguyễn Thị An", Email: "an.nguyen@congty.vn", DepartmentID: "d1", DepartmentName: "Phòng Marketing"})
	dir.AddEmployee(&directory.Employee{ID: "e3", Name: "Lê Hoàng Bình", Email: "binh.le@congty.vn"})
	return dir
}

func adminCtx() context.Context {
	return auth.WithUser(context.Background(), &models.User{ID: "u1", Role: models.UserRoleAdmin})
}

func memberCtx() context.Context {
	return auth.WithUser(context.Background(), &models.User{ID: "u2", Role: models.UserRoleMember})
}

func TestToEmployee(t *testing.T) {
	mailer := &fakeMailer{}
	tool := &ToEmployee{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"email":"binh.le@congty.vn","subject":"Thông báo","message":"Nội dung"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "binh.le@congty.vn" {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestToEmployeeUnknown(t *testing.T) {
	mailer := &fakeMailer{}
	tool := &ToEmployee{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"email":"ai.do@congty.vn","subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected failure for unknown employee")
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestToDepartmentPartialFailure(t *testing.T) {
	mailer := &fakeMailer{fail: map[string]error{
		"an.nguyen@congty.vn": errors.New("mailbox full"),
	}}
	tool := &ToDepartment{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"departmentName":"marketing","subject":"Họp","message":"14h chiều nay"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	// one of two deliveries failed: still a success with both sets
	if res.IsError {
		t.Fatalf("partial delivery reported as failure: %s", res.Content)
	}
	var payload struct {
		Delivered int `json:"delivered"`
		Failed    int `json:"failed"`
	}
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Delivered != 1 || payload.Failed != 1 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestToDepartmentUnknown(t *testing.T) {
	tool := &ToDepartment{Directory: seedDirectory(), Mailer: &fakeMailer{}}
	res, err := tool.Execute(context.Background(), json.RawMessage(`{"departmentName":"nhân sự","subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected failure for unknown department")
	}
}

func TestToCompanyRequiresAdmin(t *testing.T) {
	mailer := &fakeMailer{}
	tool := &ToCompany{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(memberCtx(), json.RawMessage(`{"subject":"Thông báo","message":"Nội dung"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected failure for non-admin")
	}
	if !strings.Contains(res.Content, "quản trị viên") {
		t.Errorf("message = %s", res.Content)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("sent = %v", mailer.sent)
	}

	res, err = tool.Execute(adminCtx(), json.RawMessage(`{"subject":"Thông báo","message":"Nội dung"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	if len(mailer.sent) != 3 {
		t.Fatalf("sent = %v, want all 3 employees", mailer.sent)
	}
}

func TestToRecipientsFiltersOutsiders(t *testing.T) {
	mailer := &fakeMailer{}
	tool := &ToRecipients{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"emails":["an.tran@congty.vn","spam@ngoai.com"],"subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "an.tran@congty.vn" {
		t.Fatalf("sent = %v", mailer.sent)
	}
	var payload struct {
		Unknown []string `json:"unknown"`
	}
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(payload.Unknown) != 1 || payload.Unknown[0] != "spam@ngoai.com" {
		t.Fatalf("unknown = %v", payload.Unknown)
	}
}

func TestToRecipientsAllUnknown(t *testing.T) {
	tool := &ToRecipients{Directory: seedDirectory(), Mailer: &fakeMailer{}}
	res, err := tool.Execute(context.Background(), json.RawMessage(`{"emails":["a@ngoai.com"],"subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected failure when no recipient is an employee")
	}
}

func TestAllDeliveriesFail(t *testing.T) {
	mailer := &fakeMailer{fail: map[string]error{
		"an.tran@congty.vn":   errors.New("smtp down"),
		"an.nguyen@congty.vn": errors.New("smtp down"),
	}}
	tool := &ToDepartment{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"departmentName":"marketing","subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected failure when nothing was delivered")
	}
}

func TestToEmployeeByName(t *testing.T) {
	mailer := &fakeMailer{}
	tool := &ToEmployeeByName{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"Bình","subject":"Thông báo","message":"Nội dung"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected failure: %s", res.Content)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "binh.le@congty.vn" {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestToEmployeeByNameAmbiguous(t *testing.T) {
	mailer := &fakeMailer{}
	tool := &ToEmployeeByName{Directory: seedDirectory(), Mailer: mailer}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"An","subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("ambiguous name accepted")
	}
	// nothing may be sent until the recipient is pinned down
	if len(mailer.sent) != 0 {
		t.Fatalf("sent = %v", mailer.sent)
	}
	var payload struct {
		Candidates []struct {
			Email string `json:"email"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(payload.Candidates) != 2 {
		t.Fatalf("candidates = %+v", payload.Candidates)
	}
}

func TestToEmployeeByNameUnknown(t *testing.T) {
	tool := &ToEmployeeByName{Directory: seedDirectory(), Mailer: &fakeMailer{}}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"Xuyến","subject":"s","message":"m"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "Không tìm thấy") {
		t.Fatalf("res = %+v", res)
	}
}
