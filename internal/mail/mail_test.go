package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"testing"

	"github.com/hphungg/chatbot-sub000/internal/config"
)

type fakeMailer struct {
	failFor map[string]bool
	sent    []string
}

func (f *fakeMailer) Send(_ context.Context, msg *Message) error {
	if f.failFor[msg.To] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg.To)
	return nil
}

func TestSendEachPartialFailure(t *testing.T) {
	m := &fakeMailer{failFor: map[string]bool{"b@company.vn": true}}
	recipients := []string{"a@company.vn", "b@company.vn", "c@company.vn"}

	result := SendEach(context.Background(), m, recipients, "Thông báo", "<p>nội dung</p>")

	if len(result.Delivered) != 2 {
		t.Errorf("delivered = %v, want 2 recipients", result.Delivered)
	}
	if len(result.Failed) != 1 || result.Failed["b@company.vn"] == "" {
		t.Errorf("failed = %v, want b@company.vn with reason", result.Failed)
	}
	if result.AllDelivered() {
		t.Error("AllDelivered() = true with a failed recipient")
	}
}

func TestSendEachCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeMailer{}
	result := SendEach(ctx, m, []string{"a@company.vn"}, "s", "b")
	if len(result.Delivered) != 0 || len(result.Failed) != 1 {
		t.Errorf("cancelled send result = %+v", result)
	}
}

func TestSMTPMessageFraming(t *testing.T) {
	var gotMsg []byte
	var gotTo []string
	mailer := NewSMTPMailer(config.MailConfig{
		Host: "smtp.example.com", Port: 587,
		Username: "portal", Password: "pw", From: "portal@company.vn",
	})
	mailer.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		gotMsg = msg
		return nil
	}

	err := mailer.Send(context.Background(), &Message{
		To:      "an.tran@company.vn",
		Subject: "Nhắc việc\r\nX-Injected: 1",
		Body:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "an.tran@company.vn" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	if strings.Contains(msg, "X-Injected") && strings.Contains(msg, "\r\nX-Injected") {
		t.Error("header injection not neutralized")
	}
	if !strings.Contains(msg, "Content-Type: text/html") {
		t.Error("missing html content type")
	}
}

func TestRenderBody(t *testing.T) {
	body, err := RenderBody("Thông báo chung", "Xin chào,\n\nCuộc họp <quan trọng> lúc 9h.")
	if err != nil {
		t.Fatalf("RenderBody: %v", err)
	}
	if !strings.Contains(body, "Thông báo chung") {
		t.Error("title missing")
	}
	if !strings.Contains(body, "&lt;quan trọng&gt;") {
		t.Error("content not escaped")
	}
	if !strings.Contains(body, "gửi tự động") {
		t.Error("footer missing")
	}
}

func TestSendEachManyRecipients(t *testing.T) {
	m := &fakeMailer{}
	var recipients []string
	for i := 0; i < 25; i++ {
		recipients = append(recipients, fmt.Sprintf("user%d@company.vn", i))
	}
	result := SendEach(context.Background(), m, recipients, "s", "b")
	if !result.AllDelivered() || len(result.Delivered) != 25 {
		t.Errorf("result = %+v", result)
	}
}
