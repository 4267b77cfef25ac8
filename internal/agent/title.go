package agent

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hphungg/chatbot-sub000/pkg/models"
)

const (
	maxTitleLength   = 80
	titleGenTimeout  = 10 * time.Second
	titleGenMaxToken = 64
)

const titlePrompt = "Tạo một tiêu đề ngắn gọn (tối đa 8 từ) tóm tắt câu hỏi sau của người dùng. Chỉ trả về tiêu đề, không giải thích, không dấu ngoặc kép."

// deriveTitle names the chat after its first user message. The model
// is asked for a short summary; when that fails the first line of the
// message is used. Title failures never fail the turn.
func (t *turn) deriveTitle(ctx context.Context) {
	text := ""
	for _, p := range t.req.Parts {
		if p.Type == models.PartTypeText {
			text = p.Text
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	title := t.generateTitle(ctx, text)
	if title == "" {
		title = truncateTitle(text)
	}
	if title == "" {
		return
	}

	if err := t.ctrl.store.UpdateChatTitle(ctx, t.chat.ID, title); err != nil {
		t.ctrl.logger.Warn("update chat title", "chat_id", t.chat.ID, "error", err)
	}
}

func (t *turn) generateTitle(ctx context.Context, text string) string {
	genCtx, cancel := context.WithTimeout(ctx, titleGenTimeout)
	defer cancel()

	chunks, err := t.ctrl.provider.Complete(genCtx, &CompletionRequest{
		Model:     t.settings.Model,
		APIKey:    t.settings.APIKey,
		System:    titlePrompt,
		Messages:  []CompletionMessage{{Role: "user", Content: text}},
		MaxTokens: titleGenMaxToken,
	})
	if err != nil {
		t.ctrl.logger.Warn("title generation", "chat_id", t.chat.ID, "error", err)
		return ""
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return ""
		}
		b.WriteString(chunk.Text)
	}
	return truncateTitle(b.String())
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, `"“”`)
	if utf8.RuneCountInString(s) <= maxTitleLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxTitleLength-1])) + "…"
}
