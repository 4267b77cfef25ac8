package mail

import (
	"fmt"
	"html/template"
	"strings"
)

// bodyTemplate wraps notification content in the portal house style.
var bodyTemplate = template.Must(template.New("body").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:24px;">
    <div style="background-color:#1a73e8;color:#ffffff;padding:16px 24px;border-radius:8px 8px 0 0;">
      <h2 style="margin:0;">{{.Title}}</h2>
    </div>
    <div style="background-color:#ffffff;padding:24px;border-radius:0 0 8px 8px;">
      {{.Content}}
    </div>
    <div style="padding:16px 24px;color:#8898aa;font-size:12px;text-align:center;">
      Email này được gửi tự động từ hệ thống quản lý công ty. Vui lòng không trả lời email này.
    </div>
  </div>
</body>
</html>`))

type bodyData struct {
	Title   string
	Content template.HTML
}

// RenderBody renders plain text content into the HTML mail shell.
// Paragraph breaks in the text become <p> blocks; the text itself is
// escaped.
func RenderBody(title, text string) (string, error) {
	var content strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		escaped := template.HTMLEscapeString(para)
		escaped = strings.ReplaceAll(escaped, "\n", "<br>")
		fmt.Fprintf(&content, "<p style=\"margin:0 0 12px;color:#32325d;\">%s</p>", escaped)
	}

	var out strings.Builder
	err := bodyTemplate.Execute(&out, bodyData{
		Title:   title,
		Content: template.HTML(content.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render mail body: %w", err)
	}
	return out.String(), nil
}
