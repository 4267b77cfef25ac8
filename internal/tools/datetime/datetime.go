// Package datetime anchors the agent's sense of "now" to Vietnam
// time. The model calls this before resolving relative references
// like "hôm nay" or "tuần sau".
package datetime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hphungg/chatbot-sub000/internal/agent"
)

var vietnamTime = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.FixedZone("ICT", 7*3600)
	}
	return loc
}()

var dayNames = [...]string{
	"Chủ nhật",
	"Thứ hai",
	"Thứ ba",
	"Thứ tư",
	"Thứ năm",
	"Thứ sáu",
	"Thứ bảy",
}

// Now reports the current Vietnam date and time.
type Now struct {
	Clock func() time.Time
}

func (t *Now) Name() string { return "getCurrentDateTime" }

func (t *Now) Description() string {
	return "Lấy thông tin về ngày giờ hiện tại theo múi giờ Việt Nam (UTC+7). LUÔN SỬ DỤNG tool này trước khi xử lý bất kỳ yêu cầu nào liên quan đến thời gian như: hôm nay, ngày mai, tuần này, tháng này, hoặc bất kỳ tham chiếu thời gian tương đối nào khác."
}

func (t *Now) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Now) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	now := t.Clock().In(vietnamTime)
	return agent.Ok(map[string]any{
		"iso":       now.Format(time.RFC3339),
		"date":      now.Format("02/01/2006"),
		"time":      now.Format("15:04"),
		"dayOfWeek": dayNames[int(now.Weekday())],
		"timezone":  "Asia/Ho_Chi_Minh",
	}), nil
}
