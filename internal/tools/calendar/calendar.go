// Package calendar exposes the acting user's Google Calendar to the
// agent: listing, creating and deleting events. The user identity
// comes from the request context; users without a linked Google
// account get a failed result asking them to connect, never an error.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/auth"
	gcal "github.com/hphungg/chatbot-sub000/internal/calendar"
)

const defaultListWindow = 30 * 24 * time.Hour

// vietnamTime is the portal's display timezone.
var vietnamTime = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.FixedZone("ICT", 7*3600)
	}
	return loc
}()

func actingUser(ctx context.Context) (string, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok || user.ID == "" {
		return "", errors.New("acting user missing from context")
	}
	return user.ID, nil
}

func notConnected() *agent.Result {
	return agent.Fail("Bạn chưa kết nối Google Calendar. Vui lòng kết nối tài khoản Google trong phần cài đặt để sử dụng tính năng lịch.")
}

// parseWhen accepts RFC 3339 or a zone-less ISO 8601 timestamp, the
// latter interpreted in Vietnam time.
func parseWhen(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, vietnamTime); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("thời gian %q không hợp lệ, cần định dạng ISO 8601 (ví dụ 2025-10-27T09:00:00)", value)
}

func parseDay(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(value), vietnamTime)
}

// List returns events in a date range, defaulting to the coming month.
type List struct {
	Service gcal.Service
	Now     func() time.Time
}

func (t *List) Name() string { return "getCalendarEvents" }

func (t *List) Description() string {
	return "Lấy danh sách các sự kiện từ Google Calendar của người dùng hiện tại. Có thể giới hạn theo khoảng ngày. Sử dụng khi cần xem lịch trình."
}

func (t *List) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"startDate": {"type": "string", "description": "Ngày bắt đầu (định dạng YYYY-MM-DD, tùy chọn)"},
			"endDate": {"type": "string", "description": "Ngày kết thúc (định dạng YYYY-MM-DD, tùy chọn)"}
		}
	}`)
}

func (t *List) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}

	now := t.Now().In(vietnamTime)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, vietnamTime)
	to := from.Add(defaultListWindow)
	if input.StartDate != "" {
		day, err := parseDay(input.StartDate)
		if err != nil {
			return agent.Fail(fmt.Sprintf("Ngày bắt đầu %q không hợp lệ, cần định dạng YYYY-MM-DD.", input.StartDate)), nil
		}
		from = day
		to = from.Add(defaultListWindow)
	}
	if input.EndDate != "" {
		day, err := parseDay(input.EndDate)
		if err != nil {
			return agent.Fail(fmt.Sprintf("Ngày kết thúc %q không hợp lệ, cần định dạng YYYY-MM-DD.", input.EndDate)), nil
		}
		to = day.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return agent.Fail("Ngày kết thúc phải sau ngày bắt đầu."), nil
	}

	events, err := t.Service.ListEvents(ctx, userID, from, to)
	if errors.Is(err, gcal.ErrNotConnected) {
		return notConnected(), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"count":  len(events),
		"events": events,
	}), nil
}

// Today returns the acting user's events for the current day.
type Today struct {
	Service gcal.Service
	Now     func() time.Time
}

func (t *Today) Name() string { return "getTodayEvents" }

func (t *Today) Description() string {
	return "Lấy danh sách các sự kiện trong ngày hôm nay từ Google Calendar. Sử dụng khi người dùng hỏi về lịch hôm nay."
}

func (t *Today) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *Today) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}

	now := t.Now().In(vietnamTime)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, vietnamTime)
	to := from.AddDate(0, 0, 1)

	events, err := t.Service.ListEvents(ctx, userID, from, to)
	if errors.Is(err, gcal.ErrNotConnected) {
		return notConnected(), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"date":   from.Format("2006-01-02"),
		"count":  len(events),
		"events": events,
	}), nil
}

// OnDate returns one day's events.
type OnDate struct {
	Service gcal.Service
}

func (t *OnDate) Name() string { return "getEventsOnDate" }

func (t *OnDate) Description() string {
	return "Lấy danh sách các sự kiện trong một ngày cụ thể từ Google Calendar. Sử dụng khi người dùng hỏi về lịch của một ngày nhất định."
}

func (t *OnDate) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"date": {"type": "string", "description": "Ngày cần xem lịch (định dạng YYYY-MM-DD)"}
		},
		"required": ["date"]
	}`)
}

func (t *OnDate) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}

	day, err := parseDay(input.Date)
	if err != nil {
		return agent.Fail(fmt.Sprintf("Ngày %q không hợp lệ, cần định dạng YYYY-MM-DD.", input.Date)), nil
	}

	events, err := t.Service.ListEvents(ctx, userID, day, day.AddDate(0, 0, 1))
	if errors.Is(err, gcal.ErrNotConnected) {
		return notConnected(), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"date":   day.Format("2006-01-02"),
		"count":  len(events),
		"events": events,
	}), nil
}

// Create adds an event to the acting user's calendar. A repeated
// create makes a duplicate event; this tool is not idempotent.
type Create struct {
	Service gcal.Service
}

func (t *Create) Name() string { return "createCalendarEvent" }

func (t *Create) Description() string {
	return "Tạo một sự kiện mới trong Google Calendar của người dùng hiện tại. Sử dụng khi cần thêm lịch hẹn, cuộc họp, hoặc nhắc nhở vào lịch."
}

func (t *Create) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Tiêu đề của sự kiện"},
			"description": {"type": "string", "description": "Mô tả chi tiết về sự kiện"},
			"startTime": {"type": "string", "description": "Thời gian bắt đầu (định dạng ISO 8601, ví dụ: 2025-10-27T09:00:00)"},
			"endTime": {"type": "string", "description": "Thời gian kết thúc (định dạng ISO 8601, ví dụ: 2025-10-27T10:00:00)"}
		},
		"required": ["title", "startTime", "endTime"]
	}`)
}

func (t *Create) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return agent.Fail("Vui lòng cung cấp tiêu đề sự kiện."), nil
	}

	start, err := parseWhen(input.StartTime)
	if err != nil {
		return agent.Fail(err.Error()), nil
	}
	end, err := parseWhen(input.EndTime)
	if err != nil {
		return agent.Fail(err.Error()), nil
	}
	if !end.After(start) {
		return agent.Fail("Thời gian kết thúc phải sau thời gian bắt đầu."), nil
	}

	event, err := t.Service.CreateEvent(ctx, userID, &gcal.EventInput{
		Summary:     strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Start:       start,
		End:         end,
	})
	if errors.Is(err, gcal.ErrNotConnected) {
		return notConnected(), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{
		"message": "Đã tạo sự kiện thành công.",
		"event":   event,
	}), nil
}

// Delete removes an event. Deleting an already-removed event still
// reports success.
type Delete struct {
	Service gcal.Service
}

func (t *Delete) Name() string { return "deleteCalendarEvent" }

func (t *Delete) Description() string {
	return "Xóa một sự kiện khỏi Google Calendar của người dùng hiện tại. Sử dụng khi cần hủy hoặc xóa lịch hẹn."
}

func (t *Delete) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"eventId": {"type": "string", "description": "ID của sự kiện cần xóa"}
		},
		"required": ["eventId"]
	}`)
}

func (t *Delete) Execute(ctx context.Context, params json.RawMessage) (*agent.Result, error) {
	var input struct {
		EventID string `json:"eventId"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, err
	}
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.EventID) == "" {
		return agent.Fail("Vui lòng cung cấp ID sự kiện cần xóa."), nil
	}

	err = t.Service.DeleteEvent(ctx, userID, strings.TrimSpace(input.EventID))
	if errors.Is(err, gcal.ErrNotConnected) {
		return notConnected(), nil
	}
	if err != nil {
		return nil, err
	}
	return agent.Ok(map[string]any{"message": "Đã xóa sự kiện thành công."}), nil
}
