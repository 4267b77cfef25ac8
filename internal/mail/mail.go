// Package mail sends portal notification email over SMTP. Batch sends
// report per-recipient outcomes instead of failing wholesale.
package mail

import (
	"context"
)

// Message is one outbound email. Body is HTML.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// BatchResult reports the outcome of a multi-recipient send. A batch
// with any delivery is a partial success; callers render both sets.
type BatchResult struct {
	Delivered []string          `json:"delivered"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// AllDelivered reports whether every recipient received the message.
func (r *BatchResult) AllDelivered() bool { return len(r.Failed) == 0 }

// SendEach delivers the same subject and body to every recipient as
// individual messages, collecting per-recipient results. A failure
// for one recipient does not stop the rest; context cancellation
// does.
func SendEach(ctx context.Context, m Mailer, recipients []string, subject, body string) *BatchResult {
	result := &BatchResult{}
	for _, to := range recipients {
		if err := ctx.Err(); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[to] = err.Error()
			continue
		}
		err := m.Send(ctx, &Message{To: to, Subject: subject, Body: body})
		if err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[to] = err.Error()
			continue
		}
		result.Delivered = append(result.Delivered, to)
	}
	return result
}
