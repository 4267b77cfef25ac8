package providers

import (
	"context"

	"github.com/hphungg/chatbot-sub000/internal/agent"
)

// sendChunk delivers a chunk unless ctx is cancelled. A false return
// means the consumer is gone; the stream goroutine must stop so the
// channel closes and the HTTP stream is released.
func sendChunk(ctx context.Context, chunks chan<- *agent.CompletionChunk, chunk *agent.CompletionChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
