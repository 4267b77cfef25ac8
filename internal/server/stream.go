package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/observability"
)

const (
	// replayBufferSize bounds per-turn event retention for resume.
	// A reattaching client older than the window gets the buffered
	// tail only.
	replayBufferSize = 256

	// subscriberBufferSize bounds each subscriber channel. A consumer
	// that cannot keep up loses events rather than stalling the turn.
	subscriberBufferSize = 64
)

// broadcaster fans one turn's event stream out to any number of
// subscribers and retains a bounded replay window keyed by event
// sequence number.
type broadcaster struct {
	mu       sync.Mutex
	buffer   []*agent.Event
	firstSeq uint64
	subs     map[chan *agent.Event]struct{}
	closed   bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan *agent.Event]struct{})}
}

// run drains the turn's channel until it closes.
func (b *broadcaster) run(events <-chan *agent.Event) {
	for ev := range events {
		b.publish(ev)
	}
	b.close()
}

func (b *broadcaster) publish(ev *agent.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buffer) == 0 {
		b.firstSeq = ev.Seq
	}
	b.buffer = append(b.buffer, ev)
	if len(b.buffer) > replayBufferSize {
		drop := len(b.buffer) - replayBufferSize
		b.buffer = b.buffer[drop:]
		b.firstSeq = b.buffer[0].Seq
	}

	for sub := range b.subs {
		select {
		case sub <- ev:
		default:
			observability.StreamDroppedEvents.Inc()
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for sub := range b.subs {
		close(sub)
		delete(b.subs, sub)
	}
}

// subscribe returns buffered events after afterSeq plus a live channel
// for the rest. The channel is nil when the turn already ended.
func (b *broadcaster) subscribe(afterSeq uint64) ([]*agent.Event, chan *agent.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var replay []*agent.Event
	for _, ev := range b.buffer {
		if ev.Seq > afterSeq {
			replay = append(replay, ev)
		}
	}
	if b.closed {
		return replay, nil
	}

	sub := make(chan *agent.Event, subscriberBufferSize)
	b.subs[sub] = struct{}{}
	return replay, sub
}

func (b *broadcaster) unsubscribe(sub chan *agent.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub)
	}
}

// turnRegistry tracks in-flight turns by chat so a dropped client can
// reattach to the live stream.
type turnRegistry struct {
	mu    sync.Mutex
	turns map[string]*broadcaster
}

func newTurnRegistry() *turnRegistry {
	return &turnRegistry{turns: make(map[string]*broadcaster)}
}

// start attaches a broadcaster to a turn's event channel. The entry is
// removed once the turn's channel closes.
func (r *turnRegistry) start(chatID string, events <-chan *agent.Event) *broadcaster {
	b := newBroadcaster()
	r.mu.Lock()
	r.turns[chatID] = b
	r.mu.Unlock()

	go func() {
		b.run(events)
		r.mu.Lock()
		if r.turns[chatID] == b {
			delete(r.turns, chatID)
		}
		r.mu.Unlock()
	}()
	return b
}

func (r *turnRegistry) lookup(chatID string) (*broadcaster, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.turns[chatID]
	return b, ok
}

// sseWriter frames agent events as server-sent events. Event ids carry
// the turn sequence number so Last-Event-ID resume lines up.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) write(ev *agent.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// lastEventID parses the client's resume position; 0 means from the
// beginning.
func lastEventID(r *http.Request) uint64 {
	value := r.Header.Get("Last-Event-ID")
	if value == "" {
		return 0
	}
	seq, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}
