package server

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hphungg/chatbot-sub000/internal/agent"
)

func TestBroadcasterReplayAfterSeq(t *testing.T) {
	b := newBroadcaster()
	for i := 1; i <= 5; i++ {
		b.publish(&agent.Event{Type: agent.EventTextDelta, Seq: uint64(i), Delta: fmt.Sprintf("d%d", i)})
	}

	replay, live := b.subscribe(3)
	defer b.unsubscribe(live)
	if len(replay) != 2 {
		t.Fatalf("replay = %d events, want 2", len(replay))
	}
	if replay[0].Seq != 4 || replay[1].Seq != 5 {
		t.Fatalf("replay seqs = %d, %d", replay[0].Seq, replay[1].Seq)
	}
	if live == nil {
		t.Fatal("expected live channel for open broadcaster")
	}
}

func TestBroadcasterBoundedBuffer(t *testing.T) {
	b := newBroadcaster()
	total := replayBufferSize + 10
	for i := 1; i <= total; i++ {
		b.publish(&agent.Event{Seq: uint64(i)})
	}

	replay, live := b.subscribe(0)
	defer b.unsubscribe(live)
	if len(replay) != replayBufferSize {
		t.Fatalf("replay = %d events, want %d", len(replay), replayBufferSize)
	}
	// the oldest events fell out of the window
	if replay[0].Seq != uint64(total-replayBufferSize+1) {
		t.Fatalf("first retained seq = %d", replay[0].Seq)
	}
}

func TestBroadcasterClosedReturnsNilLive(t *testing.T) {
	b := newBroadcaster()
	b.publish(&agent.Event{Seq: 1})
	b.close()

	replay, live := b.subscribe(0)
	if live != nil {
		t.Fatal("expected nil live channel after close")
	}
	if len(replay) != 1 {
		t.Fatalf("replay = %d events", len(replay))
	}
}

func TestBroadcasterSlowSubscriberDropsEvents(t *testing.T) {
	b := newBroadcaster()
	_, live := b.subscribe(0)
	defer b.unsubscribe(live)

	// nobody reads live: the channel fills and later events drop
	// without blocking the publisher
	done := make(chan struct{})
	go func() {
		for i := 1; i <= subscriberBufferSize*2; i++ {
			b.publish(&agent.Event{Seq: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
	if len(live) != subscriberBufferSize {
		t.Fatalf("subscriber buffer = %d", len(live))
	}
}

func TestTurnRegistryRemovesFinishedTurns(t *testing.T) {
	reg := newTurnRegistry()

	events := make(chan *agent.Event, 2)
	events <- &agent.Event{Seq: 1, Type: agent.EventTextDelta, Delta: "xin chào"}
	events <- &agent.Event{Seq: 2, Type: agent.EventFinish, FinishReason: agent.FinishComplete}

	b := reg.start("chat-1", events)
	if _, ok := reg.lookup("chat-1"); !ok {
		t.Fatal("turn not registered")
	}

	close(events)
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := reg.lookup("chat-1"); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("finished turn never removed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// the replay window outlives the live turn entry
	replay, live := b.subscribe(0)
	if live != nil {
		t.Fatal("expected closed broadcaster")
	}
	if len(replay) != 2 {
		t.Fatalf("replay = %d events", len(replay))
	}
}

func TestLastEventID(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/chats/c1/stream", nil)
	if got := lastEventID(req); got != 0 {
		t.Errorf("missing header = %d", got)
	}
	req.Header.Set("Last-Event-ID", "42")
	if got := lastEventID(req); got != 42 {
		t.Errorf("parsed = %d", got)
	}
	req.Header.Set("Last-Event-ID", "not-a-number")
	if got := lastEventID(req); got != 0 {
		t.Errorf("garbage = %d", got)
	}
}
