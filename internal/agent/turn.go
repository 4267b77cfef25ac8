package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hphungg/chatbot-sub000/internal/config"
	"github.com/hphungg/chatbot-sub000/internal/observability"
	"github.com/hphungg/chatbot-sub000/internal/store"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// State is the turn lifecycle position.
type State string

const (
	StateIdle          State = "idle"
	StateReceiving     State = "receiving"
	StateGenerating    State = "generating"
	StateAwaitingTools State = "awaiting_tools"
	StateFinalizing    State = "finalizing"
	StateCommitted     State = "committed"
	StateFailed        State = "failed"
)

// TurnError reports a turn failure with the state it occurred in.
type TurnError struct {
	State State
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed in state %s: %v", e.State, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Generation caps, independent of the configurable bounds.
const (
	maxResponseTextSize      = 256 * 1024
	maxToolCallsPerIteration = 16
	eventBufferSize          = 64
)

// TurnRequest is one inbound user message for an existing chat.
type TurnRequest struct {
	ChatID string
	UserID string
	Parts  []models.Part
}

// Controller drives chat turns. Turns on the same chat are
// serialized: a second submission waits for the running turn to
// commit rather than interleaving with it.
type Controller struct {
	store    store.Store
	provider Provider
	registry *Registry
	executor *Executor
	settings *config.SettingsCache
	cfg      config.AgentConfig
	logger   *slog.Logger
	locks    *chatLocks
}

// NewController wires the turn controller.
func NewController(st store.Store, provider Provider, registry *Registry, executor *Executor, settings *config.SettingsCache, cfg config.AgentConfig, logger *slog.Logger) *Controller {
	return &Controller{
		store:    st,
		provider: provider,
		registry: registry,
		executor: executor,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
		locks:    newChatLocks(),
	}
}

// Run starts a turn and returns its event stream. Validation and
// ownership failures surface as errors before any state changes; once
// the channel is returned the turn progresses asynchronously and all
// subsequent failures arrive as error events. The channel is closed
// when the turn reaches a terminal state. Cancelling ctx stops
// generation and commits the partial response.
func (c *Controller) Run(ctx context.Context, req *TurnRequest) (<-chan *Event, error) {
	if len(req.Parts) == 0 {
		return nil, &TurnError{State: StateIdle, Err: errors.New("empty message")}
	}
	if err := models.ValidateParts(req.Parts); err != nil {
		return nil, &TurnError{State: StateIdle, Err: err}
	}
	for _, p := range req.Parts {
		if p.Type != models.PartTypeText && p.Type != models.PartTypeFile {
			return nil, &TurnError{State: StateIdle, Err: fmt.Errorf("inbound part type %q not allowed", p.Type)}
		}
	}

	settings, err := c.settings.Get()
	if err != nil {
		return nil, &TurnError{State: StateIdle, Err: err}
	}

	chat, err := c.store.GetChat(ctx, req.ChatID, req.UserID)
	if err != nil {
		return nil, err
	}

	events := make(chan *Event, eventBufferSize)
	t := &turn{
		ctrl:     c,
		chat:     chat,
		req:      req,
		settings: settings,
		events:   events,
	}
	go t.run(ctx)
	return events, nil
}

// turn is the running state of a single Run call.
type turn struct {
	ctrl     *Controller
	chat     *models.Chat
	req      *TurnRequest
	settings config.AgentSettings
	events   chan *Event

	state State
	parts []models.Part

	// emitMu serializes event emission: tool results arrive from
	// concurrent executor goroutines.
	emitMu sync.Mutex
	seq    uint64
}

func (t *turn) run(ctx context.Context) {
	defer close(t.events)
	started := time.Now()

	unlock := t.ctrl.locks.lock(t.chat.ID)
	defer unlock()

	// base survives cancellation for commits and in-flight tools
	base := context.WithoutCancel(ctx)
	turnCtx, cancel := context.WithTimeout(ctx, t.ctrl.cfg.TurnTimeout)
	defer cancel()

	t.state = StateReceiving
	if err := t.receive(base); err != nil {
		t.fail(err)
		return
	}

	history, err := t.ctrl.store.GetMessages(turnCtx, t.chat.ID, t.ctrl.cfg.HistoryLimit)
	if err != nil {
		t.fail(err)
		return
	}
	transcript := historyToCompletion(history)

	for iteration := 0; iteration < t.ctrl.cfg.MaxIterations; iteration++ {
		t.state = StateGenerating
		gen, err := t.generate(turnCtx, transcript)
		if err != nil {
			if isCancellation(err) {
				t.commitPartial(turnCtx, base, started)
				return
			}
			t.fail(err)
			return
		}

		if len(gen.toolCalls) == 0 {
			break
		}

		t.state = StateAwaitingTools
		// tools run on the detached context so cancellation does not
		// abandon side effects mid-flight
		toolCtx, toolCancel := context.WithTimeout(base, t.ctrl.cfg.TurnTimeout)
		results := t.ctrl.executor.Execute(toolCtx, gen.toolCalls, func(res *models.ToolResult) {
			t.emit(ctx, &Event{Type: EventToolResult, ToolResult: res})
		})
		toolCancel()

		for _, res := range results {
			t.parts = append(t.parts, models.ToolResultPart(res))
		}

		if turnCtx.Err() != nil {
			// cancelled while tools were finishing: results are
			// committed with the truncated response
			t.commitPartial(turnCtx, base, started)
			return
		}

		transcript = append(transcript,
			CompletionMessage{Role: "assistant", Content: gen.text, ToolCalls: gen.toolCalls},
			CompletionMessage{Role: "tool", ToolResults: results},
		)
	}

	t.state = StateFinalizing
	msgID, err := t.commit(base, FinishComplete)
	if err != nil {
		t.fail(err)
		return
	}

	t.state = StateCommitted
	observability.TurnCounter.WithLabelValues(string(StateCommitted)).Inc()
	observability.TurnDuration.WithLabelValues(string(StateCommitted)).Observe(time.Since(started).Seconds())
	t.emit(ctx, &Event{Type: EventFinish, ChatID: t.chat.ID, MessageID: msgID, FinishReason: FinishComplete})
}

// receive persists the inbound user message before any generation.
func (t *turn) receive(ctx context.Context) error {
	first, err := t.isFirstMessage(ctx)
	if err != nil {
		return err
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		ChatID:    t.chat.ID,
		Role:      models.RoleUser,
		Parts:     t.req.Parts,
		CreatedAt: time.Now(),
	}
	if err := t.ctrl.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("persist inbound message: %w", err)
	}

	if first {
		t.deriveTitle(ctx)
	}
	return nil
}

func (t *turn) isFirstMessage(ctx context.Context) (bool, error) {
	msgs, err := t.ctrl.store.GetMessages(ctx, t.chat.ID, 1)
	if err != nil {
		return false, err
	}
	return len(msgs) == 0, nil
}

// generation holds one model call's output.
type generation struct {
	text      string
	toolCalls []*models.ToolCall
}

func (t *turn) generate(ctx context.Context, transcript []CompletionMessage) (*generation, error) {
	req := &CompletionRequest{
		Model:     t.settings.Model,
		APIKey:    t.settings.APIKey,
		System:    t.ctrl.cfg.SystemPrompt,
		Messages:  transcript,
		Tools:     t.ctrl.registry.Definitions(),
		MaxTokens: t.ctrl.cfg.MaxTokens,
	}

	llmStart := time.Now()
	chunks, err := t.ctrl.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	gen := &generation{}
	var text strings.Builder
	var reasoning strings.Builder

	flushText := func() {
		if text.Len() > 0 {
			t.parts = append(t.parts, models.TextPart(text.String()))
			gen.text += text.String()
			text.Reset()
		}
	}
	flushReasoning := func() {
		if reasoning.Len() > 0 {
			t.parts = append(t.parts, models.ReasoningPart(reasoning.String()))
			reasoning.Reset()
		}
	}

	for {
		select {
		case <-ctx.Done():
			flushReasoning()
			flushText()
			return nil, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				flushReasoning()
				flushText()
				observability.LLMRequestDuration.WithLabelValues(t.ctrl.provider.Name(), t.settings.Model).Observe(time.Since(llmStart).Seconds())
				return gen, nil
			}
			if chunk.Err != nil {
				flushReasoning()
				flushText()
				return nil, fmt.Errorf("stream: %w", chunk.Err)
			}
			if chunk.Reasoning != "" {
				reasoning.WriteString(chunk.Reasoning)
				t.emit(ctx, &Event{Type: EventReasoningDelta, Delta: chunk.Reasoning})
			}
			if chunk.Text != "" {
				if text.Len()+len(chunk.Text) > maxResponseTextSize {
					flushReasoning()
					flushText()
					return nil, fmt.Errorf("response exceeds %d bytes", maxResponseTextSize)
				}
				flushReasoning()
				text.WriteString(chunk.Text)
				t.emit(ctx, &Event{Type: EventTextDelta, Delta: chunk.Text})
			}
			if chunk.ToolCall != nil {
				if len(gen.toolCalls) >= maxToolCallsPerIteration {
					return nil, fmt.Errorf("more than %d tool calls in one response", maxToolCallsPerIteration)
				}
				flushReasoning()
				flushText()
				t.parts = append(t.parts, models.ToolCallPart(chunk.ToolCall))
				gen.toolCalls = append(gen.toolCalls, chunk.ToolCall)
				t.emit(ctx, &Event{Type: EventToolCall, ToolCall: chunk.ToolCall})
			}
			if chunk.InputTokens > 0 {
				observability.LLMTokens.WithLabelValues(t.ctrl.provider.Name(), "input").Add(float64(chunk.InputTokens))
			}
			if chunk.OutputTokens > 0 {
				observability.LLMTokens.WithLabelValues(t.ctrl.provider.Name(), "output").Add(float64(chunk.OutputTokens))
			}
		}
	}
}

// commit writes the accumulated assistant message. Unpaired tool-call
// parts (calls whose results were discarded by cancellation) are
// dropped so the committed transcript keeps the pairing invariant.
func (t *turn) commit(ctx context.Context, reason string) (string, error) {
	parts := dropUnpairedCalls(t.parts)
	if len(parts) == 0 {
		return "", nil
	}
	msg := &models.Message{
		ID:           uuid.NewString(),
		ChatID:       t.chat.ID,
		Role:         models.RoleAssistant,
		Parts:        parts,
		FinishReason: reason,
		CreatedAt:    time.Now(),
	}
	if err := t.ctrl.store.AppendMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("commit assistant message: %w", err)
	}
	t.ctrl.logger.Info("turn committed",
		"chat_id", t.chat.ID,
		"message_id", msg.ID,
		"parts", len(parts),
		"reason", reason,
	)
	return msg.ID, nil
}

// commitPartial handles cancellation and timeout: whatever streamed so
// far is committed truncated, then the stream finishes.
func (t *turn) commitPartial(ctx, base context.Context, started time.Time) {
	reason := FinishCancelled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = FinishTimeout
	}

	t.state = StateFinalizing
	msgID, err := t.commit(base, reason)
	if err != nil {
		t.fail(err)
		return
	}

	t.state = StateCommitted
	observability.TurnCounter.WithLabelValues(reason).Inc()
	observability.TurnDuration.WithLabelValues(reason).Observe(time.Since(started).Seconds())
	t.emit(base, &Event{Type: EventFinish, ChatID: t.chat.ID, MessageID: msgID, FinishReason: reason})
}

func (t *turn) fail(err error) {
	t.state = StateFailed
	observability.TurnCounter.WithLabelValues(string(StateFailed)).Inc()
	t.ctrl.logger.Error("turn failed", "chat_id", t.chat.ID, "state", string(t.state), "error", err)
	// the broadcaster drains the channel until close, so a blocking
	// send always lands the terminal error event
	ev := &Event{Type: EventError, ChatID: t.chat.ID, Error: err.Error()}
	t.emitMu.Lock()
	t.seq++
	ev.Seq = t.seq
	t.emitMu.Unlock()
	t.events <- ev
}

// emit delivers an event, blocking when the buffer is full. A full
// buffer slows generation down to the consumer's pace; cancellation
// unblocks the send. Holding emitMu across the send keeps channel
// order aligned with sequence numbers.
func (t *turn) emit(ctx context.Context, ev *Event) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.seq++
	ev.Seq = t.seq
	select {
	case t.events <- ev:
	case <-ctx.Done():
		observability.StreamDroppedEvents.Inc()
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// dropUnpairedCalls removes tool-call parts with no matching result.
func dropUnpairedCalls(parts []models.Part) []models.Part {
	resolved := make(map[string]bool)
	for _, p := range parts {
		if p.Type == models.PartTypeToolResult {
			resolved[p.ToolResult.CallID] = true
		}
	}
	out := make([]models.Part, 0, len(parts))
	for _, p := range parts {
		if p.Type == models.PartTypeToolCall && !resolved[p.ToolCall.ID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// historyToCompletion converts stored messages to provider form.
// Assistant messages with tool calls are followed by a tool message
// carrying their results.
func historyToCompletion(history []*models.Message) []CompletionMessage {
	var out []CompletionMessage
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			out = append(out, CompletionMessage{Role: "user", Content: msg.Text()})
		case models.RoleAssistant:
			cm := CompletionMessage{Role: "assistant", Content: msg.Text(), ToolCalls: msg.ToolCalls()}
			out = append(out, cm)
			if results := msg.ToolResults(); len(results) > 0 {
				out = append(out, CompletionMessage{Role: "tool", ToolResults: results})
			}
		}
	}
	return out
}
