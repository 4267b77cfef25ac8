// Package providers contains the LLM backends the turn controller can
// drive: Anthropic Claude and OpenAI GPT models, both streaming with
// tool use.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

const (
	defaultMaxTokens = 4096

	// maxEmptyStreamEvents guards against malformed streams that emit
	// events without content forever.
	maxEmptyStreamEvents = 300
)

// AnthropicProvider streams completions from Claude models. The API
// key travels with each request so key rotation through the settings
// cache needs no provider restart.
type AnthropicProvider struct {
	maxRetries int
	retryDelay time.Duration
	baseURL    string
}

// NewAnthropicProvider returns a provider with default retry policy.
func NewAnthropicProvider() *AnthropicProvider {
	return &AnthropicProvider{
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if req.APIKey == "" {
		return nil, errors.New("anthropic: api key not configured")
	}

	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithAPIKey(req.APIKey)}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	client := anthropic.NewClient(opts...)

	chunks := make(chan *agent.CompletionChunk)
	go func() {
		defer close(chunks)

		var stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
		for attempt := 0; attempt < p.maxRetries; attempt++ {
			if attempt > 0 {
				// exponential backoff between attempts
				delay := p.retryDelay * (1 << (attempt - 1))
				select {
				case <-ctx.Done():
					sendChunk(ctx, chunks, &agent.CompletionChunk{Err: ctx.Err(), Done: true})
					return
				case <-time.After(delay):
				}
			}

			stream = client.Messages.NewStreaming(ctx, *params)
			done, emitted := p.processStream(ctx, stream, chunks)
			if done {
				return
			}
			err := stream.Err()
			stream.Close()
			// a stream that already delivered content cannot be
			// replayed without duplicating it
			if emitted || err == nil || !retryable(err) {
				sendChunk(ctx, chunks, &agent.CompletionChunk{Err: fmt.Errorf("anthropic: %w", err), Done: true})
				return
			}
			if attempt == p.maxRetries-1 {
				sendChunk(ctx, chunks, &agent.CompletionChunk{Err: fmt.Errorf("anthropic: max retries exceeded: %w", err), Done: true})
				return
			}
		}
	}()
	return chunks, nil
}

func (p *AnthropicProvider) buildParams(req *agent.CompletionRequest) (*anthropic.MessageNewParams, error) {
	messages, err := convertAnthropicMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := &anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertAnthropicTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}
	return params, nil
}

// processStream drains one SSE stream into chunks. done reports a
// terminal outcome (message_stop, server error, malformed stream);
// emitted reports whether any content chunk left the provider.
func (p *AnthropicProvider) processStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], chunks chan<- *agent.CompletionChunk) (done, emitted bool) {
	var toolCall *models.ToolCall
	var toolInput strings.Builder
	var inputTokens, outputTokens int
	emptyEvents := 0

	for stream.Next() {
		event := stream.Current()
		processed := false

		switch event.Type {
		case "message_start":
			start := event.AsMessageStart()
			if start.Message.Usage.InputTokens > 0 {
				inputTokens = int(start.Message.Usage.InputTokens)
			}
			processed = true

		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				use := block.AsToolUse()
				toolCall = &models.ToolCall{ID: use.ID, Name: use.Name}
				toolInput.Reset()
				processed = true
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					if !sendChunk(ctx, chunks, &agent.CompletionChunk{Text: delta.Text}) {
						return true, emitted
					}
					processed = true
					emitted = true
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					if !sendChunk(ctx, chunks, &agent.CompletionChunk{Reasoning: delta.Thinking}) {
						return true, emitted
					}
					processed = true
					emitted = true
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					toolInput.WriteString(delta.PartialJSON)
					processed = true
				}
			}

		case "content_block_stop":
			if toolCall != nil {
				input := toolInput.String()
				if input == "" {
					input = "{}"
				}
				toolCall.Input = json.RawMessage(input)
				if !sendChunk(ctx, chunks, &agent.CompletionChunk{ToolCall: toolCall}) {
					return true, emitted
				}
				toolCall = nil
				processed = true
				emitted = true
			}

		case "message_delta":
			delta := event.AsMessageDelta()
			if delta.Usage.OutputTokens > 0 {
				outputTokens = int(delta.Usage.OutputTokens)
			}
			processed = true

		case "message_stop":
			sendChunk(ctx, chunks, &agent.CompletionChunk{
				Done:         true,
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
			})
			return true, emitted

		case "error":
			sendChunk(ctx, chunks, &agent.CompletionChunk{Err: errors.New("anthropic: stream error event"), Done: true})
			return true, emitted
		}

		if processed {
			emptyEvents = 0
		} else {
			emptyEvents++
			if emptyEvents >= maxEmptyStreamEvents {
				sendChunk(ctx, chunks, &agent.CompletionChunk{
					Err:  fmt.Errorf("anthropic: malformed stream, %d consecutive empty events", emptyEvents),
					Done: true,
				})
				return true, emitted
			}
		}
	}

	if ctx.Err() != nil {
		sendChunk(ctx, chunks, &agent.CompletionChunk{Err: ctx.Err(), Done: true})
		return true, emitted
	}
	return false, emitted
}

func convertAnthropicMessages(messages []agent.CompletionMessage) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, msg := range messages {
		var content []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		for _, res := range msg.ToolResults {
			content = append(content, anthropic.NewToolResultBlock(res.CallID, res.Content, res.IsError))
		}
		for _, call := range msg.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal(call.Input, &input); err != nil {
				return nil, fmt.Errorf("anthropic: tool call %s input: %w", call.ID, err)
			}
			content = append(content, anthropic.NewToolUseBlock(call.ID, input, call.Name))
		}
		if len(content) == 0 {
			continue
		}

		if msg.Role == "assistant" {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			// tool results ride on user messages in the Anthropic API
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}
	return result, nil
}

func convertAnthropicTools(tools []agent.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("anthropic: schema for %s: %w", tool.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("anthropic: tool %s produced no definition", tool.Name)
		}
		param.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, param)
	}
	return result, nil
}

// retryable classifies transport errors worth another attempt: rate
// limits, server errors, timeouts.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"rate limit", "429", "500", "502", "503", "504", "529", "timeout", "deadline exceeded", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
