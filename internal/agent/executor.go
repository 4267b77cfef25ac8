package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hphungg/chatbot-sub000/internal/observability"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// ExecConfig bounds tool execution within a turn.
type ExecConfig struct {
	// Concurrency is the maximum number of tools running at once.
	Concurrency int
	// Timeout applies to each invocation individually.
	Timeout time.Duration
}

// DefaultExecConfig returns the standard execution bounds.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{Concurrency: 4, Timeout: 30 * time.Second}
}

// Executor runs a batch of tool calls against the registry. Every
// failure mode (unknown tool, invalid arguments, timeout, tool error,
// tool panic) becomes a failed ToolResult; Execute never loses a call
// and never returns an error for a tool-level problem.
type Executor struct {
	registry *Registry
	config   ExecConfig
	logger   *slog.Logger
}

// NewExecutor builds an executor over the frozen registry.
func NewExecutor(registry *Registry, config ExecConfig, logger *slog.Logger) *Executor {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultExecConfig().Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultExecConfig().Timeout
	}
	return &Executor{registry: registry, config: config, logger: logger}
}

// Execute runs all calls with bounded concurrency and returns their
// results in input order. It returns only when every invocation has
// finished or timed out: the caller resumes generation with the
// complete result set. onResult, when non-nil, receives each result
// as it completes.
func (e *Executor) Execute(ctx context.Context, calls []*models.ToolCall, onResult func(*models.ToolResult)) []*models.ToolResult {
	results := make([]*models.ToolResult, len(calls))
	sem := make(chan struct{}, e.config.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, call *models.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := e.executeOne(ctx, call)

			mu.Lock()
			results[idx] = result
			mu.Unlock()
			if onResult != nil {
				onResult(result)
			}
		}(i, call)
	}
	wg.Wait()
	return results
}

func (e *Executor) executeOne(ctx context.Context, call *models.ToolCall) *models.ToolResult {
	started := time.Now()
	result := e.run(ctx, call)
	elapsed := time.Since(started)

	status := "ok"
	if result.IsError {
		status = "failed"
	}
	observability.ToolExecutionCounter.WithLabelValues(call.Name, status).Inc()
	observability.ToolExecutionDuration.WithLabelValues(call.Name).Observe(elapsed.Seconds())
	e.logger.Debug("tool executed",
		"tool", call.Name,
		"call_id", call.ID,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result
}

func (e *Executor) run(ctx context.Context, call *models.ToolCall) *models.ToolResult {
	fail := func(msg string) *models.ToolResult {
		return &models.ToolResult{CallID: call.ID, Name: call.Name, Content: msg, IsError: true}
	}

	tool, ok := e.registry.Lookup(call.Name)
	if !ok {
		return fail(fmt.Sprintf("unknown tool %q", call.Name))
	}

	if err := validateParams(call.Name, tool.Schema(), call.Input); err != nil {
		return fail(err.Error())
	}

	execCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("tool panicked", "tool", call.Name, "call_id", call.ID, "panic", r)
				select {
				case done <- outcome{err: fmt.Errorf("panic: %v", r)}:
				default:
				}
			}
		}()
		result, err := tool.Execute(execCtx, call.Input)
		select {
		case done <- outcome{result, err}:
		default:
		}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return fail(fmt.Sprintf("tool %s failed: %v", call.Name, out.err))
		}
		if out.result == nil {
			return fail(fmt.Sprintf("tool %s returned no result", call.Name))
		}
		return &models.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: out.result.Content,
			IsError: out.result.IsError,
		}
	case <-execCtx.Done():
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return fail(fmt.Sprintf("tool %s timed out after %v", call.Name, e.config.Timeout))
		}
		return fail(fmt.Sprintf("tool %s cancelled", call.Name))
	}
}
