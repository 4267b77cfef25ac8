package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnCounter counts completed agent turns by terminal state.
	TurnCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_agent_turns_total",
			Help: "Agent turns by terminal state (committed, failed, cancelled)",
		},
		[]string{"state"},
	)

	// TurnDuration observes wall-clock turn time.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_agent_turn_duration_seconds",
			Help:    "Agent turn duration from receipt to commit",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"state"},
	)

	// LLMRequestDuration observes provider streaming call time.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_llm_request_duration_seconds",
			Help:    "LLM streaming request duration by provider and model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"provider", "model"},
	)

	// LLMTokens counts input/output tokens by provider.
	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_llm_tokens_total",
			Help: "LLM tokens by provider and direction",
		},
		[]string{"provider", "direction"},
	)

	// ToolExecutionCounter counts tool invocations by tool and status.
	ToolExecutionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_tool_executions_total",
			Help: "Tool executions by tool name and status (ok, failed)",
		},
		[]string{"tool", "status"},
	)

	// ToolExecutionDuration observes per-tool execution time.
	ToolExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_tool_execution_duration_seconds",
			Help:    "Tool execution duration by tool name",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"tool"},
	)

	// HTTPRequestCounter counts API requests.
	HTTPRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// StreamDroppedEvents counts stream events dropped because a
	// subscriber's buffer was full.
	StreamDroppedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_stream_dropped_events_total",
			Help: "Stream events dropped due to slow subscribers",
		},
	)
)
