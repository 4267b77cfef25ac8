package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/auth"
	"github.com/hphungg/chatbot-sub000/internal/config"
	"github.com/hphungg/chatbot-sub000/internal/store"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

type providerFunc func(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error)

func (providerFunc) Name() string { return "func" }
func (f providerFunc) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	return f(ctx, req)
}

type staticSettings struct{}

func (staticSettings) Fetch() (config.AgentSettings, error) {
	return config.AgentSettings{Model: "gpt-4o-mini", APIKey: "sk-test"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func greetingProvider() agent.Provider {
	return providerFunc(func(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
		chunks := make(chan *agent.CompletionChunk, 3)
		chunks <- &agent.CompletionChunk{Text: "Xin "}
		chunks <- &agent.CompletionChunk{Text: "chào"}
		chunks <- &agent.CompletionChunk{Done: true}
		close(chunks)
		return chunks, nil
	})
}

func newTestServer(t *testing.T, provider agent.Provider) (*Server, *store.MemoryStore, *auth.JWTService) {
	t.Helper()

	st := store.NewMemoryStore()
	reg, err := agent.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	cfg := config.AgentConfig{
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		MaxIterations:   5,
		MaxTokens:       1024,
		TurnTimeout:     5 * time.Second,
		ToolTimeout:     time.Second,
		ToolConcurrency: 2,
		HistoryLimit:    50,
	}
	exec := agent.NewExecutor(reg, agent.ExecConfig{Concurrency: 2, Timeout: time.Second}, testLogger())
	cache := config.NewSettingsCache(staticSettings{}, time.Hour)
	controller := agent.NewController(st, provider, reg, exec, cache, cfg, testLogger())

	jwt := auth.NewJWTService("test-secret", time.Hour)
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, st, controller, jwt, testLogger())
	return srv, st, jwt
}

func bearerFor(t *testing.T, jwt *auth.JWTService, user *models.User) string {
	t.Helper()
	token, err := jwt.Generate(user)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return "Bearer " + token
}

func seedChat(t *testing.T, st *store.MemoryStore, userID string) *models.Chat {
	t.Helper()
	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     "Cuộc trò chuyện mới",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := st.CreateChat(context.Background(), chat); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	return chat
}

func TestHealthzOpen(t *testing.T) {
	srv, _, _ := newTestServer(t, greetingProvider())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, greetingProvider())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestChatLifecycle(t *testing.T) {
	srv, _, jwt := newTestServer(t, greetingProvider())
	authz := bearerFor(t, jwt, &models.User{ID: "u1", Name: "Trần Văn An"})

	req := httptest.NewRequest(http.MethodPost, "/api/chats", strings.NewReader(`{}`))
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var chat models.Chat
	if err := json.Unmarshal(rec.Body.Bytes(), &chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if chat.UserID != "u1" || chat.ID == "" {
		t.Fatalf("chat = %+v", chat)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", authz)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed struct {
		Chats []*models.Chat `json:"chats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Chats) != 1 {
		t.Fatalf("chats = %d, want 1", len(listed.Chats))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/chats/"+chat.ID, nil)
	req.Header.Set("Authorization", authz)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestOwnershipHidesChats(t *testing.T) {
	srv, st, jwt := newTestServer(t, greetingProvider())
	chat := seedChat(t, st, "owner")
	intruder := bearerFor(t, jwt, &models.User{ID: "intruder"})

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/chats/" + chat.ID + "/messages"},
		{http.MethodDelete, "/api/chats/" + chat.ID},
		{http.MethodGet, "/api/chats/" + chat.ID + "/stream"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", intruder)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSendMessageStreamsSSE(t *testing.T) {
	srv, st, jwt := newTestServer(t, greetingProvider())
	chat := seedChat(t, st, "u1")
	authz := bearerFor(t, jwt, &models.User{ID: "u1"})

	body := strings.NewReader(`{"text":"chào bạn"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", body)
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var deltas []string
	var finished bool
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev agent.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		switch ev.Type {
		case agent.EventTextDelta:
			deltas = append(deltas, ev.Delta)
		case agent.EventFinish:
			finished = true
			if ev.FinishReason != agent.FinishComplete {
				t.Errorf("finish reason = %q", ev.FinishReason)
			}
		}
	}
	if strings.Join(deltas, "") != "Xin chào" {
		t.Errorf("deltas = %q", deltas)
	}
	if !finished {
		t.Error("no finish event")
	}

	// the turn committed both messages
	messages, err := st.GetMessages(context.Background(), chat.ID, 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[1].Role != models.RoleAssistant || messages[1].Text() != "Xin chào" {
		t.Fatalf("assistant message = %+v", messages[1])
	}
}

func TestSendMessageEmptyBodyRejected(t *testing.T) {
	srv, st, jwt := newTestServer(t, greetingProvider())
	chat := seedChat(t, st, "u1")
	authz := bearerFor(t, jwt, &models.User{ID: "u1"})

	req := httptest.NewRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", strings.NewReader(`{}`))
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestResumeWithoutLiveTurn(t *testing.T) {
	srv, st, jwt := newTestServer(t, greetingProvider())
	chat := seedChat(t, st, "u1")
	authz := bearerFor(t, jwt, &models.User{ID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/chats/"+chat.ID+"/stream", nil)
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
