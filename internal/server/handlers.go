package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/auth"
	"github.com/hphungg/chatbot-sub000/internal/store"
	"github.com/hphungg/chatbot-sub000/pkg/models"
)

const maxRequestBody = 1 << 20

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

// handleCreateChat starts an empty conversation.
func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var input struct {
		GroupID string `json:"groupId"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input)
	}

	now := time.Now()
	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		GroupID:   input.GroupID,
		Title:     "Cuộc trò chuyện mới",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateChat(r.Context(), chat); err != nil {
		s.logger.Error("create chat", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not create chat")
		return
	}
	s.writeJSON(w, http.StatusCreated, chat)
}

// handleListChats returns the caller's conversations, most recent
// first.
func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	chats, err := s.store.ListChats(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("list chats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list chats")
		return
	}
	if chats == nil {
		chats = []*models.Chat{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

// handleDeleteChat removes a conversation the caller owns. A chat
// owned by someone else looks identical to a missing one.
func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	err := s.store.DeleteChat(r.Context(), r.PathValue("id"), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		s.logger.Error("delete chat", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetMessages returns a chat's transcript.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	chatID := r.PathValue("id")

	if _, err := s.store.GetChat(r.Context(), chatID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		s.logger.Error("get chat", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load chat")
		return
	}

	messages, err := s.store.GetMessages(r.Context(), chatID, 0)
	if err != nil {
		s.logger.Error("get messages", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// handleSendMessage submits a user message and streams the turn back
// as SSE. A second submission for the same chat queues behind the
// running turn.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	chatID := r.PathValue("id")

	var input struct {
		Text  string        `json:"text"`
		Parts []models.Part `json:"parts"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	parts := input.Parts
	if len(parts) == 0 && input.Text != "" {
		parts = []models.Part{models.TextPart(input.Text)}
	}

	events, err := s.controller.Run(r.Context(), &agent.TurnRequest{
		ChatID: chatID,
		UserID: user.ID,
		Parts:  parts,
	})
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		var turnErr *agent.TurnError
		if errors.As(err, &turnErr) {
			s.writeError(w, http.StatusBadRequest, turnErr.Error())
			return
		}
		s.logger.Error("start turn", "chat_id", chatID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not start turn")
		return
	}

	b := s.turns.start(chatID, events)
	s.streamTurn(w, r, b, 0)
}

// handleResumeStream reattaches to an in-flight turn. The Last-Event-ID
// header selects the replay position.
func (s *Server) handleResumeStream(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	chatID := r.PathValue("id")

	if _, err := s.store.GetChat(r.Context(), chatID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		s.logger.Error("get chat", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load chat")
		return
	}

	b, ok := s.turns.lookup(chatID)
	if !ok {
		// no live turn; the committed transcript already has the data
		s.writeError(w, http.StatusNotFound, "no active turn")
		return
	}
	s.streamTurn(w, r, b, lastEventID(r))
}

func (s *Server) streamTurn(w http.ResponseWriter, r *http.Request, b *broadcaster, afterSeq uint64) {
	sse, err := newSSEWriter(w)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	replay, live := b.subscribe(afterSeq)
	if live != nil {
		defer b.unsubscribe(live)
	}

	for _, ev := range replay {
		if err := sse.write(ev); err != nil {
			return
		}
	}
	if live == nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-live:
			if !ok {
				return
			}
			if err := sse.write(ev); err != nil {
				return
			}
		}
	}
}
