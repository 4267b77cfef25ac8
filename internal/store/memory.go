package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hphungg/chatbot-sub000/pkg/models"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]*models.Chat
	messages map[string][]*models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]*models.Message),
	}
}

func (s *MemoryStore) CreateChat(_ context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *chat
	s.chats[chat.ID] = &c
	return nil
}

func (s *MemoryStore) GetChat(_ context.Context, chatID, userID string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	if !ok || chat.UserID != userID {
		return nil, ErrNotFound
	}
	c := *chat
	return &c, nil
}

func (s *MemoryStore) ListChats(_ context.Context, userID string) ([]*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Chat
	for _, chat := range s.chats {
		if chat.UserID == userID {
			c := *chat
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateChatTitle(_ context.Context, chatID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	chat.Title = title
	chat.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteChat(_ context.Context, chatID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok || chat.UserID != userID {
		return ErrNotFound
	}
	delete(s.chats, chatID)
	delete(s.messages, chatID)
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg *models.Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *msg
	m.Parts = append([]models.Part(nil), msg.Parts...)
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], &m)
	if chat, ok := s.chats[msg.ChatID]; ok {
		chat.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) GetMessages(_ context.Context, chatID string, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
