package memory

import (
	"context"
	"sync"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps the conversation of every open session, capped at maxTurns.
type HistoryStore struct {
	mu       sync.Mutex
	convs    map[string]*model.Conversation
	maxTurns int
}

func NewHistoryStore(maxTurns int) *HistoryStore {
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &HistoryStore{convs: map[string]*model.Conversation{}, maxTurns: maxTurns}
}

func (h *HistoryStore) Append(ctx context.Context, sessionID, userID string, turns ...model.ChatTurn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.convs[sessionID]
	if !ok {
		c = model.NewConversation(sessionID, userID)
		h.convs[sessionID] = c
	}
	for _, t := range turns {
		c.AddTurn(t.Role, t.Content, t.Timestamp)
	}
	c.Trim(h.maxTurns)
	return nil
}

func (h *HistoryStore) Recent(ctx context.Context, sessionID string, n int) ([]model.ChatTurn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.convs[sessionID]
	if !ok || n <= 0 {
		return nil, nil
	}
	return append([]model.ChatTurn(nil), c.Recent(n)...), nil
}

func (h *HistoryStore) Delete(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.convs, sessionID)
	return nil
}

func (h *HistoryStore) Count(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.convs), nil
}
