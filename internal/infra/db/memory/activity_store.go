package memory

import (
	"context"
	"sort"
	"sync"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.ActivityStore = (*ActivityStore)(nil)

// maxEvents bounds the event log of one live session.
const maxEvents = 500

// ActivityStore is the live view of sessions behind the metrics endpoints.
type ActivityStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.ActiveSession
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{sessions: map[string]*model.ActiveSession{}}
}

func (a *ActivityStore) Record(ctx context.Context, sessionID, userID string, ev model.ActivityEvent) error {
	if sessionID == "" {
		return domain.ErrInvalidArgument
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[sessionID]
	if !ok {
		s = &model.ActiveSession{SessionID: sessionID, UserID: userID, StartTime: ev.Timestamp}
		a.sessions[sessionID] = s
	}
	if ev.Timestamp > s.LastActivity {
		s.LastActivity = ev.Timestamp
	}
	if ev.Kind == model.ActivityBotResponse {
		s.TurnCount++
	}
	s.Events = append(s.Events, ev)
	if len(s.Events) > maxEvents {
		s.Events = append([]model.ActivityEvent(nil), s.Events[len(s.Events)-maxEvents:]...)
	}
	return nil
}

func (a *ActivityStore) End(ctx context.Context, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
	return nil
}

func (a *ActivityStore) Session(ctx context.Context, sessionID string) (*model.ActiveSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (a *ActivityStore) ByUser(ctx context.Context, userID string) ([]*model.ActiveSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*model.ActiveSession
	for _, s := range a.sessions {
		if s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	sortSessions(out)
	return out, nil
}

func (a *ActivityStore) All(ctx context.Context) ([]*model.ActiveSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.ActiveSession, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, s.Clone())
	}
	sortSessions(out)
	return out, nil
}

func (a *ActivityStore) PruneIdle(ctx context.Context, idleBefore int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for id, s := range a.sessions {
		if s.LastActivity < idleBefore {
			delete(a.sessions, id)
			n++
		}
	}
	return n, nil
}

func sortSessions(ss []*model.ActiveSession) {
	sort.Slice(ss, func(i, j int) bool { return ss[i].StartTime < ss[j].StartTime })
}
