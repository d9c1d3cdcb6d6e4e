// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"sync"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/domain/ports/repository"
)

// memProfileRepo is a small in-memory implementation used by unit tests.
type memProfileRepo struct {
	mu        sync.Mutex
	store     map[string]*model.UserProfile
	mutateErr error // used by tests to simulate storage failures
	snapshots int
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{store: make(map[string]*model.UserProfile)}
}

func (m *memProfileRepo) Mutate(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error) {
	if m.mutateErr != nil {
		return nil, m.mutateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[userID]
	if ok {
		p = p.Clone()
	} else {
		p = model.NewUserProfile(userID, fixedNow)
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	m.store[userID] = p.Clone()
	return p, nil
}

func (m *memProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.UserID] = p.Clone()
	return nil
}

func (m *memProfileRepo) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, userID)
	return nil
}

func (m *memProfileRepo) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.UserProfile, 0, len(m.store))
	for _, p := range m.store {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memProfileRepo) Snapshot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots++
	return nil
}

// memHistory keeps turns per session.
type memHistory struct {
	mu    sync.Mutex
	turns map[string][]model.ChatTurn
}

func newMemHistory() *memHistory { return &memHistory{turns: map[string][]model.ChatTurn{}} }

func (h *memHistory) Append(ctx context.Context, sessionID, userID string, turns ...model.ChatTurn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns[sessionID] = append(h.turns[sessionID], turns...)
	return nil
}

func (h *memHistory) Recent(ctx context.Context, sessionID string, n int) ([]model.ChatTurn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.turns[sessionID]
	if len(t) > n {
		t = t[len(t)-n:]
	}
	return append([]model.ChatTurn(nil), t...), nil
}

func (h *memHistory) Delete(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, sessionID)
	return nil
}

func (h *memHistory) Count(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns), nil
}

// memActivity is a minimal ActivityStore.
type memActivity struct {
	mu       sync.Mutex
	sessions map[string]*model.ActiveSession
}

func newMemActivity() *memActivity { return &memActivity{sessions: map[string]*model.ActiveSession{}} }

func (a *memActivity) Record(ctx context.Context, sessionID, userID string, ev model.ActivityEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[sessionID]
	if !ok {
		s = &model.ActiveSession{SessionID: sessionID, UserID: userID, StartTime: ev.Timestamp}
		a.sessions[sessionID] = s
	}
	s.LastActivity = ev.Timestamp
	if ev.Kind == model.ActivityBotResponse {
		s.TurnCount++
	}
	s.Events = append(s.Events, ev)
	return nil
}

func (a *memActivity) End(ctx context.Context, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
	return nil
}

func (a *memActivity) Session(ctx context.Context, sessionID string) (*model.ActiveSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (a *memActivity) ByUser(ctx context.Context, userID string) ([]*model.ActiveSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*model.ActiveSession
	for _, s := range a.sessions {
		if s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (a *memActivity) All(ctx context.Context) ([]*model.ActiveSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*model.ActiveSession
	for _, s := range a.sessions {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (a *memActivity) PruneIdle(ctx context.Context, idleBefore int64) (int, error) {
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

// memReports collects saved reports.
type memReports struct {
	mu    sync.Mutex
	saved []*model.SessionReport
}

func (r *memReports) Save(ctx context.Context, tx repository.Tx, rep *model.SessionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rep
	r.saved = append(r.saved, &cp)
	return nil
}

func (r *memReports) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SessionReport
	for _, rep := range r.saved {
		if rep.UserID == userID {
			out = append(out, rep)
		}
	}
	return out, nil
}

// memLocker refuses a key that is already held.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) TryLock(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// fakeAI answers through func fields; nil fields use canned behaviour.
type fakeAI struct {
	provider string
	chatFn   func(messages []adapter.Message, opts adapter.GenerateOptions) (string, error)
	tokensFn func(messages []adapter.Message) int
	probeErr error

	mu    sync.Mutex
	calls [][]adapter.Message
	opts  []adapter.GenerateOptions
}

func (f *fakeAI) Provider() string {
	if f.provider == "" {
		return "fake"
	}
	return f.provider
}

func (f *fakeAI) Model() string { return "fake-model" }

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	if f.tokensFn != nil {
		return f.tokensFn(messages), nil
	}
	return len(messages), nil
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message, opts adapter.GenerateOptions) (string, adapter.Usage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]adapter.Message(nil), messages...))
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if f.chatFn != nil {
		s, err := f.chatFn(messages, opts)
		return s, adapter.Usage{}, err
	}
	return "ok", adapter.Usage{}, nil
}

func (f *fakeAI) Probe(ctx context.Context) error { return f.probeErr }

func (f *fakeAI) lastCall() []adapter.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}
