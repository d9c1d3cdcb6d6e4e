package memory

import (
	"context"
	"sync"
	"time"

	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.Locker = (*Locker)(nil)

// Locker is the single-process stand-in for the Redis lock. Entries expire
// after ttl so a crashed holder cannot block a key forever.
type Locker struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewLocker(ttl time.Duration) *Locker {
	return &Locker{held: map[string]time.Time{}, ttl: ttl, now: time.Now}
}

func (l *Locker) TryLock(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.held[key]; ok && (l.ttl <= 0 || now.Before(exp)) {
		return false, nil
	}
	l.held[key] = now.Add(l.ttl)
	return true, nil
}

func (l *Locker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
