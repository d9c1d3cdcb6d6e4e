package repository

import (
	"context"

	"humaine-chatbot/internal/domain/model"
)

// -----------------------------
// Conversation history
// -----------------------------

type HistoryStore interface {
	Append(ctx context.Context, sessionID, userID string, turns ...model.ChatTurn) error
	Recent(ctx context.Context, sessionID string, n int) ([]model.ChatTurn, error)
	Delete(ctx context.Context, sessionID string) error
	// Count is the number of conversations currently held.
	Count(ctx context.Context) (int, error)
}

// -----------------------------
// Live activity
// -----------------------------

type ActivityStore interface {
	Record(ctx context.Context, sessionID, userID string, ev model.ActivityEvent) error
	End(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*model.ActiveSession, error)
	ByUser(ctx context.Context, userID string) ([]*model.ActiveSession, error)
	All(ctx context.Context) ([]*model.ActiveSession, error)
	// PruneIdle drops sessions whose last activity is older than idleBefore (unix ms).
	PruneIdle(ctx context.Context, idleBefore int64) (int, error)
}

// -----------------------------
// Locks and limits
// -----------------------------

type Locker interface {
	// TryLock returns false when the key is already held.
	TryLock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
