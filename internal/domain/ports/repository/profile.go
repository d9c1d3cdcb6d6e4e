package repository

import (
	"context"

	"humaine-chatbot/internal/domain/model"
)

// -----------------------------
// Profiles
// -----------------------------

// MutateFunc edits a profile in place. It receives a fresh profile when the
// user has none yet. Returning an error aborts the update.
type MutateFunc func(p *model.UserProfile) error

type ProfileRepository interface {
	// Mutate runs fn against the stored profile of userID and persists the
	// result atomically with respect to other Mutate calls for the same user.
	Mutate(ctx context.Context, userID string, fn MutateFunc) (*model.UserProfile, error)
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.UserProfile, error)
	Save(ctx context.Context, tx Tx, p *model.UserProfile) error
	Delete(ctx context.Context, tx Tx, userID string) error
	List(ctx context.Context, tx Tx) ([]*model.UserProfile, error)
}

// SessionReportRepository keeps the raw reports received on /session.
type SessionReportRepository interface {
	Save(ctx context.Context, tx Tx, r *model.SessionReport) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.SessionReport, error)
}

// ProfileSnapshotter is implemented by stores that keep profiles in memory
// and can flush them to durable storage on demand.
type ProfileSnapshotter interface {
	Snapshot(ctx context.Context) error
}
