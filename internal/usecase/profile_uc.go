package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/infra/metrics"
	"humaine-chatbot/internal/textanalysis"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

// ProfileUseCase owns every change to a user profile. Updates for the same
// user are serialized by the repository's Mutate.
type ProfileUseCase interface {
	ApplyPrompt(ctx context.Context, req model.InteractionRequest) (*model.UserProfile, error)
	ApplyFeedback(ctx context.Context, req model.FeedbackRequest) (*model.UserProfile, error)
	// ApplySession reports applied=false when the session id was already recorded.
	ApplySession(ctx context.Context, r model.SessionReport) (applied bool, err error)
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Insights(ctx context.Context, userID string) (*model.CrossSessionInsights, error)
	Stats(ctx context.Context) (*model.ProfileStats, error)
	Delete(ctx context.Context, userID string) error
	SaveAll(ctx context.Context) error
}

type profileUC struct {
	repo     repository.ProfileRepository
	analyzer *textanalysis.Analyzer
	now      func() time.Time

	log *zerolog.Logger
}

func NewProfileUseCase(repo repository.ProfileRepository, analyzer *textanalysis.Analyzer, logger *zerolog.Logger) *profileUC {
	if analyzer == nil {
		analyzer = textanalysis.NewAnalyzer(nil)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &profileUC{repo: repo, analyzer: analyzer, now: time.Now, log: logger}
}

var errSeenSession = fmt.Errorf("session already recorded: %w", domain.ErrAlreadyExists)

func (u *profileUC) ApplyPrompt(ctx context.Context, req model.InteractionRequest) (*model.UserProfile, error) {
	a := u.analyzer.Analyze(req.InputText)
	return u.mutate(ctx, req.UserID, "prompt", func(p *model.UserProfile) error {
		applyPrompt(p, a, req, u.now())
		return nil
	})
}

func (u *profileUC) ApplyFeedback(ctx context.Context, req model.FeedbackRequest) (*model.UserProfile, error) {
	if _, err := model.ParseFeedbackType(string(req.FeedbackType)); err != nil {
		return nil, err
	}
	return u.mutate(ctx, req.UserID, "feedback", func(p *model.UserProfile) error {
		applyFeedback(p, req, u.now())
		return nil
	})
}

func (u *profileUC) ApplySession(ctx context.Context, r model.SessionReport) (bool, error) {
	_, err := u.mutate(ctx, r.UserID, "session", func(p *model.UserProfile) error {
		if p.HasSession(r.SessionID) {
			return errSeenSession
		}
		applySession(p, r, u.now())
		return nil
	})
	if errors.Is(err, errSeenSession) {
		metrics.IncProfileUpdate("session", "duplicate")
		u.log.Debug().Str("user_id", r.UserID).Str("session_id", r.SessionID).Msg("session already applied")
		return false, nil
	}
	return err == nil, err
}

func (u *profileUC) mutate(ctx context.Context, userID, kind string, fn repository.MutateFunc) (*model.UserProfile, error) {
	p, err := u.repo.Mutate(ctx, userID, func(p *model.UserProfile) error {
		if err := fn(p); err != nil {
			return err
		}
		p.CrossSessionInsights = computeInsights(p, u.now())
		return nil
	})
	if err != nil {
		if !errors.Is(err, errSeenSession) {
			metrics.IncProfileUpdate(kind, "error")
		}
		return nil, err
	}
	metrics.IncProfileUpdate(kind, "ok")
	u.log.Debug().Str("user_id", userID).Str("update", kind).
		Str("complexity", string(p.PreferredLanguageComplexity)).
		Str("style", string(p.PreferredResponseStyle)).
		Str("detail", string(p.PreferredDetailLevel)).
		Msg("profile updated")
	return p, nil
}

func (u *profileUC) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	return u.repo.FindByUserID(ctx, repository.NoTX, userID)
}

func (u *profileUC) Insights(ctx context.Context, userID string) (*model.CrossSessionInsights, error) {
	p, err := u.repo.FindByUserID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if p.CrossSessionInsights == nil {
		return computeInsights(p, u.now()), nil
	}
	return p.CrossSessionInsights, nil
}

func (u *profileUC) Stats(ctx context.Context) (*model.ProfileStats, error) {
	all, err := u.repo.List(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	st := &model.ProfileStats{
		TotalProfiles:          len(all),
		ComplexityDistribution: map[model.LanguageComplexity]int{},
		StyleDistribution:      map[model.ResponseStyle]int{},
		DetailDistribution:     map[model.DetailLevel]int{},
	}
	for _, p := range all {
		st.TotalSessions += p.TotalSessions
		st.TotalFeedback += len(p.FeedbackHistory)
		st.ComplexityDistribution[p.PreferredLanguageComplexity]++
		st.StyleDistribution[p.PreferredResponseStyle]++
		st.DetailDistribution[p.PreferredDetailLevel]++
	}
	if len(all) > 0 {
		st.AverageSessionsPerUser = float64(st.TotalSessions) / float64(len(all))
	}
	return st, nil
}

func (u *profileUC) Delete(ctx context.Context, userID string) error {
	return u.repo.Delete(ctx, repository.NoTX, userID)
}

// SaveAll flushes in-memory stores; durable backends persist on every update.
func (u *profileUC) SaveAll(ctx context.Context) error {
	if s, ok := u.repo.(repository.ProfileSnapshotter); ok {
		return s.Snapshot(ctx)
	}
	return nil
}
