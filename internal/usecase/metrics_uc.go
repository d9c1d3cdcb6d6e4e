package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

// Compile-time check
var _ MetricsUseCase = (*metricsUC)(nil)

// MetricsUseCase reads the live activity of client sessions.
type MetricsUseCase interface {
	Engagement(ctx context.Context, userID string) (*model.EngagementMetrics, error)
	Behavior(ctx context.Context, userID string) (*model.BehaviorAnalysis, error)
	Comprehensive(ctx context.Context, userID string) (*model.ComprehensiveMetrics, error)
	Overview(ctx context.Context) (*model.MetricsOverview, error)
}

type metricsUC struct {
	activity repository.ActivityStore
	now      func() time.Time

	log *zerolog.Logger
}

func NewMetricsUseCase(activity repository.ActivityStore, logger *zerolog.Logger) *metricsUC {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &metricsUC{activity: activity, now: time.Now, log: logger}
}

func (m *metricsUC) Engagement(ctx context.Context, userID string) (*model.EngagementMetrics, error) {
	sessions, err := m.activity.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return engagement(userID, sessions, m.now()), nil
}

func engagement(userID string, sessions []*model.ActiveSession, now time.Time) *model.EngagementMetrics {
	out := &model.EngagementMetrics{UserID: userID, ActiveSessions: len(sessions)}
	nowMs := now.UnixMilli()
	dayAgo := now.Add(-24 * time.Hour).UnixMilli()
	for _, s := range sessions {
		if s.LastActivity > out.LastActivity {
			out.LastActivity = s.LastActivity
		}
		out.SessionDuration += nowMs - s.StartTime
		for _, ev := range s.Events {
			if ev.Timestamp > dayAgo {
				out.TotalTurnsToday++
			}
		}
	}

	score := min(float64(len(sessions))*20, 100)
	if out.LastActivity > 0 {
		switch idle := time.Duration(nowMs-out.LastActivity) * time.Millisecond; {
		case idle < 5*time.Minute:
			score += 20
		case idle < 30*time.Minute:
			score += 10
		}
	}
	switch {
	case out.TotalTurnsToday > 10:
		score += 20
	case out.TotalTurnsToday > 5:
		score += 10
	}
	out.EngagementScore = min(score, 100)
	return out
}

func (m *metricsUC) Behavior(ctx context.Context, userID string) (*model.BehaviorAnalysis, error) {
	sessions, err := m.activity.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return behavior(userID, sessions), nil
}

func behavior(userID string, sessions []*model.ActiveSession) *model.BehaviorAnalysis {
	var typing []int64
	var lengths []int
	for _, s := range sessions {
		for _, ev := range s.Events {
			if ev.Kind != model.ActivityPrompt {
				continue
			}
			if ev.TypingDuration > 0 {
				typing = append(typing, ev.TypingDuration)
			}
			if ev.MessageLength > 0 {
				lengths = append(lengths, ev.MessageLength)
			}
		}
	}
	out := &model.BehaviorAnalysis{UserID: userID, Anomalies: []model.Anomaly{}}
	if len(typing) == 0 {
		return out
	}

	lo, hi, sum := typing[0], typing[0], int64(0)
	for _, d := range typing {
		lo, hi, sum = min(lo, d), max(hi, d), sum+d
	}
	avg := float64(sum) / float64(len(typing))
	tp := &model.TypingPatterns{
		AverageTypingDuration: avg,
		FastestTyping:         lo,
		SlowestTyping:         hi,
		TypingConsistency:     1 - float64(hi-lo)/float64(hi),
	}
	if len(lengths) > 0 {
		short, long, total := lengths[0], lengths[0], 0
		uniq := map[int]struct{}{}
		for _, n := range lengths {
			short, long, total = min(short, n), max(long, n), total+n
			uniq[n] = struct{}{}
		}
		tp.MessageLengths = &model.MessageLengthStats{
			AverageLength:     float64(total) / float64(len(lengths)),
			ShortestMessage:   short,
			LongestMessage:    long,
			LengthVariability: float64(len(uniq)) / float64(len(lengths)),
		}
	}
	out.TypingPatterns = tp

	for i, d := range typing {
		if float64(d) > avg*3 {
			out.Anomalies = append(out.Anomalies, model.Anomaly{Type: "slow_typing", Index: i, Duration: d, Expected: avg})
		}
	}
	return out
}

func (m *metricsUC) Comprehensive(ctx context.Context, userID string) (*model.ComprehensiveMetrics, error) {
	sessions, err := m.activity.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := m.now()
	return &model.ComprehensiveMetrics{
		UserID:    userID,
		Timestamp: now,
		RealTime:  *engagement(userID, sessions, now),
		Behavior:  *behavior(userID, sessions),
		Summary:   summarize(sessions),
	}, nil
}

func summarize(sessions []*model.ActiveSession) model.MetricsSummary {
	s := model.MetricsSummary{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return s
	}
	var dur int64
	feedback, positive := 0, 0
	for _, sess := range sessions {
		s.TotalInteractions += len(sess.Events)
		dur += sess.LastActivity - sess.StartTime
		for _, ev := range sess.Events {
			if ev.Kind != model.ActivityFeedback {
				continue
			}
			feedback++
			if ev.FeedbackType == model.FeedbackPositive {
				positive++
			}
		}
	}
	s.AverageSessionDuration = float64(dur) / float64(len(sessions))
	if s.TotalInteractions > 0 {
		s.FeedbackRatio = float64(feedback) / float64(s.TotalInteractions)
	}
	if feedback > 0 {
		s.PositiveFeedbackRatio = float64(positive) / float64(feedback)
	}
	return s
}

func (m *metricsUC) Overview(ctx context.Context) (*model.MetricsOverview, error) {
	all, err := m.activity.All(ctx)
	if err != nil {
		return nil, err
	}
	users := map[string]struct{}{}
	for _, s := range all {
		users[s.UserID] = struct{}{}
	}
	return &model.MetricsOverview{
		TotalActiveUsers:    len(users),
		TotalActiveSessions: len(all),
		SystemHealth:        "healthy",
	}, nil
}
