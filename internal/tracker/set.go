package tracker

import (
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/textanalysis"
)

type SetConfig struct {
	Clock         Clock
	IdleThreshold time.Duration
	Alpha, Beta   float64
	Speller       textanalysis.Speller
	Logger        *zerolog.Logger
}

// Set holds the trackers of one conversation.
type Set struct {
	Sentiment    *SentimentTracker
	Grammar      *GrammarTracker
	Complexity   *LanguageComplexityTracker
	TypingSpeed  *TypingSpeedTracker
	ResponseTime *ResponseTimeTracker
	Engagement   *EngagementTracker
	Feedback     *FeedbackTracker
}

func NewSet(cfg SetConfig) *Set {
	var opts []Option
	if cfg.Logger != nil {
		opts = append(opts, WithLogger(cfg.Logger))
	}
	if cfg.Alpha == 0 && cfg.Beta == 0 {
		cfg.Alpha, cfg.Beta = DefaultAlpha, DefaultBeta
	}
	return &Set{
		Sentiment:    NewSentimentTracker(opts...),
		Grammar:      NewGrammarTracker(cfg.Speller, opts...),
		Complexity:   NewLanguageComplexityTracker(cfg.Alpha, cfg.Beta, opts...),
		TypingSpeed:  NewTypingSpeedTracker(opts...),
		ResponseTime: NewResponseTimeTracker(cfg.Clock, opts...),
		Engagement:   NewEngagementTracker(cfg.Clock, cfg.IdleThreshold, opts...),
		Feedback:     NewFeedbackTracker(opts...),
	}
}

// Freeze summarizes every tracker for the session report. Per-message series
// contribute their averages and are left out when empty.
func (s *Set) Freeze(sessionDuration time.Duration) map[string]Record {
	out := map[string]Record{
		NameEngagement: s.Engagement.Summarize(sessionDuration),
		NameFeedback:   s.Feedback.Summarize(),
	}
	for _, m := range []*MetricTracker{
		s.Sentiment.MetricTracker,
		s.Grammar.MetricTracker,
		s.Complexity.MetricTracker,
		s.TypingSpeed.MetricTracker,
		s.ResponseTime.MetricTracker,
	} {
		if m.Len() > 0 {
			out[m.Name()] = m.Average()
		}
	}
	return out
}

func (s *Set) Reset() {
	s.Sentiment.Reset()
	s.Grammar.Reset()
	s.Complexity.Reset()
	s.TypingSpeed.Reset()
	s.ResponseTime.Reset()
	s.Engagement.Reset()
	s.Feedback.Reset()
}
