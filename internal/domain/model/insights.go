package model

import "time"

type TimingPatterns struct {
	AvgSessionDuration     float64        `json:"avg_session_duration"`
	TotalSessions          int            `json:"total_sessions"`
	SessionFrequencyPerDay float64        `json:"session_frequency_per_day"`
	TimePreferences        map[string]int `json:"time_preferences"`
	DurationConsistency    float64        `json:"duration_consistency"`
}

type EngagementPatterns struct {
	RecentEngagement      float64 `json:"recent_engagement"`
	EngagementTrend       string  `json:"engagement_trend"` // increasing | decreasing | stable
	EngagementLevel       string  `json:"engagement_level"` // high | medium | low
	SessionCompletionRate float64 `json:"session_completion_rate"`
}

type CommunicationPatterns struct {
	PreferredComplexity  LanguageComplexity `json:"preferred_complexity"`
	PreferredDetail      DetailLevel        `json:"preferred_detail"`
	PreferredStyle       ResponseStyle      `json:"preferred_style"`
	Consistency          float64            `json:"communication_consistency"`
	ExpertiseProgression string             `json:"expertise_progression"`
	AdaptabilityScore    float64            `json:"adaptability_score"`
}

type FeedbackPatterns struct {
	TotalFeedback       int     `json:"total_feedback"`
	PositiveRatio       float64 `json:"positive_ratio"`
	NegativeRatio       float64 `json:"negative_ratio"`
	AvgFeedbackDelay    float64 `json:"avg_feedback_delay"`
	FeedbackConsistency float64 `json:"feedback_consistency"`
	ImprovementPattern  string  `json:"improvement_pattern"`
	FeedbackEngagement  string  `json:"feedback_engagement"`
}

// CrossSessionInsights is derived from a profile's history after every update.
type CrossSessionInsights struct {
	Timing          *TimingPatterns        `json:"timing,omitempty"`
	Engagement      *EngagementPatterns    `json:"engagement,omitempty"`
	Communication   *CommunicationPatterns `json:"communication,omitempty"`
	Feedback        *FeedbackPatterns      `json:"feedback,omitempty"`
	Insights        []string               `json:"insights"`
	Recommendations []string               `json:"recommendations"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func (c CrossSessionInsights) clone() CrossSessionInsights {
	cp := c
	if c.Timing != nil {
		t := *c.Timing
		t.TimePreferences = make(map[string]int, len(c.Timing.TimePreferences))
		for k, v := range c.Timing.TimePreferences {
			t.TimePreferences[k] = v
		}
		cp.Timing = &t
	}
	if c.Engagement != nil {
		e := *c.Engagement
		cp.Engagement = &e
	}
	if c.Communication != nil {
		m := *c.Communication
		cp.Communication = &m
	}
	if c.Feedback != nil {
		f := *c.Feedback
		cp.Feedback = &f
	}
	cp.Insights = append([]string(nil), c.Insights...)
	cp.Recommendations = append([]string(nil), c.Recommendations...)
	return cp
}
