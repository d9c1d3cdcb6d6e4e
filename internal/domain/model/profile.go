package model

import (
	"time"
)

type LanguageComplexity string

const (
	ComplexitySimple  LanguageComplexity = "simple"
	ComplexityMedium  LanguageComplexity = "medium"
	ComplexityComplex LanguageComplexity = "complex"
)

type ResponseStyle string

const (
	StyleConversational ResponseStyle = "conversational"
	StyleBalanced       ResponseStyle = "balanced"
	StyleProfessional   ResponseStyle = "professional"
	StyleEnthusiastic   ResponseStyle = "enthusiastic"
)

type DetailLevel string

const (
	DetailConcise  DetailLevel = "concise"
	DetailMedium   DetailLevel = "medium"
	DetailDetailed DetailLevel = "detailed"
)

// Up moves one step towards more detailed answers; detailed stays detailed.
func (d DetailLevel) Up() DetailLevel {
	switch d {
	case DetailConcise:
		return DetailMedium
	case DetailMedium:
		return DetailDetailed
	}
	return d
}

// Down moves one step towards shorter answers; concise stays concise.
func (d DetailLevel) Down() DetailLevel {
	switch d {
	case DetailDetailed:
		return DetailMedium
	case DetailMedium:
		return DetailConcise
	}
	return d
}

// FeedbackEntry is one feedback event kept in the profile history.
type FeedbackEntry struct {
	Type                  FeedbackType `json:"type"`
	Timestamp             time.Time    `json:"timestamp"`
	ResponseText          string       `json:"response_text"`
	ResponseDuration      int64        `json:"response_duration"`
	FeedbackDelayDuration int64        `json:"feedback_delay_duration"`
}

// SessionEntry is one finished client session kept in the profile history.
// Times are unix milliseconds as reported by the client.
type SessionEntry struct {
	SessionID      string    `json:"session_id"`
	StartTime      int64     `json:"start_time"`
	EndTime        int64     `json:"end_time"`
	Duration       int64     `json:"duration"`
	EndType        string    `json:"end_type"`
	EngagementTime float64   `json:"engagement_time"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// UserProfile is the per-user personalization record owned by the backend.
type UserProfile struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PreferredLanguageComplexity LanguageComplexity `json:"preferred_language_complexity"`
	PreferredResponseStyle      ResponseStyle      `json:"preferred_response_style"`
	PreferredDetailLevel        DetailLevel        `json:"preferred_detail_level"`

	AverageSessionDuration     float64 `json:"average_session_duration"`
	AverageResponseTime        float64 `json:"average_response_time"`
	AverageTypingSpeed         float64 `json:"average_typing_speed"`
	AverageSentimentScore      float64 `json:"average_sentiment_score"`
	AverageLanguageComplexity  float64 `json:"average_language_complexity"`
	AverageGrammaticalAccuracy float64 `json:"average_grammatical_accuracy"`
	AverageEngagementTime      float64 `json:"average_engagement_time"`
	TotalSessions              int     `json:"total_sessions"`
	TotalInteractions          int     `json:"total_interactions"`
	FeedbackRatio              float64 `json:"feedback_ratio"`
	PositiveFeedbackRatio      float64 `json:"positive_feedback_ratio"`

	SessionHistory       []SessionEntry        `json:"session_history"`
	FeedbackHistory      []FeedbackEntry       `json:"feedback_history"`
	CrossSessionInsights *CrossSessionInsights `json:"cross_session_insights,omitempty"`
}

func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:                      userID,
		CreatedAt:                   now,
		UpdatedAt:                   now,
		PreferredLanguageComplexity: ComplexityMedium,
		PreferredResponseStyle:      StyleConversational,
		PreferredDetailLevel:        DetailMedium,
		AverageGrammaticalAccuracy:  1.0,
		SessionHistory:              make([]SessionEntry, 0, 4),
		FeedbackHistory:             make([]FeedbackEntry, 0, 4),
	}
}

// HasSession reports whether a session report with this id was already applied.
func (p *UserProfile) HasSession(sessionID string) bool {
	for _, s := range p.SessionHistory {
		if s.SessionID == sessionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand out of a store.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.SessionHistory = append([]SessionEntry(nil), p.SessionHistory...)
	cp.FeedbackHistory = append([]FeedbackEntry(nil), p.FeedbackHistory...)
	if p.CrossSessionInsights != nil {
		ins := p.CrossSessionInsights.clone()
		cp.CrossSessionInsights = &ins
	}
	return &cp
}

// ProfileStats summarizes every stored profile.
type ProfileStats struct {
	TotalProfiles          int                        `json:"total_profiles"`
	TotalSessions          int                        `json:"total_sessions"`
	TotalFeedback          int                        `json:"total_feedback"`
	AverageSessionsPerUser float64                    `json:"average_sessions_per_user"`
	ComplexityDistribution map[LanguageComplexity]int `json:"complexity_distribution"`
	StyleDistribution      map[ResponseStyle]int      `json:"style_distribution"`
	DetailDistribution     map[DetailLevel]int        `json:"detail_distribution"`
}
