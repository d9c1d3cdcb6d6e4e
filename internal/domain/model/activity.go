package model

import "time"

type ActivityKind string

const (
	ActivityPrompt      ActivityKind = "user_prompt"
	ActivityBotResponse ActivityKind = "bot_response"
	ActivityFeedback    ActivityKind = "feedback"
	ActivitySession     ActivityKind = "session"
)

// ActivityEvent is one server-side observation inside a client session.
// Timestamps are unix milliseconds.
type ActivityEvent struct {
	Kind           ActivityKind `json:"type"`
	Timestamp      int64        `json:"timestamp"`
	TypingDuration int64        `json:"typing_duration,omitempty"`
	MessageLength  int          `json:"message_length,omitempty"`
	FeedbackType   FeedbackType `json:"feedback_type,omitempty"`
	FeedbackDelay  int64        `json:"feedback_delay_duration,omitempty"`
}

// ActiveSession is the live view of a client session the backend has heard about.
type ActiveSession struct {
	SessionID    string          `json:"session_id"`
	UserID       string          `json:"user_id"`
	StartTime    int64           `json:"start_time"`
	LastActivity int64           `json:"last_activity"`
	TurnCount    int             `json:"turn_count"`
	Events       []ActivityEvent `json:"events"`
}

func (s *ActiveSession) Clone() *ActiveSession {
	cp := *s
	cp.Events = append([]ActivityEvent(nil), s.Events...)
	return &cp
}

type EngagementMetrics struct {
	UserID          string  `json:"user_id"`
	ActiveSessions  int     `json:"active_sessions"`
	TotalTurnsToday int     `json:"total_turns_today"`
	EngagementScore float64 `json:"engagement_score"`
	LastActivity    int64   `json:"last_activity"`
	SessionDuration int64   `json:"session_duration"`
}

type MessageLengthStats struct {
	AverageLength     float64 `json:"average_length"`
	ShortestMessage   int     `json:"shortest_message"`
	LongestMessage    int     `json:"longest_message"`
	LengthVariability float64 `json:"length_variability"`
}

type TypingPatterns struct {
	AverageTypingDuration float64             `json:"average_typing_duration"`
	FastestTyping         int64               `json:"fastest_typing"`
	SlowestTyping         int64               `json:"slowest_typing"`
	TypingConsistency     float64             `json:"typing_consistency"`
	MessageLengths        *MessageLengthStats `json:"message_lengths,omitempty"`
}

type Anomaly struct {
	Type     string  `json:"type"`
	Index    int     `json:"index"`
	Duration int64   `json:"duration"`
	Expected float64 `json:"expected"`
}

type BehaviorAnalysis struct {
	UserID         string          `json:"user_id"`
	TypingPatterns *TypingPatterns `json:"typing_patterns,omitempty"`
	Anomalies      []Anomaly       `json:"anomalies"`
}

type MetricsSummary struct {
	TotalSessions          int     `json:"total_sessions"`
	TotalInteractions      int     `json:"total_interactions"`
	AverageSessionDuration float64 `json:"average_session_duration"`
	FeedbackRatio          float64 `json:"feedback_ratio"`
	PositiveFeedbackRatio  float64 `json:"positive_feedback_ratio"`
}

type ComprehensiveMetrics struct {
	UserID    string            `json:"user_id"`
	Timestamp time.Time         `json:"timestamp"`
	RealTime  EngagementMetrics `json:"real_time"`
	Behavior  BehaviorAnalysis  `json:"behavior"`
	Summary   MetricsSummary    `json:"summary"`
}

type MetricsOverview struct {
	TotalActiveUsers    int    `json:"total_active_users"`
	TotalActiveSessions int    `json:"total_active_sessions"`
	SystemHealth        string `json:"system_health"`
}
