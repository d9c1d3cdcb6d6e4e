package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"humaine-chatbot/internal/domain"
)

type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

func ParseFeedbackType(s string) (FeedbackType, error) {
	switch FeedbackType(strings.ToLower(strings.TrimSpace(s))) {
	case FeedbackPositive:
		return FeedbackPositive, nil
	case FeedbackNegative:
		return FeedbackNegative, nil
	}
	return "", fmt.Errorf("feedback type %q: %w", s, domain.ErrInvalidArgument)
}

// InteractionRequest is the body of POST /interact. Times are unix milliseconds.
type InteractionRequest struct {
	SessionID      string                    `json:"session_id"`
	UserID         string                    `json:"user_id"`
	InputText      string                    `json:"input_text"`
	InputStartTime int64                     `json:"input_start_time"`
	InputEndTime   int64                     `json:"input_end_time"`
	InputSentTime  int64                     `json:"input_sent_time"`
	Metrics        map[string]map[string]any `json:"metrics,omitempty"`
}

func (r InteractionRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" || strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("session_id and user_id are required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(r.InputText) == "" {
		return fmt.Errorf("input_text is required: %w", domain.ErrInvalidArgument)
	}
	return nil
}

// TypingDuration is the time between the first and the last keystroke.
func (r InteractionRequest) TypingDuration() int64 {
	return r.InputEndTime - r.InputStartTime
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	SessionID             string       `json:"session_id"`
	UserID                string       `json:"user_id"`
	ResponseText          string       `json:"response_text"`
	ResponseStartTime     int64        `json:"response_start_time"`
	ResponseEndTime       int64        `json:"response_end_time"`
	ResponseDuration      int64        `json:"response_duration"`
	FeedbackType          FeedbackType `json:"feedback_type"`
	FeedbackTime          int64        `json:"feedback_time"`
	FeedbackDelayDuration int64        `json:"feedback_delay_duration"`
}

func (r FeedbackRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" || strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("session_id and user_id are required: %w", domain.ErrInvalidArgument)
	}
	_, err := ParseFeedbackType(string(r.FeedbackType))
	return err
}

// SessionReport is the body of POST /session. Per-tracker aggregates travel as
// top-level objects keyed by tracker name next to the fixed session fields.
type SessionReport struct {
	SessionID       string
	UserID          string
	SessionStart    int64
	SessionEnd      int64
	SessionEndType  string
	SessionDuration int64
	Metrics         map[string]map[string]any
}

var reportFields = map[string]struct{}{
	"session_id": {}, "user_id": {}, "session_start": {}, "session_end": {},
	"session_end_type": {}, "session_duration": {},
}

func (r SessionReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(reportFields)+len(r.Metrics))
	for name, rec := range r.Metrics {
		if _, clash := reportFields[name]; clash {
			continue
		}
		out[name] = rec
	}
	out["session_id"] = r.SessionID
	out["user_id"] = r.UserID
	out["session_start"] = r.SessionStart
	out["session_end"] = r.SessionEnd
	out["session_end_type"] = r.SessionEndType
	out["session_duration"] = r.SessionDuration
	return json.Marshal(out)
}

func (r *SessionReport) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var fixed struct {
		SessionID       string `json:"session_id"`
		UserID          string `json:"user_id"`
		SessionStart    int64  `json:"session_start"`
		SessionEnd      int64  `json:"session_end"`
		SessionEndType  string `json:"session_end_type"`
		SessionDuration int64  `json:"session_duration"`
	}
	if err := json.Unmarshal(b, &fixed); err != nil {
		return err
	}
	r.SessionID = fixed.SessionID
	r.UserID = fixed.UserID
	r.SessionStart = fixed.SessionStart
	r.SessionEnd = fixed.SessionEnd
	r.SessionEndType = fixed.SessionEndType
	r.SessionDuration = fixed.SessionDuration
	r.Metrics = map[string]map[string]any{}
	for k, v := range raw {
		if _, ok := reportFields[k]; ok {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(v, &rec); err != nil {
			// not an object: ignore unknown scalar fields
			continue
		}
		r.Metrics[k] = rec
	}
	return nil
}

// Session end types as sent on the wire.
const (
	EndUserAction     = "userAction"
	EndInactivity     = "inactivity"
	EndTaskCompletion = "taskCompletion"
)

func ValidEndType(s string) bool {
	switch s {
	case EndUserAction, EndInactivity, EndTaskCompletion:
		return true
	}
	return false
}

func (r SessionReport) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" || strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("session_id and user_id are required: %w", domain.ErrInvalidArgument)
	}
	if !ValidEndType(r.SessionEndType) {
		return fmt.Errorf("session end type %q: %w", r.SessionEndType, domain.ErrInvalidArgument)
	}
	if r.SessionEnd < r.SessionStart {
		return fmt.Errorf("session_end before session_start: %w", domain.ErrInvalidArgument)
	}
	return nil
}

// MetricValue returns a numeric aggregate such as ("engagement", "engagement_time").
func (r SessionReport) MetricValue(tracker, key string) (float64, bool) {
	rec, ok := r.Metrics[tracker]
	if !ok {
		return 0, false
	}
	return Number(rec[key])
}

// Number converts decoded JSON numbers (and Go numeric types) to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ChatResponse is returned by /interact, /feedback and /session.
type ChatResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

const (
	AIStatusConnected    = "connected"
	AIStatusError        = "error"
	AIStatusDisconnected = "disconnected"
)

type AIStatus struct {
	Status        string    `json:"status"`
	Provider      string    `json:"provider,omitempty"`
	Model         string    `json:"model,omitempty"`
	APIKeyPresent bool      `json:"api_key_present"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type HealthStatus struct {
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	OpenAI              AIStatus  `json:"openai"`
	ActiveConversations int       `json:"active_conversations"`
	Version             string    `json:"version"`
}
