package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/tracker"
)

type EndType string

const (
	EndUserAction     EndType = model.EndUserAction
	EndInactivity     EndType = model.EndInactivity
	EndTaskCompletion EndType = model.EndTaskCompletion
)

func ParseEndType(s string) (EndType, error) {
	if model.ValidEndType(s) {
		return EndType(s), nil
	}
	return "", fmt.Errorf("session end type %q: %w", s, domain.ErrInvalidArgument)
}

// Session is one conversation window. It is active from construction until End.
type Session struct {
	id      string
	userID  string
	start   time.Time
	end     time.Time
	endType EndType
	metrics map[string]tracker.Record
	log     zerolog.Logger
}

func NewSession(userID string, start time.Time, log *zerolog.Logger) *Session {
	s := &Session{
		id:      uuid.NewString(),
		userID:  userID,
		start:   start,
		metrics: map[string]tracker.Record{},
		log:     zerolog.Nop(),
	}
	if log != nil {
		s.log = log.With().Str("session_id", s.id).Logger()
	}
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) UserID() string       { return s.userID }
func (s *Session) Start() time.Time     { return s.start }
func (s *Session) EndTime() time.Time   { return s.end }
func (s *Session) EndType() EndType     { return s.endType }
func (s *Session) IsActive() bool       { return !s.start.IsZero() && s.end.IsZero() }

// End stamps the end once. Ending an ended session changes nothing.
func (s *Session) End(t EndType, at time.Time) error {
	if !s.IsActive() {
		return domain.ErrSessionEnded
	}
	if _, err := ParseEndType(string(t)); err != nil {
		return err
	}
	if at.Before(s.start) {
		at = s.start
	}
	s.end = at
	s.endType = t
	return nil
}

// Duration is 0 while the session is active; callers must not read that as a
// zero-length session.
func (s *Session) Duration() time.Duration {
	if s.IsActive() {
		s.log.Warn().Msg("session duration requested before end")
		return 0
	}
	return s.end.Sub(s.start)
}

// SetMetric stores a tracker summary under the tracker's name.
func (s *Session) SetMetric(name string, r tracker.Record) {
	s.metrics[name] = r.Clone()
}

func (s *Session) Metric(name string) (tracker.Record, bool) {
	r, ok := s.metrics[name]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Report builds the /session payload. Times are integer milliseconds.
func (s *Session) Report() model.SessionReport {
	r := model.SessionReport{
		SessionID:      s.id,
		UserID:         s.userID,
		SessionStart:   s.start.UnixMilli(),
		SessionEndType: string(s.endType),
		Metrics:        make(map[string]map[string]any, len(s.metrics)),
	}
	if !s.IsActive() {
		r.SessionEnd = s.end.UnixMilli()
		r.SessionDuration = r.SessionEnd - r.SessionStart
	}
	for k, v := range s.metrics {
		r.Metrics[k] = map[string]any(v.Clone())
	}
	return r
}

// SessionFromReport rebuilds an ended session from its payload.
func SessionFromReport(r model.SessionReport) (*Session, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:      r.SessionID,
		userID:  r.UserID,
		start:   time.UnixMilli(r.SessionStart),
		metrics: make(map[string]tracker.Record, len(r.Metrics)),
		log:     zerolog.Nop(),
	}
	if r.SessionEndType != "" {
		et, err := ParseEndType(r.SessionEndType)
		if err != nil {
			return nil, err
		}
		s.end = time.UnixMilli(r.SessionEnd)
		s.endType = et
	}
	for k, v := range r.Metrics {
		s.metrics[k] = tracker.Record(v).Clone()
	}
	return s, nil
}
