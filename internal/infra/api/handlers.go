package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/infra/logging"
	"humaine-chatbot/internal/infra/metrics"
	"humaine-chatbot/internal/infra/security"
)

const maxBody = 1 << 20

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "HumAIne Chatbot API is running", "version": Version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Health.Health(r.Context()))
}

// ===== chat =====

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req model.InteractionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, "processing interaction", err)
		return
	}
	ctx := logging.WithSessID(logging.WithUserID(r.Context(), req.UserID), req.SessionID)
	if s.deps.Limiter != nil && req.UserID != "" {
		ok, err := s.deps.Limiter.Allow(ctx, "rate_limit:"+req.UserID+":interact")
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			metrics.IncRateLimitTriggered()
			writeError(w, s.log, "processing interaction", domain.ErrRateLimited)
			return
		}
	}
	resp, err := s.deps.Chat.Interact(ctx, req)
	if err != nil {
		writeError(w, logging.With(ctx, s.log), "processing interaction", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.FeedbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, "processing feedback", err)
		return
	}
	ctx := logging.WithSessID(logging.WithUserID(r.Context(), req.UserID), req.SessionID)
	resp, err := s.deps.Chat.Feedback(ctx, req)
	if err != nil {
		writeError(w, logging.With(ctx, s.log), "processing feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var rep model.SessionReport
	if err := decode(r, &rep); err != nil {
		writeError(w, s.log, "processing session", err)
		return
	}
	ctx := logging.WithSessID(logging.WithUserID(r.Context(), rep.UserID), rep.SessionID)
	resp, err := s.deps.Chat.EndSession(ctx, rep)
	if err != nil {
		writeError(w, logging.With(ctx, s.log), "processing session", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ===== profiles =====

type profileView struct {
	PreferredLanguageComplexity model.LanguageComplexity `json:"preferred_language_complexity"`
	PreferredDetailLevel        model.DetailLevel        `json:"preferred_detail_level"`
	PreferredResponseStyle      model.ResponseStyle      `json:"preferred_response_style"`
	AverageSessionDuration      float64                  `json:"average_session_duration"`
	AverageResponseTime         float64                  `json:"average_response_time"`
	AverageTypingSpeed          float64                  `json:"average_typing_speed"`
	AverageSentimentScore       float64                  `json:"average_sentiment_score"`
	AverageLanguageComplexity   float64                  `json:"average_language_complexity"`
	AverageGrammaticalAccuracy  float64                  `json:"average_grammatical_accuracy"`
	TotalSessions               int                      `json:"total_sessions"`
	AverageEngagementTime       float64                  `json:"average_engagement_time"`
	FeedbackRatio               float64                  `json:"feedback_ratio"`
	PositiveFeedbackRatio       float64                  `json:"positive_feedback_ratio"`
	CreatedAt                   time.Time                `json:"created_at"`
	UpdatedAt                   time.Time                `json:"updated_at"`
}

func viewOf(p *model.UserProfile) profileView {
	return profileView{
		PreferredLanguageComplexity: p.PreferredLanguageComplexity,
		PreferredDetailLevel:        p.PreferredDetailLevel,
		PreferredResponseStyle:      p.PreferredResponseStyle,
		AverageSessionDuration:      p.AverageSessionDuration,
		AverageResponseTime:         p.AverageResponseTime,
		AverageTypingSpeed:          p.AverageTypingSpeed,
		AverageSentimentScore:       p.AverageSentimentScore,
		AverageLanguageComplexity:   p.AverageLanguageComplexity,
		AverageGrammaticalAccuracy:  p.AverageGrammaticalAccuracy,
		TotalSessions:               p.TotalSessions,
		AverageEngagementTime:       p.AverageEngagementTime,
		FeedbackRatio:               p.FeedbackRatio,
		PositiveFeedbackRatio:       p.PositiveFeedbackRatio,
		CreatedAt:                   p.CreatedAt,
		UpdatedAt:                   p.UpdatedAt,
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	p, err := s.deps.Profiles.Get(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "User profile not found")
		return
	}
	if err != nil {
		writeError(w, s.log, "retrieving profile", err)
		return
	}
	insights, err := s.deps.Profiles.Insights(r.Context(), userID)
	if err != nil {
		writeError(w, s.log, "retrieving profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"profile":        viewOf(p),
		"insights":       insights,
		"session_count":  len(p.SessionHistory),
		"feedback_count": len(p.FeedbackHistory),
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	insights, err := s.deps.Profiles.Insights(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "No insights available for this user")
		return
	}
	if err != nil {
		writeError(w, s.log, "retrieving insights", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"insights":  insights,
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Profiles.Stats(r.Context())
	if err != nil {
		writeError(w, s.log, "retrieving profile stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "stats": stats, "timestamp": s.now().UTC()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Profiles.SaveAll(r.Context()); err != nil {
		writeError(w, s.log, "saving profiles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "All profiles saved successfully",
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.deps.Profiles.Delete(r.Context(), userID); err != nil {
		writeError(w, s.log, "deleting profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== activity metrics =====

func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	m, err := s.deps.Metrics.Engagement(r.Context(), userID)
	if err != nil {
		writeError(w, s.log, "retrieving engagement metrics", err)
		return
	}
	s.writeMetrics(w, userID, "engagement_metrics", m)
}

func (s *Server) handleBehavior(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	m, err := s.deps.Metrics.Behavior(r.Context(), userID)
	if err != nil {
		writeError(w, s.log, "retrieving behavior metrics", err)
		return
	}
	s.writeMetrics(w, userID, "behavior_metrics", m)
}

func (s *Server) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	m, err := s.deps.Metrics.Comprehensive(r.Context(), userID)
	if err != nil {
		writeError(w, s.log, "retrieving comprehensive metrics", err)
		return
	}
	s.writeMetrics(w, userID, "comprehensive_metrics", m)
}

func (s *Server) writeMetrics(w http.ResponseWriter, userID, key string, v any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"user_id":   userID,
		key:         v,
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.deps.Metrics.Overview(r.Context())
	if err != nil {
		writeError(w, s.log, "retrieving metrics overview", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"overview": o,
		"metrics_summary": map[string]any{
			"sessions_tracked":       o.TotalActiveSessions,
			"users_tracked":          o.TotalActiveUsers,
			"data_collection_active": true,
		},
		"timestamp": s.now().UTC(),
	})
}

// ===== admin session =====

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil || s.deps.AdminPassword == "" {
		writeDetail(w, http.StatusForbidden, "admin access is not configured")
		return
	}
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, "logging in", err)
		return
	}
	if !security.EqualSecret(req.Password, s.deps.AdminPassword) {
		logging.With(r.Context(), s.log).Warn().Msg("admin login rejected")
		writeDetail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tok, err := s.deps.Auth.Mint(w)
	if err != nil {
		writeError(w, s.log, "logging in", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok, "token_type": "bearer"})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth != nil {
		s.deps.Auth.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}
