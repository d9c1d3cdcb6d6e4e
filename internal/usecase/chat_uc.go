// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/infra/logging"
	"humaine-chatbot/internal/infra/metrics"
	"humaine-chatbot/internal/persona"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

const (
	AIFallbackReply  = "I'm sorry, I'm having trouble connecting to my AI service right now. Please try again later."
	FeedbackThanks   = "Thank you for your feedback!"
	SessionProcessed = "Session processed successfully"
)

type ChatUseCase interface {
	// Interact answers a prompt. A model failure is not an error: the reply
	// carries a fallback message and Success=false.
	Interact(ctx context.Context, req model.InteractionRequest) (model.ChatResponse, error)
	Feedback(ctx context.Context, req model.FeedbackRequest) (model.ChatResponse, error)
	EndSession(ctx context.Context, r model.SessionReport) (model.ChatResponse, error)
}

type ChatConfig struct {
	Model           string
	HistoryTurns    int
	MaxPromptTokens int
	CallTimeout     time.Duration
}

func (c *ChatConfig) defaults() {
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = 10
	}
	if c.MaxPromptTokens <= 0 {
		c.MaxPromptTokens = 3000
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 30 * time.Second
	}
}

type chatUC struct {
	cfg      ChatConfig
	profiles ProfileUseCase
	ai       adapter.AIServiceAdapter
	history  repository.HistoryStore
	activity repository.ActivityStore
	reports  repository.SessionReportRepository
	locker   repository.Locker
	now      func() time.Time

	log *zerolog.Logger
}

// NewChatUseCase wires the conversation flow. reports and locker may be nil.
func NewChatUseCase(cfg ChatConfig, profiles ProfileUseCase, ai adapter.AIServiceAdapter, history repository.HistoryStore,
	activity repository.ActivityStore, reports repository.SessionReportRepository, locker repository.Locker, logger *zerolog.Logger) *chatUC {
	cfg.defaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &chatUC{cfg: cfg, profiles: profiles, ai: ai, history: history, activity: activity,
		reports: reports, locker: locker, now: time.Now, log: logger}
}

func (c *chatUC) Interact(ctx context.Context, req model.InteractionRequest) (model.ChatResponse, error) {
	defer logging.TraceDuration(c.log, "chat.Interact")()
	if err := req.Validate(); err != nil {
		return model.ChatResponse{}, err
	}
	log := c.log.With().Str("user_id", req.UserID).Str("session_id", req.SessionID).Logger()

	c.record(ctx, req.SessionID, req.UserID, model.ActivityEvent{
		Kind:           model.ActivityPrompt,
		Timestamp:      c.stamp(req.InputSentTime),
		TypingDuration: req.TypingDuration(),
		MessageLength:  len([]rune(req.InputText)),
	})

	p, err := c.profiles.ApplyPrompt(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("profile update failed; answering with defaults")
	}
	prefs := persona.FromProfile(p)

	hist, err := c.history.Recent(ctx, req.SessionID, c.cfg.HistoryTurns)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		hist = nil
	}
	msgs := c.budget(ctx, persona.SystemPrompt(prefs), hist, req.InputText)

	reply, err := c.generate(ctx, msgs, persona.Options(prefs))
	if err != nil {
		log.Error().Err(err).Msg("model call failed")
		metrics.IncInteraction(false)
		return model.ChatResponse{Message: AIFallbackReply}, nil
	}

	now := c.now()
	if err := c.history.Append(ctx, req.SessionID, req.UserID,
		model.ChatTurn{Role: model.RoleUser, Content: req.InputText, Timestamp: now},
		model.ChatTurn{Role: model.RoleAssistant, Content: reply, Timestamp: now},
	); err != nil {
		log.Warn().Err(err).Msg("history append failed")
	}
	c.record(ctx, req.SessionID, req.UserID, model.ActivityEvent{Kind: model.ActivityBotResponse, Timestamp: now.UnixMilli()})
	metrics.IncInteraction(true)
	return model.ChatResponse{Message: reply, Success: true}, nil
}

// budget assembles system prompt, history and prompt, dropping the oldest
// history turns until the token count fits.
func (c *chatUC) budget(ctx context.Context, system string, hist []model.ChatTurn, prompt string) []adapter.Message {
	build := func(h []model.ChatTurn) []adapter.Message {
		msgs := make([]adapter.Message, 0, len(h)+2)
		msgs = append(msgs, adapter.Message{Role: model.RoleSystem, Content: system})
		for _, t := range h {
			msgs = append(msgs, adapter.Message{Role: t.Role, Content: t.Content})
		}
		return append(msgs, adapter.Message{Role: model.RoleUser, Content: prompt})
	}
	msgs := build(hist)
	for len(hist) > 0 {
		n, err := c.ai.CountTokens(ctx, c.cfg.Model, msgs)
		if err != nil || n <= c.cfg.MaxPromptTokens {
			break
		}
		hist = hist[1:]
		msgs = build(hist)
	}
	return msgs
}

func (c *chatUC) generate(ctx context.Context, msgs []adapter.Message, opts adapter.GenerateOptions) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	reply, _, err := c.ai.Chat(cctx, c.cfg.Model, msgs, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIUnavailable, err)
	}
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrAIUnavailable)
	}
	return reply, nil
}

func (c *chatUC) Feedback(ctx context.Context, req model.FeedbackRequest) (model.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return model.ChatResponse{}, err
	}
	c.record(ctx, req.SessionID, req.UserID, model.ActivityEvent{
		Kind:          model.ActivityFeedback,
		Timestamp:     c.stamp(req.FeedbackTime),
		FeedbackType:  req.FeedbackType,
		FeedbackDelay: req.FeedbackDelayDuration,
	})
	p, err := c.profiles.ApplyFeedback(ctx, req)
	if err != nil {
		return model.ChatResponse{}, err
	}
	metrics.IncFeedback(string(req.FeedbackType))
	if req.FeedbackType == model.FeedbackPositive {
		return model.ChatResponse{Message: FeedbackThanks, Success: true}, nil
	}

	prefs := persona.FromProfile(p)
	msgs := []adapter.Message{
		{Role: model.RoleSystem, Content: persona.SystemPrompt(prefs)},
		{Role: model.RoleUser, Content: persona.RemediationPrompt(req.ResponseText)},
	}
	reply, err := c.generate(ctx, msgs, persona.Options(prefs))
	if err != nil {
		c.log.Error().Err(err).Str("user_id", req.UserID).Msg("remediation failed")
		return model.ChatResponse{Message: AIFallbackReply}, nil
	}
	if err := c.history.Append(ctx, req.SessionID, req.UserID,
		model.ChatTurn{Role: model.RoleAssistant, Content: reply, Timestamp: c.now()}); err != nil {
		c.log.Warn().Err(err).Msg("history append failed")
	}
	return model.ChatResponse{Message: reply, Success: true}, nil
}

func (c *chatUC) EndSession(ctx context.Context, r model.SessionReport) (model.ChatResponse, error) {
	if err := r.Validate(); err != nil {
		return model.ChatResponse{}, err
	}
	if c.locker != nil {
		key := "session:" + r.SessionID
		ok, err := c.locker.TryLock(ctx, key)
		if err != nil {
			c.log.Warn().Err(err).Str("session_id", r.SessionID).Msg("session lock unavailable")
		} else if !ok {
			return model.ChatResponse{}, fmt.Errorf("session %s is being processed: %w", r.SessionID, domain.ErrAlreadyExists)
		} else {
			defer func() {
				if err := c.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
					c.log.Warn().Err(err).Str("session_id", r.SessionID).Msg("session unlock failed")
				}
			}()
		}
	}

	c.record(ctx, r.SessionID, r.UserID, model.ActivityEvent{Kind: model.ActivitySession, Timestamp: c.stamp(r.SessionEnd)})
	applied, err := c.profiles.ApplySession(ctx, r)
	if err != nil {
		return model.ChatResponse{}, err
	}
	if applied {
		metrics.IncSession(r.SessionEndType)
	}
	if applied && c.reports != nil {
		if err := c.reports.Save(ctx, repository.NoTX, &r); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			c.log.Warn().Err(err).Str("session_id", r.SessionID).Msg("session report not persisted")
		}
	}
	if err := c.history.Delete(ctx, r.SessionID); err != nil {
		c.log.Warn().Err(err).Str("session_id", r.SessionID).Msg("history delete failed")
	}
	if err := c.activity.End(ctx, r.SessionID); err != nil {
		c.log.Warn().Err(err).Str("session_id", r.SessionID).Msg("activity end failed")
	}
	return model.ChatResponse{Message: SessionProcessed, Success: true}, nil
}

func (c *chatUC) record(ctx context.Context, sessionID, userID string, ev model.ActivityEvent) {
	if err := c.activity.Record(ctx, sessionID, userID, ev); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Str("kind", string(ev.Kind)).Msg("activity not recorded")
	}
}

// stamp prefers the client's timestamp and falls back to the server clock.
func (c *chatUC) stamp(clientMs int64) int64 {
	if clientMs > 0 {
		return clientMs
	}
	return c.now().UnixMilli()
}
