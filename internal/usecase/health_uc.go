package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/domain/ports/repository"
)

const Version = "1.0.0"

// Compile-time check
var _ HealthUseCase = (*healthUC)(nil)

type HealthUseCase interface {
	Health(ctx context.Context) model.HealthStatus
}

type healthUC struct {
	ai            adapter.AIServiceAdapter
	history       repository.HistoryStore
	apiKeyPresent bool
	probeTimeout  time.Duration
	now           func() time.Time

	log *zerolog.Logger
}

func NewHealthUseCase(ai adapter.AIServiceAdapter, history repository.HistoryStore, apiKeyPresent bool, logger *zerolog.Logger) *healthUC {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &healthUC{ai: ai, history: history, apiKeyPresent: apiKeyPresent, probeTimeout: 10 * time.Second, now: time.Now, log: logger}
}

func (h *healthUC) Health(ctx context.Context) model.HealthStatus {
	now := h.now()
	st := model.HealthStatus{Status: "healthy", Timestamp: now, Version: Version}
	st.OpenAI = h.aiStatus(ctx, now)
	n, err := h.history.Count(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("conversation count unavailable")
	}
	st.ActiveConversations = n
	return st
}

func (h *healthUC) aiStatus(ctx context.Context, now time.Time) model.AIStatus {
	s := model.AIStatus{
		Provider:      h.ai.Provider(),
		Model:         h.ai.Model(),
		APIKeyPresent: h.apiKeyPresent,
		Timestamp:     now,
	}
	if s.Provider == "mock" {
		s.Status = model.AIStatusDisconnected
		return s
	}
	cctx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()
	if err := h.ai.Probe(cctx); err != nil {
		s.Status = model.AIStatusError
		s.Error = err.Error()
		return s
	}
	s.Status = model.AIStatusConnected
	return s
}
