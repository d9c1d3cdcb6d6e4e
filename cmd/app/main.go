// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"humaine-chatbot/internal/config"
	aiAdapters "humaine-chatbot/internal/infra/adapters/ai"
	tele "humaine-chatbot/internal/infra/adapters/telegram"
	"humaine-chatbot/internal/infra/api"
	"humaine-chatbot/internal/infra/i18n"
	"humaine-chatbot/internal/infra/logging"
	"humaine-chatbot/internal/infra/metrics"
	"humaine-chatbot/internal/infra/sched"
	"humaine-chatbot/internal/textanalysis"
	"humaine-chatbot/internal/usecase"
)

// Set with -ldflags "-X main.commit=...".
var commit = "dev"

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, default API key")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("backend stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(usecase.Version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	logger.Info().Str("api_key", logging.Redact(cfg.Auth.APIKey, cfg.Runtime.Dev)).
		Bool("admin", cfg.Auth.AdminPassword != "").Msg("starting backend")

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ai, err := aiAdapters.New(ctx, cfg.AI, logging.Component(logger, "ai"))
	if err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	logger.Info().Str("provider", ai.Provider()).Str("model", ai.Model()).Msg("AI adapter ready")

	// ---- Use cases ----
	profileUC := usecase.NewProfileUseCase(st.profiles, textanalysis.NewAnalyzer(textanalysis.LexiconSpeller{}), logging.Component(logger, "profiles"))
	chatUC := usecase.NewChatUseCase(usecase.ChatConfig{
		HistoryTurns:    cfg.AI.HistoryTurns,
		MaxPromptTokens: cfg.AI.MaxPromptTokens,
		CallTimeout:     cfg.AI.CallTimeout,
	}, profileUC, ai, st.history, st.activity, st.reports, st.locker, logging.Component(logger, "chat"))
	metricsUC := usecase.NewMetricsUseCase(st.activity, logging.Component(logger, "metrics"))
	healthUC := usecase.NewHealthUseCase(ai, st.history, cfg.AI.OpenAIKey != "" || cfg.AI.GeminiKey != "", logging.Component(logger, "health"))

	var auth *api.AuthManager
	if cfg.Auth.AdminPassword != "" {
		auth = api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	}
	srv := api.NewServer(cfg.Server, api.Deps{
		Chat:          chatUC,
		Profiles:      profileUC,
		Metrics:       metricsUC,
		Health:        healthUC,
		Limiter:       st.limiter,
		Auth:          auth,
		APIKey:        cfg.Auth.APIKey,
		AdminPassword: cfg.Auth.AdminPassword,
	}, logger)

	// ---- Telegram ----
	var (
		bot   *tele.RealTelegramBotAdapter
		front *tele.Frontend
	)
	if cfg.Bot.Token != "" {
		tr, err := i18n.Embedded(cfg.Bot.Locale)
		if err != nil {
			return fmt.Errorf("i18n: %w", err)
		}
		bot, err = tele.NewRealTelegramBotAdapter(cfg.Bot, st.limiter, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		front = tele.NewFrontend(usecase.NewLocalChatService(chatUC), bot, tr, tele.FrontendConfig{
			InactivityLimit: cfg.Bot.InactivityLimit,
			CallTimeout:     cfg.AI.CallTimeout + 5*time.Second,
			RetireAfter:     cfg.Bot.RetireAfter,
		}, logger)
	}

	// ---- Background workers ----
	// A failing server or worker cancels gctx and stops the rest.
	eg, gctx := errgroup.WithContext(ctx)
	goRun := func(name string, fn func(context.Context) error) {
		eg.Go(func() error {
			err := fn(gctx)
			if err == nil || gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: %w", name, err)
		})
	}
	goRun("activity_pruner", sched.NewActivityPruner(cfg.Workers.PruneInterval, cfg.Workers.IdleAfter, st.activity, logger).Run)
	if st.snapshotter != nil {
		goRun("snapshot", sched.NewSnapshotWorker(cfg.Storage.SnapshotInterval, st.snapshotter, logger).Run)
	}
	if st.poolStats != nil {
		goRun("pool_stats", sched.NewPoolStatsWorker(30*time.Second, st.poolStats).Run)
	}

	if bot != nil {
		goRun("telegram", func(ctx context.Context) error { return bot.StartPolling(ctx, front) })
		goRun("conversation_sweeper", sched.NewConversationSweeper(cfg.Workers.PruneInterval, front, logger).Run)
	}
	goRun("http server", srv.Start)
	if err := eg.Wait(); err != nil {
		return err
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := profileUC.SaveAll(saveCtx); err != nil {
		logger.Error().Err(err).Msg("final profile save failed")
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
