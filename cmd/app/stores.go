package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/config"
	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/infra/db/memory"
	pg "humaine-chatbot/internal/infra/db/postgres"
	red "humaine-chatbot/internal/infra/redis"
	"humaine-chatbot/internal/infra/security"
)

// stores holds the backends picked from config. Postgres and Redis are each
// optional; without them everything lives in process memory.
type stores struct {
	profiles repository.ProfileRepository
	reports  repository.SessionReportRepository
	history  repository.HistoryStore
	activity repository.ActivityStore
	locker   repository.Locker
	limiter  repository.RateLimiter

	snapshotter repository.ProfileSnapshotter
	poolStats   func()

	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*stores, error) {
	st := &stores{activity: memory.NewActivityStore()}

	// ---- Redis ----
	var rc *red.Client
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		rc = c
		st.closers = append(st.closers, func() { _ = c.Close() })
		st.history = red.NewHistoryStore(c, cfg.Redis.TTL, cfg.AI.HistoryTurns)
		st.locker = red.NewLocker(c, cfg.Redis.LockTTL)
		st.limiter = red.NewRateLimiter(c, cfg.Redis.RateLimit, cfg.Redis.RateWindow)
		logger.Info().Msg("redis connected")
	} else {
		st.history = memory.NewHistoryStore(cfg.AI.HistoryTurns)
		st.locker = memory.NewLocker(cfg.Redis.LockTTL)
	}

	// ---- Profiles ----
	if cfg.Database.URL != "" {
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		if err := pg.Migrate(ctx, pool); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		var profiles repository.ProfileRepository = pg.NewPostgresProfileRepo(pool)
		if rc != nil {
			profiles = pg.NewProfileRepoCacheDecorator(profiles, rc, cfg.Redis.TTL, logger)
		}
		st.profiles = profiles
		st.reports = pg.NewPostgresSessionReportRepo(pool)
		st.poolStats = func() { pg.ReportPoolStats(pool) }
		logger.Info().Msg("postgres connected")
		return st, nil
	}

	var sealer memory.Sealer
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("encryption: %w", err)
		}
		sealer = enc
	}
	ps, err := memory.NewProfileStore(cfg.Storage.ProfilesFile, sealer, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("profile store: %w", err)
	}
	st.profiles = ps
	st.snapshotter = ps
	st.reports = memory.NewReportStore(50)
	logger.Info().Str("file", cfg.Storage.ProfilesFile).Msg("using in-memory profile store")
	return st, nil
}
