package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/infra/metrics"
	red "humaine-chatbot/internal/infra/redis"
)

var _ repository.ProfileRepository = (*profileRepoCacheDecorator)(nil)

type profileRepoCacheDecorator struct {
	inner repository.ProfileRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewProfileRepoCacheDecorator(inner repository.ProfileRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ProfileRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &profileRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func profileKey(userID string) string { return fmt.Sprintf("profile:%s", userID) }

// Writes drop the cached copy after the inner store commits.
func (d *profileRepoCacheDecorator) Mutate(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error) {
	p, err := d.inner.Mutate(ctx, userID, fn)
	d.invalidate(ctx, userID)
	return p, err
}

func (d *profileRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	err := d.inner.Save(ctx, tx, p)
	if p != nil {
		d.invalidate(ctx, p.UserID)
	}
	return err
}

func (d *profileRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	err := d.inner.Delete(ctx, tx, userID)
	d.invalidate(ctx, userID)
	return err
}

func (d *profileRepoCacheDecorator) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	// reads inside a transaction must see the tx's own view
	if tx != nil {
		return d.inner.FindByUserID(ctx, tx, userID)
	}
	key := profileKey(userID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var p model.UserProfile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("profile", "hit")
			return &p, nil
		}
	} else if !red.IsMiss(err) {
		d.log.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
	}

	metrics.IncCacheRequest("profile", "miss")
	p, err := d.inner.FindByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *profileRepoCacheDecorator) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	return d.inner.List(ctx, tx)
}

func (d *profileRepoCacheDecorator) invalidate(ctx context.Context, userID string) {
	if err := d.cache.Del(ctx, profileKey(userID)); err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
}
