//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

func TestProfileRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	profile := model.NewUserProfile("user-123", time.Unix(1700000000, 0).UTC())
	profile.TotalSessions = 4

	t.Run("FindByUserID - Cache Hit", func(t *testing.T) {
		raw, _ := json.Marshal(profile)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				if key != "profile:user-123" {
					t.Errorf("unexpected key %s", key)
				}
				return string(raw), nil
			},
		}
		inner := &mockInnerProfileRepo{
			FindByUserIDFunc: func(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
				t.Fatal("inner repository should not be called on cache hit")
				return nil, nil
			},
		}

		got, err := NewProfileRepoCacheDecorator(inner, mockRedis, 0, nil).FindByUserID(ctx, nil, "user-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.TotalSessions != 4 {
			t.Errorf("total_sessions = %d, want 4", got.TotalSessions)
		}
	})

	t.Run("FindByUserID - Cache Miss", func(t *testing.T) {
		var setCalled bool
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", redis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setCalled = true
				if expiration != time.Hour {
					t.Errorf("ttl = %v", expiration)
				}
				return nil
			},
		}
		innerCalled := false
		inner := &mockInnerProfileRepo{
			FindByUserIDFunc: func(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
				innerCalled = true
				return profile, nil
			},
		}

		got, err := NewProfileRepoCacheDecorator(inner, mockRedis, 0, nil).FindByUserID(ctx, nil, "user-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !innerCalled || !setCalled {
			t.Errorf("inner called = %v, cache set = %v", innerCalled, setCalled)
		}
		if got.UserID != "user-123" {
			t.Errorf("user id = %s", got.UserID)
		}
	})

	t.Run("FindByUserID - Not Found Is Not Cached", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", errors.New("conn refused") },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				t.Fatal("a missing profile must not be cached")
				return nil
			},
		}
		inner := &mockInnerProfileRepo{
			FindByUserIDFunc: func(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
				return nil, domain.ErrNotFound
			},
		}
		_, err := NewProfileRepoCacheDecorator(inner, mockRedis, 0, nil).FindByUserID(ctx, nil, "ghost")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("Mutate - Invalidates Cache", func(t *testing.T) {
		var deletedKeys sync.Map
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				for _, k := range keys {
					deletedKeys.Store(k, true)
				}
				return nil
			},
		}
		inner := &mockInnerProfileRepo{
			MutateFunc: func(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error) {
				p := profile.Clone()
				return p, fn(p)
			},
		}

		got, err := NewProfileRepoCacheDecorator(inner, mockRedis, 0, nil).Mutate(ctx, "user-123", func(p *model.UserProfile) error {
			p.TotalInteractions++
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.TotalInteractions != 1 {
			t.Errorf("total_interactions = %d", got.TotalInteractions)
		}
		if _, ok := deletedKeys.Load("profile:user-123"); !ok {
			t.Error("did not invalidate cache after mutate")
		}
	})

	t.Run("Delete - Invalidates Even On Error", func(t *testing.T) {
		deleted := 0
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error { deleted++; return nil },
		}
		inner := &mockInnerProfileRepo{
			DeleteFunc: func(ctx context.Context, tx repository.Tx, userID string) error { return domain.ErrNotFound },
		}
		err := NewProfileRepoCacheDecorator(inner, mockRedis, 0, nil).Delete(ctx, nil, "user-123")
		if !errors.Is(err, domain.ErrNotFound) || deleted != 1 {
			t.Fatalf("err = %v, deletes = %d", err, deleted)
		}
	})
}

func TestGetExecutor(t *testing.T) {
	if _, err := getExecutor(nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("nil pool: %v", err)
	}
	if _, err := getExecutor(nil, "bogus"); !errors.Is(err, domain.ErrInvalidExecContext) {
		t.Errorf("bad tx: %v", err)
	}
}
