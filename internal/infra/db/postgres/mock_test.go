//go:build !integration

package postgres

import (
	"context"
	"time"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
	red "humaine-chatbot/internal/infra/redis"
)

// mockInnerProfileRepo mocks the repository wrapped by the cache decorator.
type mockInnerProfileRepo struct {
	MutateFunc       func(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error)
	FindByUserIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error)
	SaveFunc         func(ctx context.Context, tx repository.Tx, p *model.UserProfile) error
	DeleteFunc       func(ctx context.Context, tx repository.Tx, userID string) error
	ListFunc         func(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error)
}

var _ repository.ProfileRepository = &mockInnerProfileRepo{}

func (m *mockInnerProfileRepo) Mutate(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error) {
	return m.MutateFunc(ctx, userID, fn)
}
func (m *mockInnerProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	return m.FindByUserIDFunc(ctx, tx, userID)
}
func (m *mockInnerProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockInnerProfileRepo) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	return m.DeleteFunc(ctx, tx, userID)
}
func (m *mockInnerProfileRepo) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	return m.ListFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
