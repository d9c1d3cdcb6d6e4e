// Package memory holds the process-local stores used when no database or Redis
// is configured. Profiles survive restarts through a JSON snapshot file.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var (
	_ repository.ProfileRepository  = (*ProfileStore)(nil)
	_ repository.ProfileSnapshotter = (*ProfileStore)(nil)
)

// Sealer encrypts the snapshot at rest; security.EncryptionService implements it.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(data []byte) ([]byte, error)
}

// ProfileStore serializes updates per user with a keyed mutex; reads and updates
// of different users do not block each other.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*model.UserProfile
	keys     keyedMutex

	path   string
	sealer Sealer
	saveMu sync.Mutex
	now    func() time.Time
	log    *zerolog.Logger
}

// NewProfileStore loads path when it exists. An empty path disables snapshots.
func NewProfileStore(path string, sealer Sealer, logger *zerolog.Logger) (*ProfileStore, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &ProfileStore{
		profiles: map[string]*model.UserProfile{},
		keys:     keyedMutex{locks: map[string]*keyLock{}},
		path:     path,
		sealer:   sealer,
		now:      time.Now,
		log:      logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ProfileStore) load() error {
	if s.path == "" {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if s.sealer != nil && !json.Valid(b) {
		if b, err = s.sealer.Open(b); err != nil {
			return fmt.Errorf("decrypt profiles: %w", err)
		}
	}
	var m map[string]*model.UserProfile
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("parse profiles: %w", err)
	}
	for id, p := range m {
		if p == nil {
			continue
		}
		if p.UserID == "" {
			p.UserID = id
		}
		s.profiles[id] = p
	}
	s.log.Info().Int("profiles", len(s.profiles)).Str("path", s.path).Msg("profiles loaded")
	return nil
}

func (s *ProfileStore) Mutate(ctx context.Context, userID string, fn repository.MutateFunc) (*model.UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	unlock := s.keys.lock(userID)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cur, ok := s.profiles[userID]
	s.mu.RUnlock()
	var p *model.UserProfile
	if ok {
		p = cur.Clone()
	} else {
		p = model.NewUserProfile(userID, s.now())
	}
	if err := fn(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.profiles[userID] = p.Clone()
	s.mu.Unlock()
	return p, nil
}

func (s *ProfileStore) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *ProfileStore) Save(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	if p == nil || p.UserID == "" {
		return domain.ErrInvalidArgument
	}
	unlock := s.keys.lock(p.UserID)
	defer unlock()
	s.mu.Lock()
	s.profiles[p.UserID] = p.Clone()
	s.mu.Unlock()
	return nil
}

func (s *ProfileStore) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	unlock := s.keys.lock(userID)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.profiles, userID)
	return nil
}

func (s *ProfileStore) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	s.mu.RLock()
	out := make([]*model.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Snapshot writes every profile to the snapshot file through a temp file and rename.
func (s *ProfileStore) Snapshot(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	b, err := json.MarshalIndent(s.profiles, "", "  ")
	n := len(s.profiles)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	if s.sealer != nil {
		if b, err = s.sealer.Seal(b); err != nil {
			return fmt.Errorf("encrypt profiles: %w", err)
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".profiles-*")
	if err != nil {
		return fmt.Errorf("snapshot temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("snapshot rename: %w", err)
	}
	s.log.Debug().Int("profiles", n).Str("path", s.path).Msg("profiles saved")
	return nil
}

// keyedMutex hands out one mutex per key and frees it when the last holder leaves.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
