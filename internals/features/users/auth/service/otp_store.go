package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrChallengeNotFound = errors.New("otp challenge not found")

// Challenge is a pending second factor issued by Login.
type Challenge struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OTPStore interface {
	Put(ctx context.Context, ch Challenge) error
	Get(ctx context.Context, id string) (*Challenge, error)
	Update(ctx context.Context, ch Challenge) error
	Delete(ctx context.Context, id string) error
	// Sweep drops expired challenges and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// NewOTPStore uses Redis when a client is configured.
func NewOTPStore(rdb *redis.Client) OTPStore {
	if rdb == nil {
		return NewMemoryOTPStore()
	}
	return &RedisOTPStore{rdb: rdb, prefix: "otp:"}
}

/* ====================== REDIS ====================== */

type RedisOTPStore struct {
	rdb    *redis.Client
	prefix string
}

func (s *RedisOTPStore) Put(ctx context.Context, ch Challenge) error {
	b, err := sonic.Marshal(ch)
	if err != nil {
		return err
	}
	ttl := time.Until(ch.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.rdb.Set(ctx, s.prefix+ch.ID, b, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, id string) (*Challenge, error) {
	b, err := s.rdb.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	var ch Challenge
	if err := sonic.Unmarshal(b, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *RedisOTPStore) Update(ctx context.Context, ch Challenge) error {
	b, err := sonic.Marshal(ch)
	if err != nil {
		return err
	}
	err = s.rdb.SetArgs(ctx, s.prefix+ch.ID, b, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrChallengeNotFound
	}
	return err
}

func (s *RedisOTPStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.prefix+id).Err()
}

// Sweep is a no-op: keys carry their own TTL.
func (s *RedisOTPStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

/* ====================== MEMORY ====================== */

type MemoryOTPStore struct {
	mu    sync.RWMutex
	items map[string]Challenge
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{items: make(map[string]Challenge)}
}

func (s *MemoryOTPStore) Put(_ context.Context, ch Challenge) error {
	s.mu.Lock()
	s.items[ch.ID] = ch
	s.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, id string) (*Challenge, error) {
	s.mu.RLock()
	ch, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrChallengeNotFound
	}
	return &ch, nil
}

func (s *MemoryOTPStore) Update(_ context.Context, ch Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[ch.ID]; !ok {
		return ErrChallengeNotFound
	}
	s.items[ch.ID] = ch
	return nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, ch := range s.items {
		if !now.Before(ch.ExpiresAt) {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryOTPStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
