// Package idempotency runs keyed operations at most once per window. State
// lives in Redis so every replica sees the same marker.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrInvalidState      = errors.New("idempotency: unknown stored state")
)

// State is the marker stored under a key.
type State string

const (
	StateNone       State = ""
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Idempotency is what callers depend on.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const keyPrefix = "idempotency:"

// Guard implements Idempotency on Redis.
type Guard struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *Guard {
	return &Guard{rdb: rdb}
}

type settings struct {
	lock time.Duration
	ttl  time.Duration
}

// Option tunes a single Exec call.
type Option func(*settings)

// WithLockDuration bounds how long a crashed caller can block the key.
func WithLockDuration(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.lock = d
		}
	}
}

// WithStateTTL sets how long a success blocks repeats.
func WithStateTTL(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// Exec runs fn unless key is in progress or completed inside its window.
// When fn fails the key is released so a retry may run.
func (g *Guard) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	s := settings{lock: time.Minute, ttl: time.Minute}
	for _, o := range opts {
		o(&s)
	}

	state, err := g.acquire(ctx, keyPrefix+key, s.lock)
	switch {
	case err != nil:
		return err
	case state == StateInProgress:
		return ErrAlreadyInProgress
	case state == StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, g.rdb.Del(ctx, keyPrefix+key).Err())
	}
	return g.rdb.Set(ctx, keyPrefix+key, string(StateCompleted), s.ttl).Err()
}

// acquire claims key and returns StateNone, or returns the state held by
// someone else. A key that expires between the two calls is claimed again.
func (g *Guard) acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	for {
		ok, err := g.rdb.SetNX(ctx, key, string(StateInProgress), lock).Result()
		if err != nil {
			return StateError, fmt.Errorf("idempotency: claim: %w", err)
		}
		if ok {
			return StateNone, nil
		}

		held, err := g.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return StateError, fmt.Errorf("idempotency: read: %w", err)
		}

		switch st := State(held); st {
		case StateInProgress, StateCompleted:
			return st, nil
		default:
			return StateError, ErrInvalidState
		}
	}
}
