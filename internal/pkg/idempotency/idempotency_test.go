package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client), mr
}

func TestGuard_Exec(t *testing.T) {
	ctx := context.Background()

	t.Run("RunsOncePerWindow", func(t *testing.T) {
		st, mr := newGuard(t)

		calls := 0
		fn := func(context.Context) error {
			calls++
			return nil
		}

		require.NoError(t, st.Exec(ctx, "forgot:abc", fn, WithStateTTL(time.Minute)))
		assert.ErrorIs(t, st.Exec(ctx, "forgot:abc", fn, WithStateTTL(time.Minute)), ErrAlreadyCompleted)
		assert.Equal(t, 1, calls)

		mr.FastForward(2 * time.Minute)
		require.NoError(t, st.Exec(ctx, "forgot:abc", fn))
		assert.Equal(t, 2, calls)
	})

	t.Run("FailureReleasesKey", func(t *testing.T) {
		st, mr := newGuard(t)
		errSend := errors.New("send failed")

		err := st.Exec(ctx, "k", func(context.Context) error { return errSend })
		assert.ErrorIs(t, err, errSend)
		assert.False(t, mr.Exists("idempotency:k"))

		require.NoError(t, st.Exec(ctx, "k", func(context.Context) error { return nil }))
	})

	t.Run("InProgress", func(t *testing.T) {
		st, _ := newGuard(t)

		state, err := st.acquire(ctx, keyPrefix+"k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, StateNone, state)

		err = st.Exec(ctx, "k", func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrAlreadyInProgress)
	})

	t.Run("InvalidState", func(t *testing.T) {
		st, mr := newGuard(t)
		require.NoError(t, mr.Set("idempotency:k", "garbage"))

		state, err := st.acquire(ctx, keyPrefix+"k", time.Minute)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, StateError, state)
	})

	t.Run("RedisDown", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })
		st := New(client)
		mr.Close()

		err = st.Exec(ctx, "k", func(context.Context) error { return nil })
		assert.Error(t, err)
	})
}
