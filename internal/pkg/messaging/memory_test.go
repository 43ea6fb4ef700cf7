package messaging_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	UserID int64  `json:"user_id,string"`
	Email  string `json:"email"`
}

func startConsumer(t *testing.T, mem *messaging.Memory, topic, group string, h messaging.Handler) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mem.Consume(ctx, topic, h, messaging.WithGroup(group), messaging.WithAutoAck(true))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool { return mem.Subscribed(topic) }, time.Second, time.Millisecond)
}

func TestMemory_PublishJSONCarriesCorrelationID(t *testing.T) {
	mem := messaging.NewMemory()
	got := make(chan messaging.Message, 1)

	startConsumer(t, mem, "user_registered", "notification", func(_ context.Context, msg messaging.Message) error {
		got <- msg
		return nil
	})

	ctx := instrument.SetCorrelationID(context.Background(), "cid-42")
	require.NoError(t, messaging.PublishJSON(ctx, mem, "user_registered", "7", greeting{UserID: 7, Email: "a@b.c"}))

	select {
	case msg := <-got:
		assert.Equal(t, "cid-42", msg.Header(messaging.HeaderCorrelationID))
		assert.Equal(t, "user_registered", msg.Topic())

		var g greeting
		require.NoError(t, messaging.DecodeJSON(msg, &g))
		assert.Equal(t, greeting{UserID: 7, Email: "a@b.c"}, g)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemory_NackRedelivers(t *testing.T) {
	mem := messaging.NewMemory()
	var attempts atomic.Int32

	startConsumer(t, mem, "topic", "g", func(context.Context, messaging.Message) error {
		if attempts.Add(1) < 2 {
			return errors.New("transient")
		}
		return nil
	})

	_, err := mem.Publish(context.Background(), "topic", messaging.OutgoingMessage{Body: []byte("{}")})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return attempts.Load() == 2 }, time.Second, time.Millisecond)
}

func TestMemory_PanicIsRecovered(t *testing.T) {
	mem := messaging.NewMemory()
	var calls atomic.Int32

	startConsumer(t, mem, "topic", "g", func(context.Context, messaging.Message) error {
		calls.Add(1)
		panic("boom")
	})

	_, err := mem.Publish(context.Background(), "topic", messaging.OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return calls.Load() == messaging.MemoryMaxAttempts }, time.Second, time.Millisecond)
}

func TestOpen(t *testing.T) {
	m, err := messaging.Open(context.Background(), messaging.Options{})
	require.NoError(t, err)
	assert.IsType(t, &messaging.Memory{}, m)
	assert.NoError(t, m.Close())

	_, err = messaging.Open(context.Background(), messaging.Options{Driver: "rabbit"})
	assert.ErrorIs(t, err, messaging.ErrUnknownDriver)

	_, err = messaging.Open(context.Background(), messaging.Options{Driver: " Kafka "})
	assert.ErrorIs(t, err, messaging.ErrKafkaBrokersRequired)
}
