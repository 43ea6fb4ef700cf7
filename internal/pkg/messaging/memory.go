package messaging

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is an in-process broker for tests and single-node development.
// Every consumer group receives each message once; a nacked message is
// redelivered to its group up to MemoryMaxAttempts times.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan *memoryEnvelope
	seq    atomic.Uint64
	closed bool
}

// MemoryMaxAttempts bounds redelivery of nacked messages.
const MemoryMaxAttempts = 3

type memoryEnvelope struct {
	msg      OutgoingMessage
	id       string
	topic    string
	at       time.Time
	attempts int
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{groups: map[string]map[string]chan *memoryEnvelope{}}
}

// Close stops accepting messages.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Publish fans the message out to every group subscribed to destination.
// Messages published before any consumer subscribes are dropped.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return PublishResult{}, ErrClosed
	}

	msg.Headers = cloneHeaders(msg.Headers)
	env := memoryEnvelope{
		msg:   msg,
		id:    strconv.FormatUint(m.seq.Add(1), 10),
		topic: destination,
		at:    time.Now(),
	}

	for _, ch := range m.groups[destination] {
		e := env
		select {
		case ch <- &e:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: env.id, Topic: destination, Timestamp: env.at}, nil
}

// Consume registers a group on source and handles messages until ctx is canceled.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	ch := m.subscribe(source, co.group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case env := <-ch:
					m.deliver(ctx, ch, env, handler, co.autoAck)
				}
			}
		})
	}

	wg.Wait()
	return ctx.Err()
}

// Subscribed reports whether any group listens on topic.
func (m *Memory) Subscribed(topic string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups[topic]) > 0
}

func (m *Memory) subscribe(topic, group string) chan *memoryEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groups[topic] == nil {
		m.groups[topic] = map[string]chan *memoryEnvelope{}
	}
	ch, ok := m.groups[topic][group]
	if !ok {
		ch = make(chan *memoryEnvelope, 64)
		m.groups[topic][group] = ch
	}
	return ch
}

func (m *Memory) deliver(ctx context.Context, ch chan *memoryEnvelope, env *memoryEnvelope, handler Handler, autoAck bool) {
	env.attempts++
	msg := &message{
		body:      env.msg.Body,
		headers:   env.msg.Headers,
		id:        env.id,
		topic:     env.topic,
		timestamp: env.at,
		nack: func(context.Context) error {
			if env.attempts < MemoryMaxAttempts {
				go func() { ch <- env }()
			}
			return nil
		},
	}

	_ = dispatch(ctx, "memory", handler, msg, autoAck)
}
