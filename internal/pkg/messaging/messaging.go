package messaging

import (
	"context"
	"errors"
	"io"
	"maps"
	"sync/atomic"
	"time"
)

var (
	// ErrUnsupported is returned when the selected broker lacks a feature (e.g. delayed delivery).
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrDestinationRequired is returned when the topic/subject is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("messaging: client closed")
)

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source. Consume blocks until ctx is
// canceled or the subscription fails.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto-ack enabled a nil error
// acks the message and a non-nil error asks the broker to redeliver it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is the partition key (Kafka) or ordering key (Pub/Sub).
	Key string
	// Headers are string metadata delivered alongside the body.
	Headers map[string]string
	// Delay defers delivery when the broker supports it.
	Delay time.Duration
}

// PublishResult carries broker metadata about an accepted message.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Header returns a header value, or "" when absent.
	Header(key string) string
	// ID returns the broker message ID, when the broker assigns one.
	ID() string
	// Topic returns the topic/subject the message was read from.
	Topic() string
	// Timestamp returns the broker or receive timestamp.
	Timestamp() time.Time
	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
	// Nack asks the broker to redeliver the message. Brokers without
	// redelivery treat it as a no-op.
	Nack(ctx context.Context) error
}

// message is the shared Message implementation; drivers plug in ack/nack.
type message struct {
	body      []byte
	headers   map[string]string
	id        string
	topic     string
	timestamp time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (m *message) Body() []byte { return m.body }
func (m *message) ID() string   { return m.id }

func (m *message) Header(key string) string { return m.headers[key] }

func (m *message) Topic() string        { return m.topic }
func (m *message) Timestamp() time.Time { return m.timestamp }

func (m *message) Ack(ctx context.Context) error {
	return m.respond(ctx, m.ack)
}

func (m *message) Nack(ctx context.Context) error {
	return m.respond(ctx, m.nack)
}

func (m *message) respond(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) || fn == nil {
		return nil
	}
	return fn(ctx)
}

func (m *message) hasResponded() bool {
	return m.responded.Load()
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return map[string]string{}
	}
	return maps.Clone(h)
}
