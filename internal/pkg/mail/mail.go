package mail

import (
	"context"
	"io"
	"log/slog"
)

// Message is a single outgoing e-mail.
type Message struct {
	// From overrides the sender configured on the Mail implementation.
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Log is a Mail that writes messages to slog instead of delivering them.
// It is used when no SMTP host is configured.
type Log struct{}

func (Log) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "mail not delivered, no smtp host configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

func (Log) Close() error { return nil }
