package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errNoRecipient = errors.New("email: message has no recipient")

// Mail stamps the default sender and traces delivery. The wrapped client is
// normally a mail.Breaker.
type Mail struct {
	client mail.Mail
	from   string
	tracer trace.Tracer
}

func New(client mail.Mail, from string, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, from: from, tracer: ins.Tracer("notification.outbound.email")}
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) (err error) {
	ctx, span := m.tracer.Start(ctx, "Send", trace.WithAttributes(
		attribute.String("mail.subject", msg.Subject),
		attribute.Int("mail.recipients", len(msg.To)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if len(msg.To) == 0 {
		return errNoRecipient
	}
	if msg.From == "" {
		msg.From = m.from
	}

	if err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("email: send %q: %w", msg.Subject, err)
	}
	return nil
}
