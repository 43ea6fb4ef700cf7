package mq

import (
	"context"
	"strconv"

	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/messaging"
	"github.com/shandysiswandi/medicore/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg event.UserRegisteredMessage) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishUserRegistered")
	defer span.End()

	key := strconv.FormatInt(msg.UserID, 10)
	if err := messaging.PublishJSON(ctx, m.client, event.UserRegisteredDestination, key, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishPasswordResetRequested(ctx context.Context, msg event.PasswordResetRequestedMessage) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishPasswordResetRequested")
	defer span.End()

	key := strconv.FormatInt(msg.UserID, 10)
	if err := messaging.PublishJSON(ctx, m.client, event.PasswordResetRequestedDestination, key, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
