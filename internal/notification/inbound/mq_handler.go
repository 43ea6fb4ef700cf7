package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/medicore/internal/notification/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/messaging"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(messaging.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegistered")
	defer span.End()

	slog.InfoContext(ctx, "consume: user registered", "msg_id", msg.ID())

	var payload event.UserRegisteredMessage
	if err := messaging.DecodeJSON(msg, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse user registered message", "msg_id", msg.ID(), "error", err)
		return nil
	}

	return h.uc.SendWelcome(ctx, usecase.SendWelcomeInput{
		UserID:    payload.UserID,
		Email:     payload.Email,
		FirstName: payload.FirstName,
	})
}

func (h *MQHandler) PasswordResetRequested(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordResetRequested")
	defer span.End()

	// The body carries a live reset token; never log it.
	slog.InfoContext(ctx, "consume: password reset requested", "msg_id", msg.ID())

	var payload event.PasswordResetRequestedMessage
	if err := messaging.DecodeJSON(msg, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse password reset message", "msg_id", msg.ID(), "error", err)
		return nil
	}

	return h.uc.SendPasswordReset(ctx, usecase.SendPasswordResetInput{
		UserID:    payload.UserID,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		Token:     payload.ResetToken,
	})
}
