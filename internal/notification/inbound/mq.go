package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/messaging"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"github.com/shandysiswandi/medicore/internal/shared/event"
)

type runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

// RegisterMQConsumer starts one consumer per event. With
// modules.notification.consumer_names set, only the listed ones run.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine runner,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.notification.consumer_names")

	consumers := []struct {
		name    string
		topic   string // destination the publisher sends to
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredConsumerNotification,
			topic:   event.UserRegisteredDestination,
			handler: mqHandler.UserRegistered,
		},
		{
			name:    event.PasswordResetRequestedConsumerNotification,
			topic:   event.PasswordResetRequestedDestination,
			handler: mqHandler.PasswordResetRequested,
		},
	}

	for _, consumer := range consumers {
		if len(enabled) > 0 && !slices.Contains(enabled, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(cfg.GetInt("modules.notification.concurrency")),
				messaging.WithMaxInFlight(10),
			)
		})
	}
}
