package inbound

import (
	"context"

	"github.com/shandysiswandi/medicore/internal/notification/usecase"
)

type uc interface {
	SendWelcome(ctx context.Context, in usecase.SendWelcomeInput) error
	SendPasswordReset(ctx context.Context, in usecase.SendPasswordResetInput) error
}
