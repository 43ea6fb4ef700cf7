package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/idempotency"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
	"github.com/shandysiswandi/medicore/internal/shared/event"
)

// resetDataFingerprint binds a reset token to the password it replaces, so
// the token stops working once the password changes.
const resetDataFingerprint = "fp"

type ForgotPasswordInput struct {
	Email  string `validate:"required,email"`
	Origin audit.Origin
}

// ForgotPassword mails a reset link when the account exists. Callers get the
// same result either way, and repeated requests for one address inside the
// throttle window are dropped.
func (s *Usecase) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ForgotPassword")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	key := "forgot-password:" + s.hmac.Sum(email)

	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendResetLink(ctx, email, in.Origin)
	}, idempotency.WithStateTTL(s.cfg.GetSecond("modules.auth.password_reset.throttle")))
	if errors.Is(err, idempotency.ErrAlreadyInProgress) || errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.InfoContext(ctx, "password reset throttled", "email_fp", s.hmac.Sum(email))
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to process forgot password", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) sendResetLink(ctx context.Context, email string, origin audit.Origin) error {
	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset for unknown account", "email_fp", s.hmac.Sum(email))
		return nil
	}
	if err != nil {
		return err
	}

	entry := audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionPasswordResetRequest,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       origin,
	}

	if err := s.ensureUserStatusAllowed(ctx, user); err != nil {
		entry.Outcome = audit.OutcomeUnauthorized
		s.audit.Record(ctx, entry)
		return nil
	}

	ttl := s.cfg.GetMinute("modules.auth.password_reset.ttl")
	token, err := s.jwt.IssueSinglePurposeToken(subjectOf(user), jwt.PurposePasswordReset, ttl, map[string]string{
		resetDataFingerprint: s.hmac.Sum(user.PasswordHash),
	})
	if err != nil {
		return err
	}

	if err := s.repoMessaging.PublishPasswordResetRequested(ctx, event.PasswordResetRequestedMessage{
		UserID:     user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		ResetToken: token,
	}); err != nil {
		return err
	}

	entry.Outcome = audit.OutcomeSuccess
	s.audit.Record(ctx, entry)

	return nil
}
