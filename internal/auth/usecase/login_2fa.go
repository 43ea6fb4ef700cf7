package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/medicore/internal/auth/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type VerifyLogin2FAInput struct {
	Code      string `validate:"required,otp"`
	TempToken string `validate:"required"`
	Origin    audit.Origin
}

func (s *Usecase) VerifyLogin2FA(ctx context.Context, in VerifyLogin2FAInput) (*Session, error) {
	ctx, span := s.startSpan(ctx, "VerifyLogin2FA")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.verifyPurposeToken(ctx, in.TempToken, jwt.Purpose2FAPending)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isRevoked(ctx, clm.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		slog.WarnContext(ctx, "pending 2fa token already used", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("Invalid token", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pending 2fa user not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("Invalid token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user); err != nil {
		s.audit.Record(ctx, audit.Entry{
			ActorID:      audit.Actor(user.ID),
			Action:       audit.ActionLogin2FA,
			ResourceType: audit.ResourceUser,
			ResourceID:   strconv.FormatInt(user.ID, 10),
			Origin:       in.Origin,
			Outcome:      audit.OutcomeUnauthorized,
			Details:      map[string]any{"status": user.Status.String()},
		})
		return nil, err
	}

	if user.TwoFactorState() != entity.TwoFactorEnabled {
		slog.WarnContext(ctx, "two factor no longer enabled", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid token", goerror.CodeUnauthorized)
	}

	ok, err := s.checkCode(ctx, in.Code, user.TwoFactorSecret, user.TwoFactorKeyVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.WarnContext(ctx, "two factor code not match", "user_id", user.ID)
		s.audit.Record(ctx, audit.Entry{
			ActorID:      audit.Actor(user.ID),
			Action:       audit.ActionLogin2FA,
			ResourceType: audit.ResourceUser,
			ResourceID:   strconv.FormatInt(user.ID, 10),
			Origin:       in.Origin,
			Outcome:      audit.OutcomeFailure,
		})
		return nil, goerror.NewBusiness("Invalid verification code", goerror.CodeInvalidInput)
	}

	first, err := s.revoke(ctx, clm)
	if err != nil {
		return nil, err
	}
	if !first {
		slog.WarnContext(ctx, "pending 2fa token raced", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid token", goerror.CodeUnauthorized)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionLogin2FA,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
	})

	return session, nil
}
