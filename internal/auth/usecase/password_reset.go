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

var errTokenUsed = goerror.NewBusiness("Token already used", goerror.CodeUnauthorized)

type VerifyResetTokenInput struct {
	Token string `validate:"required"`
}

type VerifyResetTokenOutput struct {
	Valid bool
	Email string
}

func (s *Usecase) VerifyResetToken(ctx context.Context, in VerifyResetTokenInput) (*VerifyResetTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyResetToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, user, err := s.resolveResetToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	return &VerifyResetTokenOutput{Valid: true, Email: user.Email}, nil
}

type ResetPasswordInput struct {
	Token    string `validate:"required"`
	Password string `validate:"required,password"`
	Origin   audit.Origin
}

func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, user, err := s.resolveResetToken(ctx, in.Token)
	if err != nil {
		return err
	}

	hash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	entry := s.audit.Stamp(audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionPasswordReset,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
	})

	err = s.repoDB.ResetPassword(ctx, user.ID, user.PasswordHash, string(hash), entry)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password changed or user removed during reset", "user_id", user.ID)
		return errTokenUsed
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if _, err := s.revoke(ctx, clm); err != nil {
		slog.WarnContext(ctx, "reset token not revoked, fingerprint still guards reuse", "user_id", user.ID, "error", err)
	}

	return nil
}

// resolveResetToken checks the token, its revocation and that the password it
// was issued for is still the current one.
func (s *Usecase) resolveResetToken(ctx context.Context, token string) (jwt.Claims, *entity.User, error) {
	clm, err := s.verifyPurposeToken(ctx, token, jwt.PurposePasswordReset)
	if err != nil {
		return jwt.Claims{}, nil, err
	}

	revoked, err := s.isRevoked(ctx, clm.ID)
	if err != nil {
		return jwt.Claims{}, nil, err
	}
	if revoked {
		slog.WarnContext(ctx, "reset token already revoked", "user_id", clm.UserID)
		return jwt.Claims{}, nil, errTokenUsed
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "reset token user not found", "user_id", clm.UserID)
		return jwt.Claims{}, nil, goerror.NewBusiness("Invalid token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return jwt.Claims{}, nil, goerror.NewServer(err)
	}

	if !s.hmac.Equal(clm.Data[resetDataFingerprint], user.PasswordHash) {
		slog.WarnContext(ctx, "reset token issued for an older password", "user_id", user.ID)
		return jwt.Claims{}, nil, errTokenUsed
	}

	return clm, user, nil
}
