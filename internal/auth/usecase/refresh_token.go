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

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
	Origin       audit.Origin
}

type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

// RefreshToken rotates a refresh token. The presented token is revoked, so
// replaying it is rejected.
func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.jwt.Verify(in.RefreshToken, jwt.KindRefresh)
	if errors.Is(err, jwt.ErrTokenExpired) {
		slog.WarnContext(ctx, "refresh token expired")
		return nil, goerror.NewBusiness("Refresh token expired", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.WarnContext(ctx, "refresh token invalid", "error", err)
		return nil, goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
	}

	first, err := s.revoke(ctx, clm)
	if err != nil {
		return nil, err
	}
	if !first {
		slog.WarnContext(ctx, "refresh token replayed", "user_id", clm.UserID, "jti", clm.ID)
		return nil, goerror.NewBusiness("Refresh token revoked", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token user not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user.Status.Ensure() != entity.UserStatusActive {
		slog.WarnContext(ctx, "refresh token user not active", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionTokenRefresh,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
	})

	return &RefreshTokenOutput{AccessToken: session.AccessToken, RefreshToken: session.RefreshToken}, nil
}
