package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type LogoutInput struct {
	RefreshToken string
	Origin       audit.Origin
}

// Logout revokes the calling access token and, when given, the refresh token
// of the same user.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if _, err := s.revoke(ctx, *clm); err != nil {
		return err
	}

	if in.RefreshToken != "" {
		ref, err := s.jwt.Verify(in.RefreshToken, jwt.KindRefresh)
		if err != nil {
			slog.WarnContext(ctx, "logout with unusable refresh token", "user_id", clm.UserID, "error", err)
			return goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
		}
		if ref.UserID != clm.UserID {
			slog.WarnContext(ctx, "logout with refresh token of another user", "user_id", clm.UserID)
			return goerror.NewBusiness("Invalid refresh token", goerror.CodeUnauthorized)
		}
		if _, err := s.revoke(ctx, ref); err != nil {
			return err
		}
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      audit.Actor(clm.UserID),
		Action:       audit.ActionLogout,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(clm.UserID, 10),
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
	})

	return nil
}
