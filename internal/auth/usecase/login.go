package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/medicore/internal/auth/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

var errInvalidCredential = goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Origin   audit.Origin
}

// LoginOutput carries either a full session or, with 2FA enabled, only a
// pending token.
type LoginOutput struct {
	Requires2FA bool
	TempToken   string
	Session     *Session
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.dummyVerify(in.Password)
		slog.WarnContext(ctx, "user account not found", "email_fp", s.hmac.Sum(email))
		s.audit.Record(ctx, audit.Entry{
			Action:       audit.ActionLogin,
			ResourceType: audit.ResourceUser,
			Origin:       in.Origin,
			Outcome:      audit.OutcomeUnauthorized,
			Details:      map[string]any{"email_fp": s.hmac.Sum(email)},
		})
		return nil, errInvalidCredential
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	ok, err := s.password.Verify(user.PasswordHash, in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "stored credential is malformed", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		s.audit.Record(ctx, audit.Entry{
			ActorID:      audit.Actor(user.ID),
			Action:       audit.ActionLogin,
			ResourceType: audit.ResourceUser,
			ResourceID:   strconv.FormatInt(user.ID, 10),
			Origin:       in.Origin,
			Outcome:      audit.OutcomeFailure,
		})
		return nil, errInvalidCredential
	}

	if err := s.ensureUserStatusAllowed(ctx, user); err != nil {
		s.audit.Record(ctx, audit.Entry{
			ActorID:      audit.Actor(user.ID),
			Action:       audit.ActionLogin,
			ResourceType: audit.ResourceUser,
			ResourceID:   strconv.FormatInt(user.ID, 10),
			Origin:       in.Origin,
			Outcome:      audit.OutcomeUnauthorized,
			Details:      map[string]any{"status": user.Status.String()},
		})
		return nil, err
	}

	s.rehashInBackground(ctx, user, in.Password)

	if user.TwoFactorState() == entity.TwoFactorEnabled {
		ttl := s.cfg.GetMinute("modules.auth.two_factor.pending_ttl")
		temp, err := s.jwt.IssueSinglePurposeToken(subjectOf(user), jwt.Purpose2FAPending, ttl, nil)
		if err != nil {
			slog.ErrorContext(ctx, "failed to issue pending 2fa token", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &LoginOutput{Requires2FA: true, TempToken: temp}, nil
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionLogin,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
	})

	return &LoginOutput{Session: session}, nil
}
