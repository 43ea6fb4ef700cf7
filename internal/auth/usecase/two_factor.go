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

const (
	setupDataSecret     = "secret"
	setupDataKeyVersion = "kv"
)

type Setup2FAOutput struct {
	Secret     string
	QRCode     string
	SetupToken string
}

// Setup2FA starts enrollment. The fresh secret is not stored; it travels
// encrypted inside the setup token until Verify2FA confirms it.
func (s *Usecase) Setup2FA(ctx context.Context) (*Setup2FAOutput, error) {
	ctx, span := s.startSpan(ctx, "Setup2FA")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorState() == entity.TwoFactorEnabled {
		slog.WarnContext(ctx, "two factor already enabled", "user_id", user.ID)
		return nil, goerror.NewBusiness("Two-factor authentication already enabled", goerror.CodeConflict)
	}

	secret, uri, err := s.totp.Generate(user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qr, err := s.totp.QRCode(uri)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render totp qr code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	enc, err := s.fieldcrypt.EncryptString(secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt pending secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("modules.auth.two_factor.setup_ttl")
	token, err := s.jwt.IssueSinglePurposeToken(subjectOf(user), jwt.Purpose2FASetup, ttl, map[string]string{
		setupDataSecret:     enc,
		setupDataKeyVersion: strconv.Itoa(s.fieldcrypt.Version()),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue setup token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Setup2FAOutput{Secret: secret, QRCode: qr, SetupToken: token}, nil
}

type Verify2FAInput struct {
	Code       string `validate:"required,otp"`
	SetupToken string `validate:"required"`
	Origin     audit.Origin
}

func (s *Usecase) Verify2FA(ctx context.Context, in Verify2FAInput) error {
	ctx, span := s.startSpan(ctx, "Verify2FA")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	setup, err := s.jwt.VerifySinglePurposeToken(in.SetupToken, jwt.Purpose2FASetup)
	if err != nil {
		slog.WarnContext(ctx, "setup token rejected", "user_id", clm.UserID, "error", err)
		return goerror.NewBusiness("Invalid or expired setup token", goerror.CodeInvalidInput)
	}
	if setup.UserID != clm.UserID {
		slog.WarnContext(ctx, "setup token belongs to another user", "user_id", clm.UserID)
		return goerror.NewBusiness("Invalid or expired setup token", goerror.CodeInvalidInput)
	}

	revoked, err := s.isRevoked(ctx, setup.ID)
	if err != nil {
		return err
	}
	if revoked {
		return goerror.NewBusiness("Invalid or expired setup token", goerror.CodeInvalidInput)
	}

	keyVersion, err := strconv.Atoi(setup.Data[setupDataKeyVersion])
	if err != nil || setup.Data[setupDataSecret] == "" {
		slog.WarnContext(ctx, "setup token carries no secret", "user_id", clm.UserID)
		return goerror.NewBusiness("Invalid or expired setup token", goerror.CodeInvalidInput)
	}

	ok, err := s.checkCode(ctx, in.Code, setup.Data[setupDataSecret], keyVersion)
	if err != nil {
		return err
	}

	entry := audit.Entry{
		ActorID:      audit.Actor(clm.UserID),
		Action:       audit.ActionTwoFactorEnable,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(clm.UserID, 10),
		Origin:       in.Origin,
	}

	if !ok {
		slog.WarnContext(ctx, "two factor setup code not match", "user_id", clm.UserID)
		entry.Outcome = audit.OutcomeFailure
		s.audit.Record(ctx, entry)
		// one attempt per setup token; the pending secret is discarded
		if _, err := s.revoke(ctx, setup); err != nil {
			return err
		}
		return goerror.NewBusiness("Invalid verification code", goerror.CodeInvalidInput)
	}

	err = s.repoDB.EnableTwoFactor(ctx, clm.UserID, setup.Data[setupDataSecret], keyVersion, s.clock.Now())
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "two factor already enabled", "user_id", clm.UserID)
		return goerror.NewBusiness("Two-factor authentication already enabled", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo enable two factor", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if _, err := s.revoke(ctx, setup); err != nil {
		return err
	}

	entry.Outcome = audit.OutcomeSuccess
	s.audit.Record(ctx, entry)

	return nil
}

type Disable2FAInput struct {
	Password string `validate:"required"`
	Code     string `validate:"required,otp"`
	Origin   audit.Origin
}

func (s *Usecase) Disable2FA(ctx context.Context, in Disable2FAInput) error {
	ctx, span := s.startSpan(ctx, "Disable2FA")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	if user.TwoFactorState() != entity.TwoFactorEnabled {
		return goerror.NewBusiness("Two-factor authentication is not enabled", goerror.CodeInvalidInput)
	}

	entry := audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionTwoFactorDisable,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       in.Origin,
	}

	passOK, err := s.password.Verify(user.PasswordHash, in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "stored credential is malformed", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	codeOK, err := s.checkCode(ctx, in.Code, user.TwoFactorSecret, user.TwoFactorKeyVersion)
	if err != nil {
		return err
	}

	if !passOK || !codeOK {
		slog.WarnContext(ctx, "two factor disable rejected", "user_id", user.ID)
		entry.Outcome = audit.OutcomeFailure
		s.audit.Record(ctx, entry)
		return goerror.NewBusiness("Invalid password or verification code", goerror.CodeInvalidInput)
	}

	err = s.repoDB.DisableTwoFactor(ctx, user.ID, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Two-factor authentication is not enabled", goerror.CodeInvalidInput)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo disable two factor", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	entry.Outcome = audit.OutcomeSuccess
	s.audit.Record(ctx, entry)

	return nil
}
