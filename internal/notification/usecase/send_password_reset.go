package usecase

import (
	"context"
	"log/slog"
	"net/url"
)

type SendPasswordResetInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"max=100"`
	Token     string `validate:"required"`
}

func (s *Usecase) SendPasswordReset(ctx context.Context, in SendPasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "SendPasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid password reset event", "user_id", in.UserID, "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["first_name"] = in.FirstName
	data["reset_url"] = s.cfg.GetString("app.web") + "/reset-password?token=" + url.QueryEscape(in.Token)
	data["ttl_minutes"] = s.cfg.GetInt("modules.auth.password_reset.ttl")

	return s.send(ctx, in.Email, passwordResetTemplate, data)
}
