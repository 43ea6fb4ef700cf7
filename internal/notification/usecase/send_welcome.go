package usecase

import (
	"context"
	"log/slog"
)

type SendWelcomeInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"required,max=100"`
}

// SendWelcome mails the greeting for a new account. Invalid payloads are
// dropped so they are not redelivered forever.
func (s *Usecase) SendWelcome(ctx context.Context, in SendWelcomeInput) error {
	ctx, span := s.startSpan(ctx, "SendWelcome")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid user registered event", "user_id", in.UserID, "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["first_name"] = in.FirstName

	return s.send(ctx, in.Email, welcomeTemplate, data)
}
