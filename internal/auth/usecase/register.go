package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/medicore/internal/auth/entity"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
	"github.com/shandysiswandi/medicore/internal/shared/event"
)

type RegisterInput struct {
	Email     string `validate:"required,email,max=255"`
	Password  string `validate:"required,password"`
	FirstName string `validate:"required,alphaspace,min=1,max=100"`
	LastName  string `validate:"required,alphaspace,min=1,max=100"`
	Role      string `validate:"required,oneof=patient doctor"`
	Origin    audit.Origin
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	user := entity.NewUser{
		ID:                s.uid.Generate(),
		Email:             email,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Role:              in.Role,
		PasswordHash:      string(hash),
		EncryptionVersion: s.cipher.Version(),
		CreatedAt:         now,
	}

	if s.cfg.GetBool("modules.auth.keypair.enabled") {
		kp, err := s.cipher.GenerateKeyPair()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate user key pair", "error", err)
			return nil, goerror.NewServer(err)
		}
		user.PublicKey = kp.PublicKey
		user.PrivateKey = kp.PrivateKey.String()
	}

	entry := s.audit.Stamp(audit.Entry{
		ActorID:      audit.Actor(user.ID),
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		Origin:       in.Origin,
		Outcome:      audit.OutcomeSuccess,
		Details:      map[string]any{"role": user.Role},
		CreatedAt:    now,
	})

	err = s.repoDB.CreateUser(ctx, user, entry)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email already registered", "email_fp", s.hmac.Sum(email))
		return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "error", err)
		return nil, goerror.NewServer(err)
	}

	created := &entity.User{
		ID:                user.ID,
		Email:             user.Email,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Role:              user.Role,
		Status:            entity.UserStatusActive,
		PublicKey:         user.PublicKey,
		EncryptionVersion: user.EncryptionVersion,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	session, err := s.issueSession(ctx, created)
	if err != nil {
		return nil, err
	}

	if err := s.repoMessaging.PublishUserRegistered(ctx, event.UserRegisteredMessage{
		UserID:    created.ID,
		Email:     created.Email,
		FirstName: created.FirstName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user registered", "user_id", created.ID, "error", err)
	}

	return session, nil
}
