package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/mail"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

const testConfig = `
app:
  name: MediCore
  web: https://app.medicore.test
modules:
  auth:
    password_reset:
      ttl: 60
  notification:
    support_email: help@medicore.test
`

func newUsecase(t *testing.T, m *fakeMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	return NewNotification(Dependency{
		RepoMail:   m,
		Config:     cfg,
		Clock:      clock.NewFixed(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})
}

func TestSendWelcome(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	require.NoError(t, uc.SendWelcome(context.Background(), SendWelcomeInput{UserID: 1, Email: "jane@example.com", FirstName: "Jane"}))

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Equal(t, "Welcome to MediCore, Jane", msg.Subject)
	assert.Contains(t, msg.TextBody, "https://app.medicore.test")
	assert.Contains(t, msg.HTMLBody, "help@medicore.test")
	assert.Contains(t, msg.HTMLBody, "2026")
}

func TestSendWelcome_EscapesHTML(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	require.NoError(t, uc.SendWelcome(context.Background(), SendWelcomeInput{UserID: 1, Email: "x@example.com", FirstName: "<b>X</b>"}))

	require.Len(t, m.sent, 1)
	assert.NotContains(t, m.sent[0].HTMLBody, "<b>X</b>")
	assert.Contains(t, m.sent[0].HTMLBody, "&lt;b&gt;X&lt;/b&gt;")
}

func TestSendPasswordReset(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	err := uc.SendPasswordReset(context.Background(), SendPasswordResetInput{
		UserID:    1,
		Email:     "jane@example.com",
		FirstName: "Jane",
		Token:     "a.b+c",
	})
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].TextBody, "https://app.medicore.test/reset-password?token=a.b%2Bc")
	assert.Contains(t, m.sent[0].TextBody, "within 60 minutes")
}

func TestSend_InvalidPayloadIsDropped(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	assert.NoError(t, uc.SendPasswordReset(context.Background(), SendPasswordResetInput{UserID: 1, Email: "not-an-email", Token: "t"}))
	assert.NoError(t, uc.SendWelcome(context.Background(), SendWelcomeInput{Email: "a@b.co", FirstName: "A"}))
	assert.Empty(t, m.sent)
}

func TestSend_MailErrorIsReturned(t *testing.T) {
	uc := newUsecase(t, &fakeMail{err: mail.ErrCircuitOpen})

	err := uc.SendWelcome(context.Background(), SendWelcomeInput{UserID: 1, Email: "a@b.co", FirstName: "A"})
	assert.True(t, errors.Is(err, mail.ErrCircuitOpen))
}
