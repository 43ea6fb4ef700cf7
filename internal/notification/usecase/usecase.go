package usecase

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	texttemplate "text/template"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/mail"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail  repoMail
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail   repoMail
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"app_name":      s.cfg.GetString("app.name"),
		"support_email": s.cfg.GetString("modules.notification.support_email"),
		"web_url":       s.cfg.GetString("app.web"),
		"year":          s.clock.Now().Format("2006"),
	}
}

// send renders tpl with data and mails it to one recipient. A template error
// is a bug, not a delivery problem, so it is logged and swallowed.
func (s *Usecase) send(ctx context.Context, to string, tpl emailTemplate, data map[string]any) error {
	subject, err := renderText("subject", tpl.subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email subject", "template", tpl.name, "error", err)
		return nil
	}

	text, err := renderText("text", tpl.text, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email text", "template", tpl.name, "error", err)
		return nil
	}

	html, err := renderHTML("html", tpl.html, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email html", "template", tpl.name, "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send email", "template", tpl.name, "error", err)
		return err
	}

	slog.InfoContext(ctx, "email sent", "template", tpl.name)
	return nil
}

func renderHTML(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderText(name, tpl string, data map[string]any) (string, error) {
	t, err := texttemplate.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
