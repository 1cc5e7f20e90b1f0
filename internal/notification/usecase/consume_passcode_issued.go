package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gootp/internal/notification/entity"
	"github.com/shandysiswandi/gootp/internal/pkg/mail"
)

type ConsumePasscodeIssuedInput struct {
	Email     string `validate:"required,email"`
	Purpose   string `validate:"required,oneof=email_verification password_reset 2fa"`
	Code      string `validate:"required,otpcode"`
	ExpiresIn int    `validate:"gt=0"`
	Resent    bool
}

// ConsumePasscodeIssued emails the code. Invalid payloads are dropped since
// redelivery cannot fix them; delivery failures are retried with exponential
// backoff up to modules.notification.max_retries attempts and then returned.
func (s *Usecase) ConsumePasscodeIssued(ctx context.Context, in ConsumePasscodeIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasscodeIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid passcode issued payload", "email", in.Email, "purpose", in.Purpose, "error", err)
		return nil
	}

	label := entity.PurposeLabel(in.Purpose)
	data := s.baseEmailTemplateData()
	data["purpose_label"] = label
	data["code"] = in.Code
	data["expires_minutes"] = (in.ExpiresIn + 59) / 60

	text, html, err := render("passcode", data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render passcode email", "purpose", in.Purpose, "error", err)
		return nil
	}

	subject := "Your " + label + " code"
	if in.Resent {
		subject = "Your new " + label + " code"
	}

	msg := mail.Message{
		From:     s.cfg.GetString("modules.notification.sender"),
		To:       []string{in.Email},
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	}

	attempts := max(s.cfg.GetInt("modules.notification.max_retries"), 1)
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(s.retryBase))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.repoMail.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, mail.ErrNoRecipients) || errors.Is(err, mail.ErrNoSender) || errors.Is(err, mail.ErrHeaderInjection) {
			return err
		}

		slog.WarnContext(ctx, "passcode email delivery failed, retrying", "email", in.Email, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send passcode email", "email", in.Email, "purpose", in.Purpose, "error", err)
		return err
	}

	slog.InfoContext(ctx, "passcode email sent", "email", in.Email, "purpose", in.Purpose)
	return nil
}
