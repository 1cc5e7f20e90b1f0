package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

type SendInput struct {
	Email string `validate:"required,email"`
	Type  string `validate:"required,oneof=email_verification password_reset 2fa"`
}

type SendOutput struct {
	ExpiresIn int
	// Code is set only when code echo is enabled outside production.
	Code string
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *Usecase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	purpose := otp.Purpose(in.Type)

	code, expiresIn, err := s.otp.Generate(ctx, in.Email, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "email", in.Email, "purpose", in.Type, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.issue(ctx, in.Email, purpose, code, expiresIn, false)

	out := &SendOutput{ExpiresIn: expiresIn}
	if s.exposeCode() {
		out.Code = code
	}

	return out, nil
}
