package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

type StatusInput struct {
	Email string `validate:"required,email"`
	Type  string `validate:"omitempty,oneof=email_verification password_reset 2fa"`
}

type StatusOutput struct {
	HasValidOTP   bool
	RemainingTime int
	CanResend     bool
}

// Status is a read-only view of the outstanding code. Type defaults to
// email_verification.
func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := otp.PurposeEmailVerification
	if in.Type != "" {
		purpose = otp.Purpose(in.Type)
	}

	valid, err := s.otp.HasValid(ctx, in.Email, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check passcode validity", "email", in.Email, "purpose", purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	remaining, err := s.otp.RemainingTime(ctx, in.Email, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get passcode remaining time", "email", in.Email, "purpose", purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatusOutput{
		HasValidOTP:   valid,
		RemainingTime: remaining,
		CanResend:     remaining < s.cfg.GetInt("modules.passcode.resend_hint_seconds"),
	}, nil
}
