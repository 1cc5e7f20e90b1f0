package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

type ResendInput struct {
	Email string `validate:"required,email"`
	Type  string `validate:"required,oneof=email_verification password_reset 2fa"`
}

type ResendOutput struct {
	ExpiresIn int
	Code      string
}

// Resend replaces the outstanding code. While a code still has more than
// modules.passcode.resend_lock_seconds left the request is refused with
// retry_after set.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*ResendOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	purpose := otp.Purpose(in.Type)

	valid, err := s.otp.HasValid(ctx, in.Email, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check passcode validity", "email", in.Email, "purpose", in.Type, "error", err)
		return nil, goerror.NewServer(err)
	}

	if valid {
		remaining, err := s.otp.RemainingTime(ctx, in.Email, purpose)
		if err != nil {
			slog.ErrorContext(ctx, "failed to get passcode remaining time", "email", in.Email, "purpose", in.Type, "error", err)
			return nil, goerror.NewServer(err)
		}

		if lock := s.cfg.GetInt("modules.passcode.resend_lock_seconds"); remaining > lock {
			slog.WarnContext(ctx, "passcode resend requested too early", "email", in.Email, "purpose", in.Type, "remaining", remaining)
			return nil, goerror.NewBusiness("Please wait before requesting a new code", goerror.CodeTooManyRequest,
				"retry_after", strconv.Itoa(remaining-lock))
		}
	}

	code, expiresIn, err := s.otp.Resend(ctx, in.Email, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resend passcode", "email", in.Email, "purpose", in.Type, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.issue(ctx, in.Email, purpose, code, expiresIn, true)

	out := &ResendOutput{ExpiresIn: expiresIn}
	if s.exposeCode() {
		out.Code = code
	}

	return out, nil
}
