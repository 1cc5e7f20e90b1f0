package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

type VerifyInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,otpcode"`
	Type  string `validate:"required,oneof=email_verification password_reset 2fa"`
}

// Verify checks a submitted code. A verified email_verification code also
// marks the account's email as verified; a missing account is not an error
// because codes may be issued before sign-up completes.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) error {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	purpose := otp.Purpose(in.Type)

	if err := s.verifyCode(ctx, in.Email, in.Code, purpose); err != nil {
		return err
	}

	if purpose != otp.PurposeEmailVerification {
		return nil
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verified email has no account", "email", in.Email)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if user.EmailVerified {
		return nil
	}

	if err := s.repoDB.MarkEmailVerified(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark email verified", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
