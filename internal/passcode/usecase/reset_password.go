package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

type ResetPasswordInput struct {
	Email       string `validate:"required,email"`
	Code        string `validate:"required,otpcode"`
	NewPassword string `validate:"required,password"`
}

// ResetPassword consumes a password_reset code and stores the new password
// hash. Requests for the same email are serialized; a failed attempt frees
// the key so the user can retry with the right code.
func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	key := "passcode:reset-password:" + in.Email
	err := idempotency.Exec(ctx, s.idemp, key, func(ctx context.Context) error {
		return s.resetPassword(ctx, in)
	}, idempotency.WithReleaseOnError(), idempotency.WithStateTTL(s.cfg.GetSecond("modules.passcode.reset_lock_seconds")))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewBusiness("Password reset already in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyFailed):
		return goerror.NewBusiness("Password was reset recently, please try again later", goerror.CodeConflict)
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return gerr
	}

	slog.ErrorContext(ctx, "failed to run password reset", "email", in.Email, "error", err)
	return goerror.NewServer(err)
}

func (s *Usecase) resetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := s.verifyCode(ctx, in.Email, in.Code, otp.PurposePasswordReset); err != nil {
		return err
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset for unknown account", "email", in.Email)
		return goerror.NewBusiness("Account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	hashed, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdatePasswordHash(ctx, user.ID, string(hashed)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update password hash", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
