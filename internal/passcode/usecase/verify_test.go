package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
)

func TestUsecase_Verify(t *testing.T) {
	t.Parallel()

	t.Run("wrong then right code marks email verified", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")
		ctx := context.Background()

		if _, err := f.uc.Send(ctx, SendInput{Email: "alice@example.com", Type: "email_verification"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		err := f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "000000", Type: "email_verification"})
		gerr := assertCode(t, err, goerror.CodeInvalidInput)
		if got := gerr.Fields()["attempts_remaining"]; got != "4" {
			t.Fatalf("attempts_remaining = %q, want 4", got)
		}

		if err := f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "123456", Type: "email_verification"}); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if len(f.db.verified) != 1 || f.db.verified[0] != 1 {
			t.Fatalf("verified = %v, want [1]", f.db.verified)
		}

		err = f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "123456", Type: "email_verification"})
		assertCode(t, err, goerror.CodeNotFound)
	})

	t.Run("missing account is not fatal", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")
		ctx := context.Background()

		if _, err := f.uc.Send(ctx, SendInput{Email: "carol@example.com", Type: "email_verification"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if err := f.uc.Verify(ctx, VerifyInput{Email: "carol@example.com", Code: "123456", Type: "email_verification"}); err != nil {
			t.Fatalf("Verify() error = %v, want nil", err)
		}
		if len(f.db.verified) != 0 {
			t.Fatalf("verified = %v, want none", f.db.verified)
		}
	})

	t.Run("2fa does not touch the account", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")
		ctx := context.Background()

		if _, err := f.uc.Send(ctx, SendInput{Email: "alice@example.com", Type: "2fa"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if err := f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "123456", Type: "2fa"}); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if len(f.db.verified) != 0 {
			t.Fatalf("verified = %v, want none", f.db.verified)
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")
		ctx := context.Background()

		if _, err := f.uc.Send(ctx, SendInput{Email: "alice@example.com", Type: "2fa"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		f.clock.Advance(10*time.Minute + time.Second)

		err := f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "123456", Type: "2fa"})
		assertCode(t, err, goerror.CodeGone)
	})

	t.Run("locked after max attempts", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")
		ctx := context.Background()

		if _, err := f.uc.Send(ctx, SendInput{Email: "alice@example.com", Type: "2fa"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		for range 5 {
			err := f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "999999", Type: "2fa"})
			assertCode(t, err, goerror.CodeInvalidInput)
		}

		err := f.uc.Verify(ctx, VerifyInput{Email: "alice@example.com", Code: "123456", Type: "2fa"})
		assertCode(t, err, goerror.CodeTooManyRequest)
	})

	t.Run("malformed code is a validation error", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig)
		err := f.uc.Verify(context.Background(), VerifyInput{Email: "alice@example.com", Code: "12ab56", Type: "2fa"})
		gerr := assertCode(t, err, goerror.CodeInvalidInput)
		if gerr.Type() != goerror.TypeValidation {
			t.Fatalf("error type = %v, want validation", gerr.Type())
		}
	})
}
