package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

func TestUsecase_Send(t *testing.T) {
	t.Parallel()

	t.Run("publishes and echoes outside production", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")

		out, err := f.uc.Send(context.Background(), SendInput{Email: " Alice@Example.com ", Type: "email_verification"})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if out.ExpiresIn != 600 || out.Code != "123456" {
			t.Fatalf("Send() = %+v, want expires 600 and echoed code", out)
		}

		if len(f.mq.events) != 1 {
			t.Fatalf("published %d events, want 1", len(f.mq.events))
		}
		ev := f.mq.events[0]
		if ev.Email != "alice@example.com" || ev.Purpose != otp.PurposeEmailVerification || ev.Code != "123456" || ev.Resent {
			t.Fatalf("event = %+v", ev)
		}
	})

	t.Run("never echoes in production", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "app: {env: production}\nmodules: {passcode: {expose_code: true}}\n", "123456")

		out, err := f.uc.Send(context.Background(), SendInput{Email: "alice@example.com", Type: "2fa"})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if out.Code != "" {
			t.Fatalf("Send() echoed code in production")
		}
	})

	t.Run("publish failure is not fatal", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig, "123456")
		f.mq.err = context.DeadlineExceeded

		if _, err := f.uc.Send(context.Background(), SendInput{Email: "alice@example.com", Type: "2fa"}); err != nil {
			t.Fatalf("Send() error = %v, want nil", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, devConfig)

		tests := []SendInput{
			{Email: "alice@example.com", Type: "sms_login"},
			{Email: "not-an-email", Type: "2fa"},
			{Email: "", Type: ""},
		}
		for _, in := range tests {
			_, err := f.uc.Send(context.Background(), in)
			assertCode(t, err, goerror.CodeInvalidInput)
		}
		if len(f.mq.events) != 0 {
			t.Fatalf("published %d events for invalid input", len(f.mq.events))
		}
	})
}
