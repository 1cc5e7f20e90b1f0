package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/mail"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
)

type fakeMail struct {
	mu    sync.Mutex
	sent  []mail.Message
	calls int
	errs  []error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestUsecase(t *testing.T, m *fakeMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    company_name: Acme\n"))
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator error = %v", err)
	}

	return NewNotification(Dependency{
		Config:     cfg,
		Clock:      clock.NewManual(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
		Validator:  v,
		RepoMail:   m,
		Instrument: instrument.NewNoop(),
		RetryBase:  time.Millisecond,
	})
}

var validInput = ConsumePasscodeIssuedInput{
	Email:     "alice@example.com",
	Purpose:   "password_reset",
	Code:      "123456",
	ExpiresIn: 600,
}

func TestConsumePasscodeIssued_Sends(t *testing.T) {
	t.Parallel()

	m := &fakeMail{}
	uc := newTestUsecase(t, m)

	if err := uc.ConsumePasscodeIssued(context.Background(), validInput); err != nil {
		t.Fatalf("ConsumePasscodeIssued() error = %v", err)
	}

	if len(m.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(m.sent))
	}
	msg := m.sent[0]
	if msg.Subject != "Your Password Reset code" || msg.From != "no-reply@gootp.local" || msg.To[0] != "alice@example.com" {
		t.Fatalf("message envelope = %+v", msg)
	}
	for _, body := range []string{msg.TextBody, msg.HTMLBody} {
		if !strings.Contains(body, "123456") || !strings.Contains(body, "10 minutes") || !strings.Contains(body, "2026 Acme") {
			t.Fatalf("body missing fields: %q", body)
		}
	}
}

func TestConsumePasscodeIssued_ResentSubject(t *testing.T) {
	t.Parallel()

	m := &fakeMail{}
	uc := newTestUsecase(t, m)

	in := validInput
	in.Purpose = "2fa"
	in.Resent = true
	if err := uc.ConsumePasscodeIssued(context.Background(), in); err != nil {
		t.Fatalf("ConsumePasscodeIssued() error = %v", err)
	}
	if got := m.sent[0].Subject; got != "Your new Two-Factor Authentication code" {
		t.Fatalf("subject = %q", got)
	}
}

func TestConsumePasscodeIssued_Retries(t *testing.T) {
	t.Parallel()

	smtpDown := errors.New("dial tcp: connection refused")

	t.Run("recovers within limit", func(t *testing.T) {
		t.Parallel()

		m := &fakeMail{errs: []error{smtpDown, smtpDown}}
		uc := newTestUsecase(t, m)

		if err := uc.ConsumePasscodeIssued(context.Background(), validInput); err != nil {
			t.Fatalf("ConsumePasscodeIssued() error = %v", err)
		}
		if m.calls != 3 || len(m.sent) != 1 {
			t.Fatalf("calls = %d, sent = %d, want 3 and 1", m.calls, len(m.sent))
		}
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		t.Parallel()

		m := &fakeMail{errs: []error{smtpDown, smtpDown, smtpDown, nil}}
		uc := newTestUsecase(t, m)

		err := uc.ConsumePasscodeIssued(context.Background(), validInput)
		if !errors.Is(err, smtpDown) {
			t.Fatalf("error = %v, want smtpDown", err)
		}
		if m.calls != 3 {
			t.Fatalf("calls = %d, want 3", m.calls)
		}
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		t.Parallel()

		m := &fakeMail{errs: []error{mail.ErrHeaderInjection}}
		uc := newTestUsecase(t, m)

		if err := uc.ConsumePasscodeIssued(context.Background(), validInput); !errors.Is(err, mail.ErrHeaderInjection) {
			t.Fatalf("error = %v, want ErrHeaderInjection", err)
		}
		if m.calls != 1 {
			t.Fatalf("calls = %d, want 1", m.calls)
		}
	})
}

func TestConsumePasscodeIssued_DropsInvalidPayload(t *testing.T) {
	t.Parallel()

	m := &fakeMail{}
	uc := newTestUsecase(t, m)

	in := validInput
	in.Code = "12"
	if err := uc.ConsumePasscodeIssued(context.Background(), in); err != nil {
		t.Fatalf("ConsumePasscodeIssued() error = %v, want nil", err)
	}
	if m.calls != 0 {
		t.Fatalf("calls = %d, want 0", m.calls)
	}
}
