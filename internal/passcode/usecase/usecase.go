package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/gootp/internal/passcode/entity"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/hash"
	"github.com/shandysiswandi/gootp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/jwt"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type PasscodeIssuedEvent struct {
	Email     string
	Purpose   otp.Purpose
	Code      string
	ExpiresIn int
	Resent    bool
}

type repoMessaging interface {
	PublishPasscodeIssued(ctx context.Context, msg PasscodeIssuedEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	MarkEmailVerified(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type otpManager interface {
	Generate(ctx context.Context, identity string, purpose otp.Purpose) (string, int, error)
	Verify(ctx context.Context, identity, code string, purpose otp.Purpose) error
	Resend(ctx context.Context, identity string, purpose otp.Purpose) (string, int, error)
	HasValid(ctx context.Context, identity string, purpose otp.Purpose) (bool, error)
	RemainingTime(ctx context.Context, identity string, purpose otp.Purpose) (int, error)
	Stats(ctx context.Context) (otp.Stats, error)
}

// authorizer is satisfied by *casbin.Enforcer.
type authorizer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	otp           otpManager
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Tracker
	validator     validator.Validator
	cfg           config.Config
	password      hash.Hash
	ins           instrument.Instrumentation
	enforcer      authorizer

	issued        metric.Int64Counter
	verifications metric.Int64Counter
}

type Dependency struct {
	OTP           otpManager
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Tracker
	Validator     validator.Validator
	Config        config.Config
	Password      hash.Hash
	Instrument    instrument.Instrumentation
	Enforcer      authorizer
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("passcode.usecase")

	issued, err := meter.Int64Counter("passcode.issued",
		metric.WithDescription("Codes generated or resent"))
	if err != nil {
		slog.Warn("failed to create passcode.issued counter", "error", err)
		issued = noop.Int64Counter{}
	}

	verifications, err := meter.Int64Counter("passcode.verifications",
		metric.WithDescription("Verification attempts by outcome"))
	if err != nil {
		slog.Warn("failed to create passcode.verifications counter", "error", err)
		verifications = noop.Int64Counter{}
	}

	return &Usecase{
		otp:           dep.OTP,
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		password:      dep.Password,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		issued:        issued,
		verifications: verifications,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("passcode.usecase").Start(ctx, name)
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := s.enforcer.Enforce(clm.Subject, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "subject", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}

// exposeCode reports whether generated codes may be echoed in responses.
// Never in production, whatever the flag says.
func (s *Usecase) exposeCode() bool {
	return s.cfg.GetBool("modules.passcode.expose_code") && s.cfg.GetString("app.env") != "production"
}

// issue records the metric and hands the code to the notification channel.
// A publish failure is logged only; the code is already stored and the
// caller can resend.
func (s *Usecase) issue(ctx context.Context, email string, p otp.Purpose, code string, expiresIn int, resent bool) {
	s.issued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", p.String()),
		attribute.Bool("resent", resent),
	))

	if err := s.repoMessaging.PublishPasscodeIssued(ctx, PasscodeIssuedEvent{
		Email:     email,
		Purpose:   p,
		Code:      code,
		ExpiresIn: expiresIn,
		Resent:    resent,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish passcode issued", "email", email, "purpose", p.String(), "error", err)
	}
}

func (s *Usecase) recordVerification(ctx context.Context, p otp.Purpose, o entity.VerifyOutcome) {
	s.verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", p.String()),
		attribute.String("outcome", o.String()),
	))
}

// verifyCode runs Manager.Verify and translates its outcomes into business
// errors.
func (s *Usecase) verifyCode(ctx context.Context, email, code string, p otp.Purpose) error {
	err := s.otp.Verify(ctx, email, code, p)

	var invalid *otp.InvalidCodeError
	switch {
	case err == nil:
		s.recordVerification(ctx, p, entity.VerifyOutcomeSuccess)
		return nil

	case errors.As(err, &invalid):
		s.recordVerification(ctx, p, entity.VerifyOutcomeInvalid)
		slog.WarnContext(ctx, "invalid passcode submitted", "email", email, "purpose", p.String(), "attempts_remaining", invalid.Remaining)
		return goerror.NewBusiness("Invalid code", goerror.CodeInvalidInput,
			"attempts_remaining", strconv.Itoa(invalid.Remaining))

	case errors.Is(err, otp.ErrExpired):
		s.recordVerification(ctx, p, entity.VerifyOutcomeExpired)
		return goerror.NewBusiness("Code has expired, please request a new one", goerror.CodeGone)

	case errors.Is(err, otp.ErrAttemptsExceeded):
		s.recordVerification(ctx, p, entity.VerifyOutcomeLocked)
		slog.WarnContext(ctx, "passcode locked after too many attempts", "email", email, "purpose", p.String())
		return goerror.NewBusiness("Too many failed attempts, please request a new one", goerror.CodeTooManyRequest)

	case errors.Is(err, otp.ErrNotFoundOrExpired):
		s.recordVerification(ctx, p, entity.VerifyOutcomeNotFound)
		return goerror.NewBusiness("No active code found, please request a new one", goerror.CodeNotFound)

	default:
		s.recordVerification(ctx, p, entity.VerifyOutcomeError)
		slog.ErrorContext(ctx, "failed to verify passcode", "email", email, "purpose", p.String(), "error", err)
		return goerror.NewServer(err)
	}
}
