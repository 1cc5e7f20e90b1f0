package passcode

import (
	"context"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gootp/internal/passcode/inbound"
	"github.com/shandysiswandi/gootp/internal/passcode/outbound/db"
	"github.com/shandysiswandi/gootp/internal/passcode/outbound/mq"
	"github.com/shandysiswandi/gootp/internal/passcode/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/csrf"
	"github.com/shandysiswandi/gootp/internal/pkg/hash"
	"github.com/shandysiswandi/gootp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	OTP         *otp.Manager               `validate:"required"`
	Enforcer    *casbin.Enforcer           `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Tracker        `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	Password    hash.Hash                  `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	// CSRF is nil when app.csrf.enabled is false.
	CSRF *csrf.CSRF
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	if dep.Config.GetBool("database.auto_migrate") {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx, dep.DBConn); err != nil {
			return err
		}
	}

	uc := usecase.New(usecase.Dependency{
		OTP:           dep.OTP,
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      dep.Password,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
	})

	if dep.CSRF != nil {
		inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.CSRF)
	} else {
		inbound.RegisterHTTPEndpoint(dep.Router, uc, nil)
	}

	return nil
}
