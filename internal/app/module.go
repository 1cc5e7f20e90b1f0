package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gootp/internal/notification"
	"github.com/shandysiswandi/gootp/internal/passcode"
)

func (a *App) initModules() {
	if err := passcode.New(passcode.Dependency{
		DBConn:      a.dbConn,
		OTP:         a.otp,
		Enforcer:    a.casbin,
		Router:      a.router,
		Idempotency: a.idemp,
		Messaging:   a.messaging,
		Config:      a.config,
		Instrument:  a.ins,
		Password:    a.password,
		Validator:   a.validator,
		CSRF:        a.csrf,
	}); err != nil {
		slog.Error("failed to init module passcode", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
