package inbound

import (
	"context"

	"github.com/shandysiswandi/gootp/internal/passcode/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/csrf"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
)

type uc interface {
	Send(ctx context.Context, in usecase.SendInput) (*usecase.SendOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) error
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.ResendOutput, error)
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) error
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
	Stats(ctx context.Context) (*usecase.StatsOutput, error)
}

type csrfMinter interface {
	Mint() (csrf.Token, error)
}

// RegisterHTTPEndpoint mounts the passcode routes. minter may be nil when
// CSRF protection is disabled.
func RegisterHTTPEndpoint(r *router.Router, uc uc, minter csrfMinter) {
	end := &HTTPEndpoint{uc: uc, csrf: minter}

	r.GET("/api/v1/csrf-token", end.CSRFToken)

	r.POST("/api/v1/otp/send", end.Send)
	r.POST("/api/v1/otp/verify", end.Verify)
	r.POST("/api/v1/otp/resend", end.Resend)
	r.POST("/api/v1/otp/reset-password", end.ResetPassword)
	r.GET("/api/v1/otp/status/:email", end.Status)

	r.GET("/api/v1/otp/stats", end.Stats) // need authenticated & authorization
}
