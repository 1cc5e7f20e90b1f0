package inbound

import (
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/passcode/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the passcode flows.
type HTTPEndpoint struct {
	uc   uc
	csrf csrfMinter
}

// Send issues a code for an email and purpose.
// @Summary Send verification code
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse}
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Send(r.Context(), usecase.SendInput{
		Email: req.Email,
		Type:  req.Type,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{ExpiresIn: resp.ExpiresIn, Code: resp.Code}, nil
}

// Verify checks a submitted code.
// @Summary Verify code
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse}
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Failure 422 {object} router.errorResponse "Invalid code, error.attempts_remaining is set"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Email: req.Email,
		Code:  req.Code,
		Type:  req.Type,
	}); err != nil {
		return nil, err
	}

	return VerifyResponse{Verified: true}, nil
}

// Resend replaces the outstanding code.
// @Summary Resend code
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body ResendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=ResendResponse}
// @Failure 429 {object} router.errorResponse "Resend requested too early, error.retry_after is set"
// @Router /api/v1/otp/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Email: req.Email,
		Type:  req.Type,
	})
	if err != nil {
		return nil, err
	}

	return ResendResponse{ExpiresIn: resp.ExpiresIn, Code: resp.Code}, nil
}

// ResetPassword sets a new password using a password_reset code.
// @Summary Reset password
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset payload"
// @Success 200 {object} router.successResponse{data=ResetPasswordResponse}
// @Failure 404 {object} router.errorResponse "No active code or unknown account"
// @Failure 409 {object} router.errorResponse "Reset already running or just completed"
// @Router /api/v1/otp/reset-password [post]
func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}

// Status reports whether a code is outstanding.
// @Summary Code status
// @Tags Passcode
// @Produce json
// @Param email path string true "Email"
// @Param type query string false "Purpose, defaults to email_verification"
// @Success 200 {object} router.successResponse{data=StatusResponse}
// @Router /api/v1/otp/status/{email} [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{
		Email: r.GetParam("email"),
		Type:  r.GetQuery("type"),
	})
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		HasValidOTP:   resp.HasValidOTP,
		RemainingTime: resp.RemainingTime,
		CanResend:     resp.CanResend,
	}, nil
}

// Stats returns outstanding code counts.
// @Summary Code statistics
// @Tags Passcode, Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=StatsResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/v1/otp/stats [get]
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	resp, err := h.uc.Stats(r.Context())
	if err != nil {
		return nil, err
	}

	return StatsResponse{
		TotalOutstanding: resp.TotalOutstanding,
		CountByPurpose:   resp.CountByPurpose,
	}, nil
}

// CSRFToken mints a token for the X-CSRF-Token header.
// @Summary CSRF token
// @Tags Security
// @Produce json
// @Success 200 {object} router.successResponse{data=CSRFTokenResponse}
// @Router /api/v1/csrf-token [get]
func (h *HTTPEndpoint) CSRFToken(r *router.Request) (any, error) {
	if h.csrf == nil {
		return nil, goerror.NewBusiness("CSRF protection is disabled", goerror.CodeNotFound)
	}

	tok, err := h.csrf.Mint()
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to mint csrf token", "error", err)
		return nil, goerror.NewServer(err)
	}

	return CSRFTokenResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt}, nil
}
