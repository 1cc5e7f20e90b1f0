package inbound

import "time"

type SendRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type SendResponse struct {
	ExpiresIn int    `json:"expires_in"`
	Code      string `json:"code,omitempty"`
}

func (SendResponse) Message() string {
	return "Verification code sent."
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Type  string `json:"type"`
}

type VerifyResponse struct {
	Verified bool `json:"verified"`
}

func (VerifyResponse) Message() string {
	return "Code verified."
}

type ResendRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type ResendResponse struct {
	ExpiresIn int    `json:"expires_in"`
	Code      string `json:"code,omitempty"`
}

func (ResendResponse) Message() string {
	return "A new verification code has been sent."
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string {
	return "Password has been reset."
}

type StatusResponse struct {
	HasValidOTP   bool `json:"has_valid_otp"`
	RemainingTime int  `json:"remaining_time"`
	CanResend     bool `json:"can_resend"`
}

type StatsResponse struct {
	TotalOutstanding int            `json:"total_outstanding"`
	CountByPurpose   map[string]int `json:"count_by_purpose"`
}

type CSRFTokenResponse struct {
	Token     string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
}
