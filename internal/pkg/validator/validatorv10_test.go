package validator

import (
	"errors"
	"testing"
)

type sendRequest struct {
	Email       string `validate:"required,email"`
	Code        string `validate:"required,otpcode"`
	NewPassword string `validate:"required,password"`
	Type        string `validate:"required,oneof=email_verification password_reset 2fa"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	valid := sendRequest{Email: "a@x.com", Code: "123456", NewPassword: "Secret123!", Type: "2fa"}
	if err := v.Validate(valid); err != nil {
		t.Fatalf("Validate(valid) error = %v", err)
	}

	tests := []struct {
		name  string
		req   sendRequest
		field string
		msg   string
	}{
		{"short code", sendRequest{Email: "a@x.com", Code: "12345", NewPassword: "Secret123!", Type: "2fa"}, "code", "Code must be exactly 6 digits"},
		{"letters in code", sendRequest{Email: "a@x.com", Code: "12a456", NewPassword: "Secret123!", Type: "2fa"}, "code", "Code must be exactly 6 digits"},
		{"short password", sendRequest{Email: "a@x.com", Code: "123456", NewPassword: "short", Type: "2fa"}, "new_password", "NewPassword must be 8-72 characters"},
		{"unknown type", sendRequest{Email: "a@x.com", Code: "123456", NewPassword: "Secret123!", Type: "sms"}, "type", "Type must be one of [email_verification password_reset 2fa]"},
		{"bad email", sendRequest{Email: "nope", Code: "123456", NewPassword: "Secret123!", Type: "2fa"}, "email", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want V10ValidationError", err)
			}
			got, ok := verr.Values()[tt.field]
			if !ok {
				t.Fatalf("no error for field %q in %v", tt.field, verr)
			}
			if tt.msg != "" && got != tt.msg {
				t.Fatalf("message = %q, want %q", got, tt.msg)
			}
		})
	}
}
