package entity

import "testing"

func TestPurposeLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"email_verification": "Email Verification",
		"password_reset":     "Password Reset",
		"2fa":                "Two-Factor Authentication",
	}
	for in, want := range tests {
		if got := PurposeLabel(in); got != want {
			t.Errorf("PurposeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
