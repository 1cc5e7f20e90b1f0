package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"server", NewServer(errors.New("db down")), http.StatusInternalServerError},
		{"not found", NewBusiness("no active code", CodeNotFound), http.StatusNotFound},
		{"gone", NewBusiness("code expired", CodeGone), http.StatusGone},
		{"too many", NewBusiness("locked", CodeTooManyRequest), http.StatusTooManyRequests},
		{"invalid format", NewInvalidFormat(), http.StatusBadRequest},
		{"invalid input", NewInvalidInput(errors.New("bad")), http.StatusUnprocessableEntity},
		{"conflict", NewBusiness("already verified", CodeConflict), http.StatusConflict},
		{"unauthorized", NewBusiness("bad token", CodeUnauthorized), http.StatusUnauthorized},
		{"forbidden", NewBusiness("csrf", CodeForbidden), http.StatusForbidden},
		{"unknown code", NewBusiness("odd", Code(99)), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ge *Error
			if !errors.As(tt.err, &ge) {
				t.Fatalf("%T is not *Error", tt.err)
			}
			if got := ge.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewBusiness_Fields(t *testing.T) {
	err := NewBusiness("Invalid code", CodeInvalidFormat, "attempts_remaining", "3")

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("%T is not *Error", err)
	}
	if ge.Type() != TypeBusiness {
		t.Fatalf("Type() = %d, want business", ge.Type())
	}
	if got := ge.Fields()["attempts_remaining"]; got != "3" {
		t.Fatalf("attempts_remaining = %q", got)
	}
	if ge.Error() != "Invalid code" {
		t.Fatalf("Error() = %q", ge.Error())
	}
}

func TestNewInvalidInput_Pairs(t *testing.T) {
	err := NewInvalidInput(nil, "type", "unknown otp type")

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("%T is not *Error", err)
	}
	if ge.Code() != CodeInvalidInput || ge.Fields()["type"] != "unknown otp type" {
		t.Fatalf("code = %d fields = %v", ge.Code(), ge.Fields())
	}

	err = NewInvalidInput(nil, "dangling")
	if !errors.As(err, &ge) || ge.Code() != CodeInvalidFormat {
		t.Fatalf("odd pairs should be invalid format, got %v", err)
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("resend: %w", NewBusiness("too early", CodeTooManyRequest))

	if got := CodeOf(wrapped); got != CodeTooManyRequest {
		t.Fatalf("CodeOf(wrapped) = %v", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Fatalf("CodeOf(plain) = %v", got)
	}
}

func TestNewServer_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: refused")
	err := NewServer(cause)

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("%T is not *Error", err)
	}
	if ge.Msg() != "Internal server error" {
		t.Fatalf("Msg() = %q", ge.Msg())
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause is not reachable through Unwrap")
	}
	if ge.Type() != TypeServer {
		t.Fatalf("Type() = %d, want server", ge.Type())
	}
}
