package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/passcode/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/csrf"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
)

type fakeUC struct {
	sendIn   usecase.SendInput
	statusIn usecase.StatusInput
	err      error
}

func (f *fakeUC) Send(_ context.Context, in usecase.SendInput) (*usecase.SendOutput, error) {
	f.sendIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SendOutput{ExpiresIn: 600, Code: "123456"}, nil
}

func (f *fakeUC) Verify(context.Context, usecase.VerifyInput) error { return f.err }

func (f *fakeUC) Resend(context.Context, usecase.ResendInput) (*usecase.ResendOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ResendOutput{ExpiresIn: 600}, nil
}

func (f *fakeUC) ResetPassword(context.Context, usecase.ResetPasswordInput) error { return f.err }

func (f *fakeUC) Status(_ context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error) {
	f.statusIn = in
	return &usecase.StatusOutput{HasValidOTP: true, RemainingTime: 42, CanResend: true}, nil
}

func (f *fakeUC) Stats(context.Context) (*usecase.StatsOutput, error) {
	return &usecase.StatsOutput{}, nil
}

type fakeMinter struct{}

func (fakeMinter) Mint() (csrf.Token, error) {
	return csrf.Token{Value: "n.1.sig", ExpiresAt: time.Unix(1, 0).UTC()}, nil
}

type rejectAll struct{}

func (rejectAll) Verify(string) error { return csrf.ErrSignature }

func newServer(uc *fakeUC, verifier router.CSRFVerifier) http.Handler {
	r := router.NewRouter(router.Config{
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
		CSRF:       verifier,
	})
	RegisterHTTPEndpoint(r, uc, fakeMinter{})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func TestHTTPEndpoint_Send(t *testing.T) {
	t.Parallel()

	uc := &fakeUC{}
	h := newServer(uc, nil)

	code, body := do(t, h, http.MethodPost, "/api/v1/otp/send", `{"email":"a@example.com","type":"2fa"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", code, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["expires_in"] != float64(600) || data["code"] != "123456" {
		t.Fatalf("data = %v", data)
	}
	if uc.sendIn.Email != "a@example.com" || uc.sendIn.Type != "2fa" {
		t.Fatalf("usecase input = %+v", uc.sendIn)
	}

	code, _ = do(t, h, http.MethodPost, "/api/v1/otp/send", `{"email":"a@example.com","extra":1}`)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", code)
	}
}

func TestHTTPEndpoint_ErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{goerror.NewBusiness("No active code found, please request a new one", goerror.CodeNotFound), http.StatusNotFound},
		{goerror.NewBusiness("Code has expired, please request a new one", goerror.CodeGone), http.StatusGone},
		{goerror.NewBusiness("Too many failed attempts", goerror.CodeTooManyRequest), http.StatusTooManyRequests},
		{goerror.NewBusiness("Invalid code", goerror.CodeInvalidInput, "attempts_remaining", "3"), http.StatusUnprocessableEntity},
		{errors.New("raw"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		h := newServer(&fakeUC{err: tt.err}, nil)
		code, body := do(t, h, http.MethodPost, "/api/v1/otp/verify", `{"email":"a@example.com","code":"123456","type":"2fa"}`)
		if code != tt.want {
			t.Errorf("err %v: status = %d, want %d", tt.err, code, tt.want)
		}
		if tt.want == http.StatusUnprocessableEntity {
			fields, _ := body["error"].(map[string]any)
			if fields["attempts_remaining"] != "3" {
				t.Errorf("error fields = %v", body["error"])
			}
		}
	}
}

func TestHTTPEndpoint_Status(t *testing.T) {
	t.Parallel()

	uc := &fakeUC{}
	h := newServer(uc, nil)

	code, body := do(t, h, http.MethodGet, "/api/v1/otp/status/a@example.com?type=password_reset", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if uc.statusIn.Email != "a@example.com" || uc.statusIn.Type != "password_reset" {
		t.Fatalf("usecase input = %+v", uc.statusIn)
	}
	data, _ := body["data"].(map[string]any)
	if data["has_valid_otp"] != true || data["remaining_time"] != float64(42) || data["can_resend"] != true {
		t.Fatalf("data = %v", data)
	}
}

func TestHTTPEndpoint_StatsRequiresToken(t *testing.T) {
	t.Parallel()

	code, _ := do(t, newServer(&fakeUC{}, nil), http.MethodGet, "/api/v1/otp/stats", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
}

func TestHTTPEndpoint_CSRF(t *testing.T) {
	t.Parallel()

	h := newServer(&fakeUC{}, rejectAll{})

	code, body := do(t, h, http.MethodGet, "/api/v1/csrf-token", "")
	if code != http.StatusOK {
		t.Fatalf("csrf-token status = %d", code)
	}
	data, _ := body["data"].(map[string]any)
	if data["csrf_token"] != "n.1.sig" {
		t.Fatalf("data = %v", data)
	}

	code, _ = do(t, h, http.MethodPost, "/api/v1/otp/send", `{"email":"a@example.com","type":"2fa"}`)
	if code != http.StatusForbidden {
		t.Fatalf("POST without token status = %d, want 403", code)
	}
}
