package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/jwt"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

type fakeJWT struct{}

func (fakeJWT) Generate(subject string) (string, error) { return "token-" + subject, nil }

func (fakeJWT) Verify(token string) (jwt.Claims, error) {
	subject, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	var c jwt.Claims
	c.Subject = subject
	return c, nil
}

type fakeCSRF struct{}

func (fakeCSRF) Verify(token string) error {
	if token != "good" {
		return errors.New("bad token")
	}
	return nil
}

func newTestRouter(t *testing.T, cfgYAML string, csrf CSRFVerifier) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	if err != nil {
		t.Fatalf("config error = %v", err)
	}

	rc := Config{Config: cfg, UUID: staticID("cid-1"), JWT: fakeJWT{}, Instrument: instrument.NewNoop()}
	if csrf != nil {
		rc.CSRF = csrf
	}
	r := NewRouter(rc)

	r.GET("/health", func(*Request) (any, error) { return map[string]string{"status": "ok"}, nil })
	r.POST("/api/v1/otp/send", func(*Request) (any, error) { return nil, nil })
	r.GET("/api/v1/otp/status/:email", func(req *Request) (any, error) {
		if req.GetParam("email") == "gone@example.com" {
			return nil, goerror.NewBusiness("code expired", goerror.CodeGone)
		}
		return nil, goerror.NewBusiness("invalid code", goerror.CodeInvalidInput, "attempts_remaining", "2")
	})
	r.GET("/api/v1/otp/stats", func(req *Request) (any, error) {
		return map[string]string{"sub": jwt.GetAuth(req.Context()).Subject}, nil
	})
	r.GET("/api/v1/otp/limited", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("slow down", goerror.CodeTooManyRequest, "retry_after", "42")
	})
	r.GET("/panic", func(*Request) (any, error) { panic("boom") })
	r.GET("/plain-error", func(*Request) (any, error) { return nil, errors.New("not a goerror") })

	return r
}

func serve(r http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", nil)

	tests := []struct {
		name       string
		method     string
		target     string
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{name: "public health", method: http.MethodGet, target: "/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "no content", method: http.MethodPost, target: "/api/v1/otp/send", wantStatus: http.StatusNoContent},
		{name: "not found", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound, wantBody: "endpoint not found"},
		{name: "method not allowed", method: http.MethodDelete, target: "/health", wantStatus: http.StatusMethodNotAllowed},
		{name: "business error fields", method: http.MethodGet, target: "/api/v1/otp/status/a@example.com", wantStatus: http.StatusUnprocessableEntity, wantBody: `"attempts_remaining":"2"`},
		{name: "gone", method: http.MethodGet, target: "/api/v1/otp/status/gone@example.com", wantStatus: http.StatusGone, wantBody: "code expired"},
		{name: "auth required", method: http.MethodGet, target: "/api/v1/otp/stats", wantStatus: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, target: "/api/v1/otp/stats", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "valid token", method: http.MethodGet, target: "/api/v1/otp/stats", headers: map[string]string{"Authorization": "Bearer token-ops"}, wantStatus: http.StatusOK, wantBody: `"sub":"ops"`},
		{name: "panic recovered", method: http.MethodGet, target: "/panic", headers: map[string]string{"Authorization": "Bearer token-ops"}, wantStatus: http.StatusInternalServerError},
		{name: "unknown error", method: http.MethodGet, target: "/plain-error", headers: map[string]string{"Authorization": "Bearer token-ops"}, wantStatus: http.StatusInternalServerError, wantBody: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(r, tt.method, tt.target, tt.headers)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body = %s, want to contain %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", nil)

	if got := serve(r, http.MethodGet, "/health", nil).Header().Get(HeaderCorrelationID); got != "cid-1" {
		t.Fatalf("generated cid = %q", got)
	}
	if got := serve(r, http.MethodGet, "/health", map[string]string{HeaderRequestID: "from-proxy"}).Header().Get(HeaderCorrelationID); got != "from-proxy" {
		t.Fatalf("forwarded cid = %q", got)
	}
}

func TestRouter_Maintenance(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"POST /api/v1/otp/send\"\n", nil)

	if rec := serve(r, http.MethodPost, "/api/v1/otp/send", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("blocked status = %d", rec.Code)
	}
	if rec := serve(r, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("open status = %d", rec.Code)
	}
}

func TestRouter_CSRF(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", fakeCSRF{})

	tests := []struct {
		name       string
		method     string
		token      string
		wantStatus int
	}{
		{name: "safe method skips check", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "missing token", method: http.MethodPost, wantStatus: http.StatusForbidden},
		{name: "bad token", method: http.MethodPost, token: "bad", wantStatus: http.StatusForbidden},
		{name: "good token", method: http.MethodPost, token: "good", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := "/api/v1/otp/send"
			if tt.method == http.MethodGet {
				target = "/health"
			}
			headers := map[string]string{}
			if tt.token != "" {
				headers[HeaderCSRFToken] = tt.token
			}

			rec := serve(r, tt.method, target, headers)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_Envelope(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", nil)

	var body struct {
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	rec := serve(r, http.MethodGet, "/health", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "request has been successfully" || body.Data["status"] != "ok" {
		t.Fatalf("envelope = %+v", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRouter_RetryAfter(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "app:\n  env: test\n", nil)

	rec := serve(r, http.MethodGet, "/api/v1/otp/limited", map[string]string{"Authorization": "Bearer token-ops"})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("Retry-After = %q, want 42", got)
	}
}
