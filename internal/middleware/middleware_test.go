package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accounts/api/internal/metrics"
	"accounts/api/internal/security"
	"accounts/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	verifyFn func(token string) (security.Principal, error)
}

func (s stubVerifier) Verify(token string) (security.Principal, error) {
	return s.verifyFn(token)
}

type stubAuthorizer struct {
	checkFn func(ctx context.Context, caller security.Principal, rule security.Rule) error
}

func (s stubAuthorizer) Check(ctx context.Context, caller security.Principal, rule security.Rule) error {
	return s.checkFn(ctx, caller, rule)
}

func principalEcho(c *gin.Context) {
	p, ok := PrincipalFrom(c)
	if !ok {
		c.Status(http.StatusTeapot)
		return
	}
	c.String(http.StatusOK, p.ID)
}

func TestAuth(t *testing.T) {
	verifier := stubVerifier{verifyFn: func(token string) (security.Principal, error) {
		switch token {
		case "good":
			return security.Principal{ID: "u1"}, nil
		case "old":
			return security.Principal{}, security.ErrTokenExpired
		}
		return security.Principal{}, security.ErrInvalidToken
	}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"missing_token"}`},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"missing_token"}`},
		{name: "invalid", header: "Bearer forged", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"invalid_token"}`},
		{name: "expired", header: "Bearer old", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"token_expired"}`},
		{name: "valid", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", Auth(verifier), principalEcho)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantStatus int
	}{
		{name: "admin", checkErr: nil, wantStatus: http.StatusOK},
		{name: "not admin", checkErr: service.ErrUnauthorized, wantStatus: http.StatusForbidden},
		{name: "store down", checkErr: errors.New("pool closed"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := stubAuthorizer{checkFn: func(_ context.Context, caller security.Principal, rule security.Rule) error {
				if rule.String() != "admin_only" {
					t.Errorf("rule = %s, want admin_only", rule)
				}
				return tt.checkErr
			}}
			r := gin.New()
			r.GET("/admin", func(c *gin.Context) {
				c.Set(principalKey, security.Principal{ID: "u1"})
				c.Next()
			}, RequireAdmin(authz), principalEcho)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdminWithoutPrincipal(t *testing.T) {
	authz := stubAuthorizer{checkFn: func(context.Context, security.Principal, security.Rule) error {
		t.Error("Check called without a principal")
		return nil
	}}
	r := gin.New()
	r.GET("/admin", RequireAdmin(authz), principalEcho)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(requestIDHeader) != "abc-123" {
		t.Errorf("propagated id = %q / %q", w.Body.String(), w.Header().Get(requestIDHeader))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() == "" || w.Body.String() != w.Header().Get(requestIDHeader) {
		t.Errorf("generated id = %q / %q", w.Body.String(), w.Header().Get(requestIDHeader))
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if w.Body.String() != `{"error":"internal_server_error"}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allowed origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin echoed: %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2, metrics.Nop{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/signin", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := call("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	w := call("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
	}
	if w := call("10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}

	now = now.Add(2 * time.Second)
	if w := call("10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("after refill status = %d, want 200", w.Code)
	}

	now = now.Add(time.Hour)
	if removed := rl.Sweep(); removed != 2 || rl.Len() != 0 {
		t.Errorf("Sweep() removed %d, %d left", removed, rl.Len())
	}
}

func TestLoggerRecordsRoute(t *testing.T) {
	rec := &recordingRecorder{}
	r := gin.New()
	r.Use(Logger(zerolog.Nop(), rec))
	r.GET("/api/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))

	if rec.route != "/api/users/:id" || rec.status != http.StatusNoContent {
		t.Errorf("recorded %q %d", rec.route, rec.status)
	}
}

type recordingRecorder struct {
	metrics.Nop
	route  string
	status int
}

func (r *recordingRecorder) RecordRequest(_ string, route string, status int, _ time.Duration) {
	r.route = route
	r.status = status
}
