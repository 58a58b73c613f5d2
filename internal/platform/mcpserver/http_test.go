package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
	"github.com/ehr/hospitalcrm/internal/platform/auth"
	"github.com/ehr/hospitalcrm/internal/platform/middleware"
	"github.com/ehr/hospitalcrm/internal/platform/telemetry"
)

type stubResolver map[string]*auth.Principal

func (r stubResolver) ResolvePrincipal(_ context.Context, email string) (*auth.Principal, error) {
	if p, ok := r[email]; ok {
		return p, nil
	}
	return nil, errors.New("unknown user")
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

var testJWT = auth.JWTConfig{Issuer: "hospital-crm", SigningKey: []byte("test-secret-key-0123456789")}

func testHTTPConfig() HTTPConfig {
	return HTTPConfig{
		BodyLimit: "1M",
		RateLimit: middleware.DefaultRateLimitConfig(),
		Auth:      &testJWT,
		Resolver: stubResolver{
			"clerk@example.org": {UserID: 3, Email: "clerk@example.org", Roles: []string{"front_desk"}, Permissions: []string{"patients.read"}},
		},
		Health: func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{"status": "OK"}) },
	}
}

func TestHandler_AuthWithoutResolver(t *testing.T) {
	reg, _ := testRegistry(t)
	s := New(reg, "hospital_crm", zerolog.Nop())
	cfg := testHTTPConfig()
	cfg.Resolver = nil
	if _, err := s.Handler(cfg); err == nil {
		t.Fatal("expected error when auth has no resolver")
	}
}

func TestHandler_HealthIsPublic(t *testing.T) {
	reg, _ := testRegistry(t)
	e, err := New(reg, "hospital_crm", zerolog.Nop()).Handler(testHTTPConfig())
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected a request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestHandler_MCPRequiresToken(t *testing.T) {
	reg, _ := testRegistry(t)
	e, err := New(reg, "hospital_crm", zerolog.Nop()).Handler(testHTTPConfig())
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Token abc"},
		{"bad signature", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, MCPPath, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestHandler_UnknownSubjectRejected(t *testing.T) {
	reg, _ := testRegistry(t)
	e, err := New(reg, "hospital_crm", zerolog.Nop()).Handler(testHTTPConfig())
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	token, err := auth.IssueToken(testJWT, "ghost@example.org", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, MCPPath, strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHTTP_PrincipalReachesTools(t *testing.T) {
	reg, b := testRegistry(t)
	e, err := New(reg, "hospital_crm", zerolog.Nop()).Handler(testHTTPConfig())
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	srv := httptest.NewServer(e)
	defer srv.Close()

	token, err := auth.IssueToken(testJWT, "clerk@example.org", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   srv.URL + MCPPath,
		HTTPClient: &http.Client{Transport: bearerTransport{token: token, base: http.DefaultTransport}},
	}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "get_patient", Arguments: map[string]any{"patient_id": 5}})
	if err != nil {
		t.Fatalf("CallTool get_patient: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %+v", res.Content)
	}
	if got := res.StructuredContent.(map[string]any)["caller"]; got != "clerk@example.org" {
		t.Errorf("caller = %v, want clerk@example.org", got)
	}

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: "create_note", Arguments: map[string]any{"body": "hello"}})
	if err != nil {
		t.Fatalf("CallTool create_note: %v", err)
	}
	if e := decodeError(t, res); e.Kind != apperr.KindForbidden {
		t.Errorf("kind = %s, want forbidden", e.Kind)
	}
	if b.begun != 1 {
		t.Errorf("transactions begun = %d, want 1 (forbidden calls never open one)", b.begun)
	}
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	reg, _ := testRegistry(t)
	metrics := telemetry.NewMetrics()
	reg.SetObserver(metrics)
	cfg := testHTTPConfig()
	cfg.Metrics = metrics
	e, err := New(reg, "hospital_crm", zerolog.Nop()).Handler(cfg)
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, HealthPath, nil))
	if _, err := reg.Call(context.Background(), "get_patient", []byte(`{"patient_id": 404}`)); err == nil {
		t.Fatal("expected not_found")
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`crm_http_requests_total{method="GET",route="/health",status="200"} 1`,
		`crm_tool_calls_total{tool="get_patient",outcome="not_found"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q\n%s", want, body)
		}
	}
}

func TestRunHTTP_StopsOnCancel(t *testing.T) {
	reg, _ := testRegistry(t)
	s := New(reg, "hospital_crm", zerolog.Nop())
	cfg := testHTTPConfig()
	cfg.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunHTTP(ctx, cfg) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunHTTP: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not stop after cancel")
	}
}
