package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ehr/hospitalcrm/internal/platform/auth"
	"github.com/ehr/hospitalcrm/internal/platform/middleware"
	"github.com/ehr/hospitalcrm/internal/platform/telemetry"
)

const (
	MCPPath     = "/mcp"
	HealthPath  = "/health"
	MetricsPath = "/metrics"

	shutdownTimeout = 10 * time.Second
)

type HTTPConfig struct {
	Addr      string
	BodyLimit string
	RateLimit middleware.RateLimitConfig
	// Auth enables bearer authentication on /mcp when non-nil. Resolver
	// must be set with it.
	Auth     *auth.JWTConfig
	Resolver auth.PrincipalResolver
	// Health serves GET /health when set.
	Health echo.HandlerFunc
	// Metrics counts requests and serves GET /metrics when set.
	Metrics *telemetry.Metrics
}

// Handler assembles the echo router: infrastructure middleware for every
// route, then authentication and rate limiting on the MCP endpoint only.
func (s *Server) Handler(cfg HTTPConfig) (*echo.Echo, error) {
	if cfg.Auth != nil && cfg.Resolver == nil {
		return nil, errors.New("mcpserver: auth configured without a principal resolver")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(s.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(s.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
		e.GET(MetricsPath, cfg.Metrics.Handler())
	}

	if cfg.Health != nil {
		e.GET(HealthPath, cfg.Health)
	}

	shared := s.MCP()
	var mcpHandler http.Handler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return shared },
		&mcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	var routeMW []echo.MiddlewareFunc
	if cfg.Auth != nil {
		mcpHandler = mcpauth.RequireBearerToken(auth.MCPTokenVerifier(), nil)(mcpHandler)
		routeMW = append(routeMW, auth.JWTMiddleware(*cfg.Auth, cfg.Resolver))
	}
	routeMW = append(routeMW, middleware.RateLimit(cfg.RateLimit))

	e.Any(MCPPath, echo.WrapHandler(mcpHandler), routeMW...)
	return e, nil
}

// RunHTTP serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) RunHTTP(ctx context.Context, cfg HTTPConfig) error {
	e, err := s.Handler(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("transport", "http").Str("addr", cfg.Addr).Bool("auth", cfg.Auth != nil).Msg("serving MCP")
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("mcp http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down http transport")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcp http shutdown: %w", err)
	}
	return nil
}
