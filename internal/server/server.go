package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"specwire/internal/config"
	"specwire/internal/engine"
	"specwire/internal/outcome"
)

const (
	maxBodyBytes        = 10 << 20 // 10 MiB; provider specs with many models get large
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 120 * time.Second // run requests wait on upstream providers
	idleTimeout         = 120 * time.Second

	// maxRunTimeoutSeconds caps caller-supplied run timeouts below
	// writeTimeout; anything longer would be cut off by the write deadline
	// before the upstream request completes.
	maxRunTimeoutSeconds = 100
)

type Server struct {
	cfg     config.Config
	engine  *engine.Engine
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = taxonomyErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))

	srv := &Server{
		cfg:     cfg,
		engine:  eng,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	slog.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.POST("/v1/translate", s.handleTranslate)
	s.app.POST("/v1/validate", s.handleValidate)
	s.app.POST("/v1/run", s.handleRun)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type translateRequest struct {
	PromptSpec   json.RawMessage `json:"prompt_spec"`
	ProviderSpec json.RawMessage `json:"provider_spec"`
	ModelID      string          `json:"model_id"`
	Mode         string          `json:"mode"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	out, err := s.engine.Translate(engine.TranslateInput{
		PromptSpec:   req.PromptSpec,
		ProviderSpec: req.ProviderSpec,
		ModelID:      req.ModelID,
		Mode:         req.Mode,
	})
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, out)
}

type validateRequest struct {
	Spec     json.RawMessage `json:"spec"`
	SpecType string          `json:"spec_type"`
	Mode     string          `json:"mode"`
}

func (s *Server) handleValidate(c echo.Context) error {
	var req validateRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	out, err := s.engine.Validate(req.Spec, req.SpecType, req.Mode)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, out)
}

type runRequest struct {
	Request        json.RawMessage `json:"request"`
	TimeoutSeconds int             `json:"timeout_seconds"`
}

func (s *Server) handleRun(c echo.Context) error {
	var req runRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	timeout := req.TimeoutSeconds
	if timeout == 0 {
		timeout = s.cfg.Engine.DefaultTimeoutSeconds
	}
	if timeout > maxRunTimeoutSeconds {
		return outcome.Errorf(outcome.InvalidInput,
			"timeout_seconds %d exceeds the service maximum of %d", timeout, maxRunTimeoutSeconds)
	}

	out, err := s.engine.Run(c.Request().Context(), req.Request, timeout)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, out)
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return outcome.New(outcome.InvalidInput, "request body is required")
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return outcome.Wrap(outcome.JsonError, "request body is not valid JSON", err)
		}
		return outcome.Wrap(outcome.InvalidInput, "invalid request payload", err)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return outcome.New(outcome.InvalidInput, "request body must contain a single JSON object")
	}
	return nil
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusFor maps taxonomy codes onto HTTP statuses. Upstream failures report
// as gateway errors so callers can tell local rejections from provider ones.
func statusFor(code outcome.Code) int {
	switch code {
	case outcome.InvalidInput, outcome.JsonError, outcome.Utf8Error, outcome.NullPointer:
		return http.StatusBadRequest
	case outcome.ProviderNotFound, outcome.ModelNotFound:
		return http.StatusNotFound
	case outcome.RateLimitError:
		return http.StatusTooManyRequests
	case outcome.TimeoutError:
		return http.StatusGatewayTimeout
	case outcome.NetworkError, outcome.AuthenticationError:
		return http.StatusBadGateway
	case outcome.NotImplemented:
		return http.StatusNotImplemented
	case outcome.Cancelled:
		// Client closed request; nginx convention.
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, code outcome.Code, message string) error {
	var payload errorBody
	payload.Error.Code = int(code)
	payload.Error.Kind = code.String()
	payload.Error.Message = message
	return c.JSON(statusFor(code), payload)
}

func taxonomyErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var classified *outcome.Error
	if errors.As(err, &classified) {
		_ = writeError(c, classified.Code, classified.Message)
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		var payload errorBody
		payload.Error.Code = int(outcome.InvalidInput)
		payload.Error.Kind = outcome.InvalidInput.String()
		payload.Error.Message = fmt.Sprintf("%v", echoErr.Message)
		_ = c.JSON(echoErr.Code, payload)
		return
	}

	slog.Error("unclassified handler error", "error", err)
	_ = writeError(c, outcome.InternalError, "internal server error")
}

func printStartupBanner(port int) {
	host := "127.0.0.1"
	fmt.Println()
	fmt.Println("specwire ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /v1/translate")
	fmt.Println("  POST /v1/validate")
	fmt.Println("  POST /v1/run")
	fmt.Printf("Example:\n  curl http://%s:%d/v1/validate -H 'Content-Type: application/json' -d '{\"spec_type\":\"prompt_spec\",\"mode\":\"basic\",\"spec\":{\"messages\":[{\"role\":\"user\",\"content\":\"hello\"}]}}'\n\n", host, port)
}
