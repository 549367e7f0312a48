// Package server exposes project generation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"

	"github.com/syssam/crudgen/compiler/gen"
	"github.com/syssam/crudgen/compiler/load"
	"github.com/syssam/crudgen/internal/history"
)

// DefaultListLimit is the number of runs returned by GET /crud/runs when no
// limit is given.
const DefaultListLimit = 50

// Config configures a Server.
type Config struct {
	// Bind is the listen address, e.g. ":8080".
	Bind string
	// Generator runs the generation pipeline. Nil selects gen.NewGenerator(nil).
	Generator *gen.Generator
	// History records every POST /crud. Nil disables the run endpoints.
	History *history.Store
	Logger  *slog.Logger
	// Registry receives the HTTP and generation metrics. Nil creates a
	// private registry.
	Registry *prometheus.Registry
}

// Server serves the generation API.
type Server struct {
	echo    *echo.Echo
	httpd   *http.Server
	gen     *gen.Generator
	history *history.Store
	logger  *slog.Logger
	metrics *metrics
}

// New builds the echo router and the HTTP server around it.
func New(cfg Config) *Server {
	if cfg.Generator == nil {
		cfg.Generator = gen.NewGenerator(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	e := echo.New()
	srv := &Server{
		echo:    e,
		gen:     cfg.Generator,
		history: cfg.History,
		logger:  cfg.Logger.With("component", "server"),
		metrics: newMetrics(cfg.Registry),
	}
	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           cfg.Bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(cfg.Logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "crudgen",
		Registerer: cfg.Registry,
	}))
	e.Use(middleware.BodyLimit("4M"))
	e.HTTPErrorHandler = srv.errorHandler

	e.GET("/_health", srv.HandleHealthCheck)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: cfg.Registry}))

	e.POST("/crud", srv.HandleCreate)
	e.GET("/crud/runs", srv.HandleListRuns)
	e.GET("/crud/runs/:id", srv.HandleGetRun)
	return srv
}

// ServeHTTP implements http.Handler.
func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

// Start listens on the configured address until Shutdown is called.
func (srv *Server) Start() error {
	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	if err := srv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.logger.Info("shutting down")
	return srv.httpd.Shutdown(ctx)
}

// GenericStatus is the health check body.
type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Cause    string `json:"cause,omitempty"`
}

// CreateResponse is the body of a successful POST /crud.
type CreateResponse struct {
	Message string     `json:"message"`
	Files   int        `json:"files"`
	Run     *uuid.UUID `json:"run,omitempty"`
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "crudgen"})
}

// HandleCreate generates the project described by the request body.
func (srv *Server) HandleCreate(c echo.Context) error {
	ctx := c.Request().Context()
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading request body").SetInternal(err)
	}
	spec, err := load.UnmarshalSchema(body)
	if err != nil {
		srv.metrics.requests.WithLabelValues(gen.CategoryValidation).Inc()
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:  err.Error(),
			Category: gen.CategoryValidation,
		})
	}

	start := time.Now()
	res, genErr := srv.gen.Generate(ctx, spec)
	srv.metrics.duration.Observe(time.Since(start).Seconds())

	var runID *uuid.UUID
	if srv.history != nil {
		run, err := history.NewRun(spec, res, genErr)
		if err == nil {
			err = srv.history.Record(ctx, run)
		}
		if err != nil {
			srv.logger.WarnContext(ctx, "recording run failed", "path", spec.Path, "error", err)
		} else {
			runID = &run.ID
		}
	}

	if genErr != nil {
		category := gen.Category(genErr)
		srv.metrics.requests.WithLabelValues(category).Inc()
		switch category {
		case gen.CategoryValidation, gen.CategoryMalformedType:
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Message:  genErr.Error(),
				Category: category,
			})
		default:
			srv.logger.ErrorContext(ctx, "generation failed", "path", spec.Path, "category", category, "error", genErr)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Message:  fmt.Sprintf("project generation failed in stage %s: %v", res.FailedAt, genErr),
				Category: category,
				Cause:    rootCause(genErr).Error(),
			})
		}
	}

	srv.metrics.requests.WithLabelValues("ok").Inc()
	srv.metrics.files.Add(float64(len(res.Files)))
	return c.JSON(http.StatusOK, CreateResponse{
		Message: "project created at " + res.Path,
		Files:   len(res.Files),
		Run:     runID,
	})
}

// HandleListRuns returns the most recent runs. The limit query parameter
// caps the result.
func (srv *Server) HandleListRuns(c echo.Context) error {
	if srv.history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run history disabled")
	}
	limit := DefaultListLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	runs, err := srv.history.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

// HandleGetRun returns a single run.
func (srv *Server) HandleGetRun(c echo.Context) error {
	if srv.history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run history disabled")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid run id")
	}
	run, err := srv.history.Get(c.Request().Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= 500 {
		srv.logger.Warn("crudgen-http-internal-error", "err", err)
	}
	if err := c.JSON(code, ErrorResponse{Message: msg}); err != nil {
		srv.logger.Warn("writing error response", "err", err)
	}
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
