package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskmod/riskmod/engine"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
)

type Server struct {
	logger *slog.Logger
	engine *engine.Engine
	echo   *echo.Echo
	httpd  *http.Server
}

func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	srv := &Server{
		logger: logger,
		engine: eng,
		echo:   e,
	}
	srv.httpd = &http.Server{
		Handler:        e,
		WriteTimeout:   30 * time.Second,
		ReadTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 * (1024 * 1024),
	}

	e.GET("/_health", srv.HandleHealthCheck)
	e.POST("/analyze", srv.HandleAnalyze)
	e.POST("/feedback", srv.HandleFeedback)
	e.GET("/stats", srv.HandleStats)

	return srv
}

type GenericStatus struct {
	Daemon string `json:"daemon"`
	Status string `json:"status"`
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "skimmer"})
}

type analyzeRequest struct {
	Text    string `json:"text"`
	PostRef string `json:"post_ref"`
}

func (srv *Server) HandleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := srv.engine.Analyze(c.Request().Context(), engine.AnalysisRequest{
		Text:       req.Text,
		PostRef:    req.PostRef,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

type feedbackRequest struct {
	CaseID  string `json:"case_id"`
	Action  string `json:"action"`
	AdminID string `json:"admin_id"`
	Note    string `json:"note"`
}

func (srv *Server) HandleFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CaseID == "" || req.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "case_id and action are required")
	}

	err := srv.engine.SubmitFeedback(c.Request().Context(), req.CaseID, req.Action, req.AdminID, req.Note)
	if errors.Is(err, engine.ErrCaseNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	if err != nil {
		srv.logger.Error("feedback failed", "caseID", req.CaseID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "feedback failed")
	}
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "skimmer"})
}

func (srv *Server) HandleStats(c echo.Context) error {
	stats, err := srv.engine.GetStats(c.Request().Context())
	if err != nil {
		srv.logger.Error("stats query failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "stats unavailable")
	}
	return c.JSON(http.StatusOK, stats)
}

// Run serves the scoring API until an exit signal arrives, then shuts down the
// HTTP listener and drains the background case writer.
func (srv *Server) Run(ctx context.Context, bind string) error {
	srv.httpd.Addr = bind
	srv.logger.Info("starting server", "bind", bind)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exitSignals
	srv.logger.Info("received OS exit signal", "signal", sig)

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.httpd.Shutdown(sctx); err != nil {
		srv.logger.Error("HTTP server shutdown error", "err", err)
	}

	// queued auto-saves are flushed before exit so confirmed-adjacent
	// exemplars from the last moments of traffic are not lost
	if srv.engine.Writer != nil {
		if err := srv.engine.Writer.Shutdown(sctx); err != nil {
			srv.logger.Error("case writer shutdown error", "err", err)
		}
	}

	srv.logger.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}
