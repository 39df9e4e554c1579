// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shortly/internal/config"
	"shortly/internal/controllers"
	"shortly/internal/middleware"
	"shortly/internal/service"
)

const readHeaderTimeout = 10 * time.Second

// Server is the HTTP front end of the URL service
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	limiters []*middleware.RateLimiter
}

// New builds the router. Call Close to stop the rate limiter sweeps when the
// server is not started with Run.
func New(cfg *config.Config, urlService service.URLService, logger *zap.Logger) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	shortenerController := controllers.NewShortenerController(urlService)
	statsController := controllers.NewStatsController(urlService)
	qrcodeController := controllers.NewQRCodeController(urlService)

	generalRateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	shortenRateLimiter := middleware.NewRateLimiter(cfg.RateLimitShortenRPS, cfg.RateLimitShortenBurst)
	redirectRateLimiter := middleware.NewRateLimiter(cfg.RateLimitRedirectRPS, cfg.RateLimitRedirectBurst)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	// Health check and metrics (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/:shortCode", redirectRateLimiter.LimitMiddleware(), shortenerController.Redirect)

	api := router.Group("/api/v1")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		api.POST("/shorten", shortenRateLimiter.LimitMiddleware(), shortenerController.Shorten)
		api.GET("/resolve/:shortCode", redirectRateLimiter.LimitMiddleware(), shortenerController.Resolve)

		api.GET("/stats", statsController.Summary)
		api.GET("/stats/:shortCode", statsController.Link)

		api.GET("/qrcode/:shortCode", qrcodeController.GenerateQRCode)
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		limiters: []*middleware.RateLimiter{generalRateLimiter, shortenRateLimiter, redirectRateLimiter},
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then drains in-flight requests for up to
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("base_url", s.cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Close stops the background work owned by the server
func (s *Server) Close() {
	for _, rl := range s.limiters {
		rl.Stop()
	}
}
