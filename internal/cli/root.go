// Package cli implements the shortly command line.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shortly/internal/config"
	"shortly/internal/logging"
	"shortly/internal/logsink"
	"shortly/internal/repository"
	"shortly/internal/service"
)

const sinkDrainTimeout = 5 * time.Second

// NewRootCommand builds the shortly command tree. loadConfig is called once
// per command invocation.
func NewRootCommand(loadConfig func() *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "shortly",
		Short: "Shorten URLs with expiring shortcodes and click tracking.",
		Long: `shortly turns long URLs into short codes that expire after a
validity window, and records every click on an active code.

Run "shortly serve" for the HTTP API, or use the shorten, resolve and stats
commands against the same store.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(loadConfig),
		newShortenCommand(loadConfig),
		newResolveCommand(loadConfig),
		newStatsCommand(loadConfig),
	)
	return root
}

// Execute runs the command line with configuration from the environment.
func Execute() error {
	return NewRootCommand(config.Load).Execute()
}

// app holds everything a command needs to talk to the store.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	repo    repository.TableRepository
	sink    *logsink.Sink
	service service.URLService
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevMode)
	if err != nil {
		return nil, err
	}
	if cfg.EnvFileMissing {
		logger.Debug("no .env file found, using environment variables")
	}

	repo, err := repository.Open(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
	}

	opts := service.Options{
		BaseURL:                cfg.BaseURL,
		RedirectDelay:          cfg.RedirectDelay,
		DefaultValidityMinutes: cfg.DefaultValidityMinutes,
		Logger:                 logger,
	}
	if cfg.LogAuthToken != "" {
		a.sink = logsink.New(logsink.Config{
			URL:     cfg.LogAPIURL,
			Token:   cfg.LogAuthToken,
			DevMode: cfg.LogDevMode,
		}, logger)
		opts.Events = a.sink
	} else {
		logger.Warn("LOG_AUTH_TOKEN not set, remote logging disabled")
	}

	a.service = service.NewURLService(repo, opts)
	return a, nil
}

func (a *app) close() {
	if a.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkDrainTimeout)
		if err := a.sink.Close(ctx); err != nil {
			a.logger.Warn("log sink did not drain", zap.Error(err))
		}
		cancel()
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
