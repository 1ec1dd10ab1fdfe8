package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the server fails,
// then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("Server goroutine starting")
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Server stopped unexpectedly")
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down application")

		timeout := a.cfg.Server.Timeout.Shutdown
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops the scheduler and the HTTP server, closes the database pool
// and the cache, then flushes pending telemetry. Errors from every step are joined.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
		a.logger.Error().Err(err).Msg("Failed to shutdown scheduler")
	}

	start := time.Now()
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
		a.logger.Error().Err(err).Msg("Failed to shutdown server")
	} else {
		a.logger.Info().Dur("duration", time.Since(start)).Msg("HTTP server shutdown completed")
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
		a.logger.Error().Err(err).Msg("Failed to close database")
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
			a.logger.Error().Err(err).Msg("Failed to close cache")
		}
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
		a.logger.Error().Err(err).Msg("Failed to shutdown observability")
	}

	a.logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}
