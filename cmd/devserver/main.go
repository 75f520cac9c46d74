// Command devserver runs the in-memory exam-monitoring API for local work.
//
// It serves the same routes as the production API under /api/ and, unless
// DEVSERVER_SEED=false, loads a demo account and a set of incidents.
//
// Usage:
//
//	devserver
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/examwatch/internal/app"
	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/devserver"
)

func main() {
	// A missing .env is fine: the environment and config file still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log, os.Stdout)

	srv := devserver.New(logger, cfg.DevServer, app.Version)
	if cfg.DevServer.Seed {
		if err := srv.SeedDemo(time.Now()); err != nil {
			logger.Error("seed demo data", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("demo data loaded",
			slog.String("username", devserver.DemoUsername),
			slog.String("password", devserver.DemoPassword),
		)
	}

	httpSrv := &http.Server{
		Addr:              cfg.DevServer.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dev server listening",
			slog.String("addr", cfg.DevServer.Addr),
			slog.String("version", app.BuildVersion()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("serve", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("dev server stopped")
}
