package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/actuallystonmai/fitness-plan-service/internal/handler"
	"github.com/actuallystonmai/fitness-plan-service/internal/router"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// ------------ Run Migrations ---------------
	if a.repo != nil {
		if err := a.repo.MigrateUp(ctx); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	// ---------------- Server --------------------
	h := handler.NewHandler(a.service, a.log)
	srv := &http.Server{
		Addr: a.cfg.Addr(),
		Handler: router.Setup(h, router.Options{
			AllowedOrigins: a.cfg.CORSAllowedOrigins,
			RequestTimeout: a.cfg.RequestTimeout(),
			Logger:         a.log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
