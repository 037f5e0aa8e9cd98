package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/app"
	"github.com/Freeeeeet/therapy_scheduler/internal/auth"
	"github.com/Freeeeeet/therapy_scheduler/internal/controller"
	"github.com/Freeeeeet/therapy_scheduler/internal/controller/api"
	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the operator bot and the background scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(ctx, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		return serve(ctx, rt)
	},
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger
	svc := rt.services()

	// отменяется и по сигналу, и при падении одного из компонентов
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := api.Options{AuthRequired: cfg.AuthRequired}
	if cfg.AuthEnabled() {
		verifier, err := auth.NewVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return fmt.Errorf("create token verifier: %w", err)
		}
		opts.Verifier = verifier
		logger.Info("Bearer token verification enabled",
			zap.String("issuer", cfg.AuthIssuerURL),
			zap.Bool("required", cfg.AuthRequired))
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(svc.scheduling, svc.usage, svc.subscriptions, opts, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}

		botController := controller.NewBotController(b, svc.scheduling, svc.usage, svc.subscriptions, cfg.TelegramOperatorIDs, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			// меню команд не критично
			logger.Warn("Failed to register bot commands menu", zap.Error(err))
		}

		go func() {
			if err := botController.Start(ctx); err != nil {
				errCh <- fmt.Errorf("telegram bot: %w", err)
			}
		}()
	}

	var scheduler *app.Scheduler
	if cfg.RescheduleInterval > 0 {
		scheduler = app.NewScheduler(svc.scheduling, cfg.RescheduleInterval, logger)
		scheduler.Start(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		logger.Error("Component failed, shutting down", zap.Error(runErr))
	}
	cancel()

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	logger.Info("Server stopped")
	return runErr
}
