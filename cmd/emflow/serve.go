package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avi3tal/emflow/internal/api"
	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/config"
	"github.com/avi3tal/emflow/internal/metrics"
	"github.com/avi3tal/emflow/internal/timesheet"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start an HTTP server that exposes POST /process, GET /health and GET /metrics.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	if cfg.Debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("failed to close store", "error", closeErr)
		}
	}()
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	cps, closeCheckpoints, err := openCheckpoints(ctx, cfg.Checkpoint, repo)
	if err != nil {
		return err
	}
	defer closeCheckpoints()

	cls, err := classifier.NewOpenAI(classifier.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
	})
	if err != nil {
		return err
	}

	m := metrics.New()
	ctrl, err := timesheet.NewController(repo, cls,
		timesheet.WithCheckpointStore(cps),
		timesheet.WithLogger(logger),
		timesheet.WithMaxSteps(cfg.Engine.MaxSteps),
		timesheet.WithTurnTimeout(cfg.Engine.TurnTimeout),
		timesheet.WithGateConcurrency(cfg.Engine.GateConcurrency),
		timesheet.WithDebug(cfg.Debug),
		timesheet.WithObserver(m),
	)
	if err != nil {
		return fmt.Errorf("failed to build workflow: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.NewHandler(ctrl, repo, logger), m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Engine.TurnTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db", cfg.DB.Driver, "checkpoints", cfg.Checkpoint.Backend, "model", cfg.LLM.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	stop()

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
