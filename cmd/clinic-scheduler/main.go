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

	"github.com/example/clinic-scheduler/internal/config"
	"github.com/example/clinic-scheduler/internal/logging"
	"github.com/example/clinic-scheduler/internal/telemetry"
)

const serviceName = "clinic-scheduler"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Clinic appointment scheduling API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "dotenv files to load before reading the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runServer(ctx, cfg, logger); err != nil {
				logger.Error("server encountered error", "error", err)
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("failed to apply migrations", "error", err)
				return err
			}
			if err := store.Close(); err != nil {
				logger.Warn("failed to close storage", "error", err)
			}
			logger.Info("migrations applied", "storage", cfg.Storage)
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cmd.OutOrStdout(), cfg.LogLevel, serviceName), nil
}

func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger, time.Now)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("scheduler API listening", "addr", server.Addr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
		logger.Error("failed to shutdown server", "error", serr)
	}
	a.close(logger)
	if terr := shutdownTracing(shutdownCtx); terr != nil {
		logger.Warn("failed to flush traces", "error", terr)
	}
	return err
}
