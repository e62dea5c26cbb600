package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobfloor/internal/api"
	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
)

const shutdownTimeout = 10 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the polling daemon",
	Long:  "Start the scheduler (and the HTTP API when api.addr is set); blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API without polling",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: api.addr or "+config.DefaultAPIAddr+")")
	rootCmd.AddCommand(startCmd, serveCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"schedule", cfg.Schedule,
		"categories", len(cfg.Categories),
		"provider", cfg.Source.Provider,
		"storage", cfg.Storage.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	sched, err := buildScheduler(cfg, st, logger)
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	if cfg.API.Addr != "" {
		n := setupNotifier(cfg, st, newHTTPClient(cfg), logger)
		g.Go(func() error { return serveHTTP(ctx, cfg.API.Addr, apiHandler(cfg, st, n, logger), logger) })
	}
	if err := g.Wait(); err != nil {
		logger.Error("daemon stopped", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.API.Addr
	}
	if addr == "" {
		addr = config.DefaultAPIAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	n := setupNotifier(cfg, st, newHTTPClient(cfg), logger)
	return serveHTTP(ctx, addr, apiHandler(cfg, st, n, logger), logger)
}

func apiHandler(cfg *config.Config, st model.Store, n model.Notifier, logger *slog.Logger) http.Handler {
	return api.NewRouter(api.Deps{
		Store:       st,
		Notifier:    n,
		Categories:  cfg.Categories,
		CORSOrigins: cfg.API.CORSOrigins,
		Logger:      logger,
	})
}

// serveHTTP runs until ctx is cancelled, then shuts the server down gracefully.
func serveHTTP(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("api stopped")
	return nil
}
