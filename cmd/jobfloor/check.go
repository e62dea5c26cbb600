package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfloor/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch every category once into memory, print results, exit",
	Long:  "One-shot pass against an in-memory store: verifies the provider and config without touching the configured database.",
	RunE:  runCheck,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single pass against the configured store, then exit",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(checkCmd, syncCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	logger.Info("check mode: nothing is persisted")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.NewMemoryStore()
	sched, err := buildScheduler(cfg, st, logger)
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	failed := printResults(out, sched.RunPass(ctx))
	printCached(out, st)
	if failed > 0 {
		return fmt.Errorf("%d of %d categories failed", failed, len(cfg.Categories))
	}
	logger.Info("check complete")
	return nil
}

// printCached lists the categories the dry run left stats for.
func printCached(w io.Writer, st *store.MemoryStore) {
	cached := st.Categories()
	if len(cached) == 0 {
		fmt.Fprintln(w, "\nnothing cached")
		return
	}
	fmt.Fprintf(w, "\ncached %d categories: %s\n", len(cached), strings.Join(cached, ", "))
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

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

	if failed := printResults(cmd.OutOrStdout(), sched.RunPass(ctx)); failed > 0 {
		return fmt.Errorf("%d of %d categories failed", failed, len(cfg.Categories))
	}
	return nil
}
