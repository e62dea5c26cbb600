package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfloor/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test [tracker]",
	Short: "Send a test notification",
	Long:  "Sends a test notification through the configured notifiers on behalf of a tracker (default: the first category's).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	tracker := cfg.Categories[0].Tracker
	if len(args) == 1 {
		tracker = args[0]
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	n := setupNotifier(cfg, st, newHTTPClient(cfg), logger)
	if err := notifier.SendTestMessage(ctx, n, tracker); err != nil {
		logger.Error("test notification failed", "error", err)
		return err
	}
	logger.Info("test notification sent successfully", "tracker", tracker)
	return nil
}
