package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfloor/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse cached postings and stats interactively (TUI)",
	Long:  "Shows the category picker, then a split-pane view of today's postings and market summary. Reads the store only.",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(context.Background(), cfg, silentLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	return dashboard.Run(st, cfg.Categories, time.Now)
}
