package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List configured categories with today's stats",
	RunE:  runCategories,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cached stats, newest first",
	RunE:  runStats,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the activity log, newest first",
	RunE:  runLogs,
}

var trackerCmd = &cobra.Command{
	Use:   "tracker <name>",
	Short: "Show a tracker's stored state",
	Args:  cobra.ExactArgs(1),
	RunE:  runTracker,
}

var (
	statsCategory string
	statsDays     int
	logsTracker   string
	logsLimit     int
)

func init() {
	statsCmd.Flags().StringVar(&statsCategory, "category", "", "only this category (default: all configured)")
	statsCmd.Flags().IntVar(&statsDays, "days", model.DefaultRecentStats, "number of most recent days")
	logsCmd.Flags().StringVar(&logsTracker, "tracker", "", "only entries for this tracker")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "maximum entries")
	rootCmd.AddCommand(categoriesCmd, statsCmd, logsCmd, trackerCmd)
}

// withStore loads config, opens the store and hands both to fn.
func withStore(fn func(ctx context.Context, cfg *config.Config, st model.Store) error) error {
	logger := setupLogger(debug)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, cfg, st)
}

func runCategories(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, cfg *config.Config, st model.Store) error {
		today := model.DateKey(time.Now())
		w := cmd.OutOrStdout()

		fmt.Fprintf(w, "%-22s %-22s %-12s %6s %10s\n", "Category", "Label", "Tracker", "Jobs", "Avg salary")
		fmt.Fprintln(w, strings.Repeat("─", 76))
		for _, c := range cfg.Categories {
			jobs, avg := "-", "-"
			s, ok, err := st.GetStats(ctx, c.Name, today)
			if err != nil {
				return err
			}
			if ok {
				jobs, avg = fmt.Sprint(s.TotalJobs), fmt.Sprint(s.AvgSalary)
			}
			fmt.Fprintf(w, "%-22s %-22s %-12s %6s %10s\n", c.Name, c.Label, c.Tracker, jobs, avg)
		}
		fmt.Fprintf(w, "\nTotal: %d categories (%s)\n", len(cfg.Categories), today)
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, cfg *config.Config, st model.Store) error {
		names := []string{statsCategory}
		if statsCategory == "" {
			names = names[:0]
			for _, c := range cfg.Categories {
				names = append(names, c.Name)
			}
		}

		w := cmd.OutOrStdout()
		for _, name := range names {
			rows, err := st.RecentStats(ctx, name, statsDays)
			if err != nil {
				return err
			}
			printStats(w, name, rows)
		}
		return nil
	})
}

func printStats(w io.Writer, category string, rows []model.CategoryStats) {
	fmt.Fprintf(w, "%s\n", category)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (no stats cached)")
		return
	}
	for _, s := range rows {
		top := make([]string, 0, len(s.Locations))
		for _, l := range s.Locations {
			top = append(top, fmt.Sprintf("%s (%d)", l.Name, l.Count))
		}
		fmt.Fprintf(w, "  %s  %4d jobs  avg %7d  %s\n", s.Date, s.TotalJobs, s.AvgSalary, strings.Join(top, ", "))
	}
}

func runLogs(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, _ *config.Config, st model.Store) error {
		entries, err := st.Logs(ctx, logsTracker, logsLimit)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %-12s %-13s %s\n", e.Timestamp.Local().Format(time.DateTime), e.TrackerName, e.LogType, e.Message)
		}
		return nil
	})
}

func runTracker(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, _ *config.Config, st model.Store) error {
		state, ok, err := st.GetTrackerState(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "tracker %q has never run\n", args[0])
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	})
}
