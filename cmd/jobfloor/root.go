package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfloor/internal/adapter"
	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/notifier"
	"github.com/amishk599/jobfloor/internal/poller"
	"github.com/amishk599/jobfloor/internal/ratelimit"
	"github.com/amishk599/jobfloor/internal/retry"
	"github.com/amishk599/jobfloor/internal/scheduler"
	"github.com/amishk599/jobfloor/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobfloor",
	Short: "Daily job market tracker",
	Long:  "Job Floor polls job boards once per category per day, caches the postings and serves the derived market stats.",
	// No subcommand runs the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvConfigPath+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(cfgPath))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// silentLogger is for the dashboard; log lines corrupt the alt screen.
func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		URL:    cfg.Storage.URL,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "driver", cfg.Storage.Driver)
	return st, nil
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Source.Timeout}
}

// createSource builds the configured provider wrapped with retry and rate limiting.
func createSource(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.JobSource, error) {
	var src model.JobSource
	switch cfg.Source.Provider {
	case config.ProviderJSearch:
		src = adapter.NewJSearchAdapter(cfg.Source.APIKey, cfg.Source.Host, httpClient)
	case config.ProviderAdzuna:
		src = adapter.NewAdzunaAdapter(cfg.Source.AppID, cfg.Source.AppKey, cfg.Source.Country, httpClient)
	case config.ProviderSynthetic:
		logger.Warn("using synthetic job source, postings are generated")
		return adapter.NewSyntheticSource(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", model.ErrInvalidConfiguration, cfg.Source.Provider)
	}

	src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	src = ratelimit.NewRateLimitedSource(src, ratelimit.NewProviderRateLimiter(cfg.RateLimit.MinDelay))
	logger.Info("job source configured",
		"provider", cfg.Source.Provider,
		"min_delay", cfg.RateLimit.MinDelay.String(),
		"max_retries", cfg.Retry.MaxRetries,
	)
	return src, nil
}

func setupNotifier(cfg *config.Config, logs model.LogStore, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	n := notifier.Multi{notifier.NewLogNotifier(logs, logger)}
	if cfg.Notification.Type == "slack" {
		logger.Info("using slack notifier")
		n = append(n, notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger))
	}
	return n
}

func buildPollers(cfg *config.Config, src model.JobSource, st poller.Store, logger *slog.Logger) []*poller.CategoryPoller {
	opts := poller.Options{Location: cfg.Source.Location, Recency: cfg.Source.Recency}

	pollers := make([]*poller.CategoryPoller, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		pollers = append(pollers, poller.NewCategoryPoller(c.Name, c.Tracker, src, st, opts, logger))
		logger.Info("registered category", "category", c.Name, "tracker", c.Tracker)
	}
	return pollers
}

// buildScheduler wires source, pollers and schedule against st.
func buildScheduler(cfg *config.Config, st model.Store, logger *slog.Logger) (*scheduler.Scheduler, error) {
	src, err := createSource(cfg, newHTTPClient(cfg), logger)
	if err != nil {
		return nil, err
	}
	schedule, err := scheduler.ParseSchedule(cfg.Schedule, cfg.PollingInterval)
	if err != nil {
		return nil, err
	}
	pollers := buildPollers(cfg, src, st, logger)
	return scheduler.NewScheduler(pollers, schedule, st, logger), nil
}

func printResults(w io.Writer, results []scheduler.Result) (failed int) {
	fmt.Fprintf(w, "%-22s %-12s %-11s %-13s %6s %10s\n", "Category", "Tracker", "Date", "Outcome", "Jobs", "Avg salary")
	for _, r := range results {
		o := r.Outcome
		kind := o.Kind.String()
		jobs, avg := "-", "-"
		if r.Err != nil {
			kind = "store_error"
		}
		if o.Stats != nil {
			jobs = fmt.Sprint(o.Stats.TotalJobs)
			avg = fmt.Sprint(o.Stats.AvgSalary)
		}
		fmt.Fprintf(w, "%-22s %-12s %-11s %-13s %6s %10s\n", o.Category, o.Tracker, o.Date, kind, jobs, avg)

		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "  error: %v\n", r.Err)
		case o.Err != nil:
			failed++
			fmt.Fprintf(w, "  error: %v\n", o.Err)
		}
	}
	return failed
}
