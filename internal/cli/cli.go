// ============================================================================
// aoc-runner CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Provides the command line interface based on Cobra framework
//
// Command Structure:
//   aoc                            # Root command
//   ├── run                        # Fetch, compute and validate every unit
//   │   ├── --empty-cache          # Wipe the cache namespace first
//   │   ├── --skip-solved          # Skip parts the status marks solved
//   │   ├── --only YEAR/DAY        # Restrict to one unit
//   │   ├── --dry-run              # Compute and compare, never submit
//   │   ├── --workers N            # Compute pool size
//   │   ├── --metrics-port N       # Serve /metrics and /progress
//   │   └── --report-file PATH     # Save the final report as JSON
//   ├── list                       # Print registered units
//   ├── clean                      # Wipe the cache namespace
//   ├── report PATH                # Render a saved report
//   ├── --config, -c               # Config file (default: configs/default.yaml)
//   └── --verbose, -v              # Debug logging
//
// Configuration Management:
//   Uses YAML format config file; a missing default file means defaults.
//   AOC_SESSION overrides the session cookie.
//
// Exit Status:
//   run returns ErrRunFailed when any unit did not succeed, so the
//   process exits non-zero.
//
// ============================================================================

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/aoc-runner/internal/cache"
	"github.com/ChuLiYu/aoc-runner/internal/metrics"
	"github.com/ChuLiYu/aoc-runner/internal/remote"
	"github.com/ChuLiYu/aoc-runner/internal/report"
	"github.com/ChuLiYu/aoc-runner/internal/scheduler"
	"github.com/ChuLiYu/aoc-runner/internal/server"
	"github.com/ChuLiYu/aoc-runner/internal/solutions"
	"github.com/ChuLiYu/aoc-runner/internal/validator"
	"github.com/ChuLiYu/aoc-runner/internal/worker"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

const defaultConfigPath = "configs/default.yaml"

// ErrRunFailed is returned by run when at least one unit failed.
var ErrRunFailed = errors.New("one or more units failed")

var (
	configFile string
	verbose    bool
)

// runOptions run 命令的旗標
type runOptions struct {
	emptyCache  bool
	skipSolved  bool
	only        string
	dryRun      bool
	workers     int
	metricsPort int
	reportFile  string
}

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aoc",
		Short: "aoc-runner: fetch, solve and submit puzzle answers",
		Long: `aoc-runner drives every registered puzzle through a fixed pipeline:
- fetch input and status (cached on disk)
- compute both parts on a bounded worker pool
- compare against known answers or submit new ones`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildListCommand())
	rootCmd.AddCommand(buildCleanCommand())
	rootCmd.AddCommand(buildReportCommand())

	return rootCmd
}

// config 讀取設定；只有使用者明確指定的檔案必須存在
func config(cmd *cobra.Command) (*Config, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := loadConfig(configFile, required)
	if err != nil {
		return nil, err
	}
	setupLogging(cmd.ErrOrStderr(), cfg)
	return cfg, nil
}

func setupLogging(w io.Writer, cfg *Config) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level, verbose)})
	slog.SetDefault(slog.New(handler))
}

// ============================================================================
// run
// ============================================================================

func buildRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a run over every registered unit",
		Long:  "Fetch input and status, compute both parts, then compare or submit each answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runUnits(ctx, cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.emptyCache, "empty-cache", false, "wipe the cache before running")
	cmd.Flags().BoolVar(&opts.skipSolved, "skip-solved", false, "skip parts already solved")
	cmd.Flags().StringVar(&opts.only, "only", "", "run a single unit, e.g. 2020/1")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "compute and compare but never submit")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "compute workers (default from config)")
	cmd.Flags().IntVar(&opts.metricsPort, "metrics-port", 0, "serve /metrics and /progress on this port")
	cmd.Flags().StringVar(&opts.reportFile, "report-file", "", "write the final report as JSON")

	return cmd
}

func runUnits(ctx context.Context, out io.Writer, cfg *Config, opts runOptions) error {
	// 1. 選擇題目
	units := solutions.All()
	if opts.only != "" {
		id, err := types.ParseUnitID(opts.only)
		if err != nil {
			return err
		}
		if units, err = solutions.Select(units, id); err != nil {
			return err
		}
	}

	if opts.workers > 0 {
		cfg.Worker.WorkerCount = opts.workers
	}
	if opts.metricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = opts.metricsPort
	}
	if cfg.Session == "" {
		return fmt.Errorf("session is required: set it in %s or %s", configFile, SessionEnv)
	}

	// 2. 快取
	store := cache.NewFileStore(cfg.Cache.Dir)
	if opts.emptyCache {
		if err := store.Empty(); err != nil {
			return fmt.Errorf("failed to empty cache: %w", err)
		}
		slog.Info("Cache emptied", "dir", store.Dir())
	}

	// 3. 遠端 client
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(reg)

	raw, err := remote.NewHTTPClient(remote.HTTPConfig{
		BaseURL:   cfg.BaseURL,
		Session:   cfg.Session,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Metrics:   m,
	})
	if err != nil {
		return err
	}
	client := remote.NewCachingClient(raw, store, m)

	// 4. Worker Pool
	pool := worker.NewPool(len(units))
	if err := pool.Start(cfg.Worker.WorkerCount); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Stop()
	slog.Info("Worker pool started", "workers", pool.GetWorkerCount())

	// 5. Scheduler
	mode := types.ModeNormal
	if opts.dryRun {
		mode = types.ModeDryRun
	}
	sched, err := scheduler.New(scheduler.Config{
		Computer:   pool,
		Client:     client,
		Validator:  validator.New(client, validator.Options{Mode: mode, SkipSolved: opts.skipSolved}),
		Metrics:    m,
		OnProgress: progressPrinter(out),
	})
	if err != nil {
		return err
	}

	// 6. Status server
	if cfg.Metrics.Enabled {
		srv := server.New(cfg.Metrics.Port, sched, reg)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Status server shutdown failed", "error", err)
			}
		}()
	}

	// 7. 執行
	result, err := sched.Run(ctx, units)
	if err != nil {
		return err
	}

	doc := report.FromReport(result)
	fmt.Fprintln(out)
	if err := report.Render(out, doc); err != nil {
		return err
	}
	if opts.reportFile != "" {
		if err := report.NewStore(opts.reportFile).Write(doc); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}

	if !result.Success() {
		return fmt.Errorf("%w: %d of %d", ErrRunFailed, result.Failed(), len(result.Units))
	}
	return nil
}

// progressPrinter 由 aggregator 呼叫，一行一個事件
func progressPrinter(out io.Writer) func(types.ProgressEvent) {
	return func(ev types.ProgressEvent) {
		if ev.Stage != types.StageDone {
			fmt.Fprintf(out, "%s  %s\n", ev.Unit, ev.Stage)
			return
		}
		fmt.Fprintf(out, "%s  %s  %s/%s\n", ev.Unit, ev.Stage, ev.Report.Parts[0].Kind, ev.Report.Parts[1].Kind)
	}
}

// ============================================================================
// list / clean / report
// ============================================================================

func buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, u := range solutions.All() {
				fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			}
			return nil
		},
	}
}

func buildCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached input and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			store := cache.NewFileStore(cfg.Cache.Dir)
			if err := store.Empty(); err != nil {
				return fmt.Errorf("failed to empty cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", store.Dir())
			return nil
		},
	}
}

func buildReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report PATH",
		Short: "Render a report saved with run --report-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := report.NewStore(args[0]).Load()
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), doc)
		},
	}
}
