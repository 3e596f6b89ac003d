// Package cmd is the docpipe command-line surface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/logging"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/watcher"
)

// logManager is created in bootstrap mode (stderr text) and upgraded
// once the configuration is loaded.
var logManager *logging.Manager

var (
	flagConfigDir     string
	flagEnvFile       string
	flagLogLevel      string
	flagStatus        bool
	flagWatch         bool
	flagWatchInterval int
)

var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "Document ingestion pipeline for vector search",
	Long: "Docpipe ingests documents from an input directory through a staged pipeline:\n" +
		"extraction, chunking, enrichment, audit, embedding, normalization, vector\n" +
		"storage, and file lifecycle. Run it once over the current input set, or with\n" +
		"--watch to keep processing files as they arrive.",
	RunE: runPipeline,
}

func init() {
	logManager = logging.NewManager()

	rootCmd.Flags().StringVar(&flagConfigDir, "config-dir", "config", "directory holding global.yaml and per-stage files")
	rootCmd.Flags().StringVar(&flagEnvFile, "env-file", "", "optional .env file loaded before config substitution")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "override the configured log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "print the resolved pipeline configuration and exit")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "keep running and process files as they arrive")
	rootCmd.Flags().IntVar(&flagWatchInterval, "watch-interval", 0, "seconds between watch batches (overrides config)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	if flagEnvFile != "" {
		if err := config.LoadEnvFile(flagEnvFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(flagConfigDir)
	if err != nil {
		return err
	}

	levelStr := cfg.Global.LogLevel
	if flagLogLevel != "" {
		levelStr = flagLogLevel
	}
	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		level = logging.DefaultLevel
		if levelStr != "" {
			logger.Warn("invalid log level, using default", "configured", levelStr)
		}
	}
	if err := logManager.Upgrade(cfg.Global.LogFile, level); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
	}

	if flagStatus {
		printStatus(cmd, cfg)
		return nil
	}

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagWatch {
		return runWatch(ctx, cfg, engine, logger)
	}
	return runOnce(ctx, cfg, engine, nil)
}

// runOnce executes a single run. files == nil means scan the input
// directory.
func runOnce(ctx context.Context, cfg *config.Config, engine *pipeline.Engine, files []string) error {
	if files == nil {
		scanned, err := watcher.Scan(cfg.Global.Paths.InputDir)
		if err != nil {
			return err
		}
		files = scanned
	}

	report, err := engine.Run(ctx, pipeline.NewBlackboard(files))
	if err != nil {
		fmt.Fprintln(os.Stderr, failureSummary(report, err))
		return err
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, engine *pipeline.Engine, logger *slog.Logger) error {
	interval := cfg.Global.Watch.IntervalSeconds
	if flagWatchInterval > 0 {
		interval = flagWatchInterval
	}
	if interval <= 0 {
		interval = config.DefaultWatchIntervalSeconds
	}

	// Process whatever is already waiting before watching for more.
	if err := runOnce(ctx, cfg, engine, nil); err != nil {
		logger.Error("initial run failed", "error", err)
	}

	w, err := watcher.New(cfg.Global.Paths.InputDir, time.Duration(interval)*time.Second, logManager.Logger())
	if err != nil {
		return err
	}

	logger.Info("watching for new files", "dir", cfg.Global.Paths.InputDir, "interval_seconds", interval)
	err = w.Run(ctx, func(files []string) {
		if runErr := runOnce(ctx, cfg, engine, files); runErr != nil {
			logger.Error("watch run failed", "error", runErr)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// failureSummary renders the single-line terminal summary for a failed
// run; the full trace lives in the log file.
func failureSummary(report *pipeline.RunReport, err error) string {
	for _, status := range report.Stages {
		if status.State == pipeline.StageFailed {
			return fmt.Sprintf("stage=%s error=%s", status.Name, status.Error)
		}
	}
	return fmt.Sprintf("stage=startup error=%v", err)
}

func printStatus(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "input_dir:      %s\n", cfg.Global.Paths.InputDir)
	fmt.Fprintf(out, "processed_dir:  %s\n", cfg.Global.Paths.ProcessedDir)
	fmt.Fprintf(out, "errors_dir:     %s\n", cfg.Global.Paths.ErrorsDir)
	fmt.Fprintf(out, "output_dir:     %s\n", cfg.Global.Paths.OutputDir)
	fmt.Fprintf(out, "log_file:       %s\n", cfg.Global.LogFile)
	fmt.Fprintf(out, "providers:\n")
	for name, provider := range cfg.Global.Providers {
		fmt.Fprintf(out, "  %-14s %s %s\n", name, provider.AccessMethod, provider.Endpoint)
	}
	fmt.Fprintf(out, "stages:\n")
	for _, name := range config.StageNames {
		state := "enabled"
		if !cfg.Global.StageEnabled(name) {
			state = "disabled"
		}
		fmt.Fprintf(out, "  %-14s %s\n", name, state)
	}
	fmt.Fprintf(out, "extraction:     profile=%s use_vlm=%v\n", cfg.Extraction.Profile, cfg.Extraction.UseVLM)
	fmt.Fprintf(out, "chunking:       strategy=%s size=%d overlap=%d\n", cfg.Chunking.Strategy, cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	fmt.Fprintf(out, "embedding:      provider=%s model=%s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Fprintf(out, "storage:        backend=%s collection=%s\n", cfg.Storage.Backend, cfg.Storage.Collection)
}

func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
