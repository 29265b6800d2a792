package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shipbreaking/internal/config"
	"shipbreaking/internal/infrastructure"
	"shipbreaking/internal/operations"
	"shipbreaking/pkg/contracts"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// cliOptions holds the command line flags that override configuration
type cliOptions struct {
	inDir      string
	outDir     string
	configPath string
	xlsx       bool
	sqlite     bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.inDir, "in", "", "input directory holding one file per scrapping year")
	fs.StringVar(&opts.outDir, "out", "", "output directory for the unified dataset and reports")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "also write the unified dataset as an XLSX workbook")
	fs.BoolVar(&opts.sqlite, "sqlite", false, "also write the unified dataset to a SQLite database")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// loadConfig reads the configuration and applies the flags on top of it
func loadConfig(opts *cliOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.inDir != "" {
		cfg.Input.Dir = opts.inDir
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.xlsx {
		cfg.Output.XLSX = true
	}
	if opts.sqlite {
		cfg.Output.SQLite = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitUsage
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.InfoContext(ctx, "Starting shipbreaking harmonization",
		slog.String("version", contracts.Version),
		slog.String("input_dir", cfg.Input.Dir),
		slog.String("output_dir", cfg.Output.Dir),
		slog.Bool("xlsx", cfg.Output.XLSX),
		slog.Bool("sqlite", cfg.Output.SQLite))

	pipeline := operations.NewPipeline(cfg, logger)
	report, err := pipeline.Run(ctx)
	if report != nil {
		fmt.Fprintf(stdout, "run %s %s: %d vessels, %d LDT imputed, report %s\n",
			report.RunID, report.Status, report.Stats.Rows, report.Stats.ImputedLDT,
			pipeline.Paths().RunReport)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Run failed", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}
