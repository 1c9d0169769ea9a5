package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/trico-scraper/internal/logger"
	"github.com/pfrederiksen/trico-scraper/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

// Environment variables consulted for flag defaults.
const (
	EnvDataDir  = "TRICO_DATA_DIR"
	EnvBaseURL  = "TRICO_BASE_URL"
	EnvWorkers  = "TRICO_WORKERS"
	EnvLogLevel = "TRICO_LOG_LEVEL"
)

const DefaultDataDir = "~/.local/share/trico-scraper"

// ErrPartial is returned when a run saved its results but some pages or records failed.
var ErrPartial = errors.New("partial results")

var (
	flagDataDir  string
	flagFormat   string
	flagLogLevel string
	flagVerbose  bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trico-scraper",
		Short: "Harvest the Tri-College course guide for the course scheduler",
		Long: `A CLI tool that searches the Tri-College course guide, extracts every matching
course section and collates the sections into the bucketed JSON the course
scheduler consumes.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: configure,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&flagDataDir, "data-dir", envOr(EnvDataDir, DefaultDataDir), "Data directory for JSON artifacts (env: "+EnvDataDir+")")
	flags.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	flags.StringVar(&flagLogLevel, "log-level", envOr(EnvLogLevel, string(logger.LevelInfo)), "Log level: debug, info, warn, error (env: "+EnvLogLevel+")")
	flags.BoolVar(&flagVerbose, "verbose", false, "Print run metrics to stderr")

	cmd.AddCommand(
		newScrapeCmd(),
		newCollateCmd(),
		newICSCmd(),
		newParseTimeCmd(),
	)

	return cmd
}

// configure validates shared flags and installs the logger.
func configure(cmd *cobra.Command, args []string) error {
	if _, err := outputFormat(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return nil
}

func outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

func openStorage() (*storage.Storage, error) {
	store, err := storage.New(flagDataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// printMetrics dumps the metrics snapshot when --verbose is set.
func printMetrics(w io.Writer) {
	if !flagVerbose {
		return
	}
	fmt.Fprintln(w, "Metrics:")
	writeJSON(w, logger.GetMetricsSnapshot()) // nolint:errcheck
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Ignoring non-numeric environment value", logger.Fields{"key": key, "value": v}, err)
		return def
	}
	return n
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrPartial):
		return ExitPartial
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
	}

	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
