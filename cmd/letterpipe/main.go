package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/skylark-tools/letterpipe/internal/assets"
	"github.com/skylark-tools/letterpipe/internal/config"
	"github.com/skylark-tools/letterpipe/internal/driver"
	"github.com/skylark-tools/letterpipe/internal/fetch"
	"github.com/skylark-tools/letterpipe/internal/filing"
	"github.com/skylark-tools/letterpipe/internal/gen/gemini"
	"github.com/skylark-tools/letterpipe/internal/pipeline"
	"github.com/skylark-tools/letterpipe/internal/profile"
	"github.com/skylark-tools/letterpipe/internal/record"
	"github.com/skylark-tools/letterpipe/internal/source"
	"github.com/skylark-tools/letterpipe/internal/store"
	"github.com/skylark-tools/letterpipe/internal/version"
	"github.com/skylark-tools/letterpipe/pkg/pipeline/call"
	"github.com/skylark-tools/letterpipe/pkg/pipeline/redact"
)

func main() {
	// Secrets come from the environment; a local .env is a convenience.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "run":
		os.Exit(runBatch(os.Args[2:]))
	case "plan":
		os.Exit(runPlan(os.Args[2:]))
	case "version":
		fmt.Println(version.Current)
		return
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runBatch(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", envStr("LETTERPIPE_CONFIG", "config.yaml"), "Config file path (env: LETTERPIPE_CONFIG)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	geminiModel := fs.String("gemini-model", envStr("GEMINI_MODEL", ""), "Gemini model name (env: GEMINI_MODEL)")
	geminiBaseURL := fs.String("gemini-base-url", envStr("GEMINI_BASE_URL", ""), "Gemini API base URL override (env: GEMINI_BASE_URL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	initLogger(cfg.Logging.Level, *debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, err := gemini.New(ctx, gemini.Config{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Model:   *geminiModel,
		BaseURL: *geminiBaseURL,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	senderProfile, err := profile.Load(cfg.Paths.SenderProfile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "setup error: %s\n", err)
		return 2
	}

	records, err := source.Load(cfg.Paths.Records)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "setup error: %s\n", err)
		return 2
	}
	if len(records) == 0 {
		slog.Info("no records to process")
		return 0
	}

	handled, degraded := store.Load(cfg.Paths.Results)
	if degraded {
		slog.Warn("running without duplicate suppression")
	}

	pipe := pipeline.New(pipeline.Config{
		SenderAddress: cfg.Sender.Address,
		SenderProfile: senderProfile,
		DefaultLocale: cfg.Letter.DefaultLocale,
		AssetCount:    cfg.Letter.AssetCount,
		FetchMaxLen:   cfg.Fetch.MaxContentLength,
		FetchTimeout:  cfg.Fetch.Timeout.Std(),
		BrochurePath:  cfg.Paths.Brochure,
		Call: call.Options{
			MaxRetries:     cfg.Calls.MaxRetries,
			BackoffInitial: cfg.Calls.BackoffInitial.Std(),
			BackoffMax:     cfg.Calls.BackoffMax.Std(),
		},
	},
		fetch.New(),
		completer,
		assets.NewSelector(cfg.Paths.AssetsDir),
		filing.NewOutbox(cfg.Paths.OutboxDir),
	)

	batch := driver.New(pipe, handled, driver.Config{
		ResultsPath:      cfg.Paths.Results,
		InterRecordDelay: cfg.InterRecordDelay.Std(),
	})
	if err := batch.Run(ctx, records); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

// runPlan reports what a batch would do without touching any external
// service: which records pass validation and which are already handled.
func runPlan(args []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", envStr("LETTERPIPE_CONFIG", "config.yaml"), "Config file path (env: LETTERPIPE_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	initLogger(cfg.Logging.Level, false)

	records, err := source.Load(cfg.Paths.Records)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "setup error: %s\n", err)
		return 2
	}
	handled, degraded := store.Load(cfg.Paths.Results)
	if degraded {
		slog.Warn("duplicate suppression would be disabled")
	}

	var pending int
	for _, rec := range records {
		switch {
		case !rec.ShouldProcess():
			fmt.Printf("skip  %-30s %s\n", rec.CompanyName, record.ReasonDirective)
		case !rec.ValidRecipient():
			fmt.Printf("skip  %-30s %s\n", rec.CompanyName, record.ReasonBadAddress)
		default:
			if _, ok := handled[rec.DedupeKey()]; ok {
				fmt.Printf("skip  %-30s %s\n", rec.CompanyName, record.ReasonDuplicate)
				continue
			}
			fmt.Printf("write %-30s -> %s\n", rec.CompanyName, rec.Recipient)
			pending++
		}
	}
	fmt.Printf("%d of %d records would be processed\n", pending, len(records))
	return 0
}

func initLogger(level string, debug bool) {
	lvl := slog.LevelInfo
	if debug || strings.EqualFold(level, "debug") {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.RFC3339,
	})))
}

func envStr(varName, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `letterpipe: batch outreach-letter drafting pipeline

Usage:
  letterpipe <command> [flags]

Commands:
  run      Process the configured records and file letter drafts
  plan     Show what a run would do, without any external calls
  version  Print the release version

Examples:
  letterpipe run --config config.yaml
  letterpipe plan --config config.yaml

Environment:
  LETTERPIPE_CONFIG  Config file path (default config.yaml)
  GEMINI_API_KEY     Gemini API key (required for run)
  GEMINI_MODEL       Gemini model name (required for run)
  GEMINI_BASE_URL    Optional base URL override (proxies/testing)

`)
}
