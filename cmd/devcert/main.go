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

	"github.com/lcalzada-xor/devcert/internal/app"
	"github.com/lcalzada-xor/devcert/internal/config"
	"github.com/lcalzada-xor/devcert/internal/telemetry"
)

var errShowUsage = errors.New("show usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return
	case errors.Is(err, errShowUsage):
		printUsage(os.Stderr)
		cancel()
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errShowUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "version", "--version":
		fmt.Fprintf(stdout, "devcert %s\n", app.Version)
		return nil
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	case config.CommandCSV, config.CommandPanorama, config.CommandFirewall:
	default:
		return fmt.Errorf("%w: %s (run 'devcert help')", config.ErrUnknownCommand, command)
	}

	cfg, err := config.Load(command, rest)
	if err != nil {
		return err
	}
	if err := cfg.PromptMissing(stdin, stderr); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup Structured Logging
	logger := newLogger(stderr, cfg)
	slog.SetDefault(logger)

	// Initialize Tracing
	if cfg.Trace {
		shutdownTracer, err := telemetry.InitTracer(stderr, app.Version)
		if err != nil {
			logger.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.SettingsPath != "" {
		logger.Debug("Loaded settings", "path", cfg.SettingsPath)
	}
	if err := application.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Report generated at %s\n", cfg.OutputFile)
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `devcert - PAN-OS device certificate compliance report

Usage:
  devcert <command> [flags]

Commands:
  csv        Build the report from a Panorama managed devices CSV export
  panorama   Build the report from the devices managed by a Panorama
  firewall   Build the report for a single firewall
  version    Print the version
  help       Show this help

Common flags:
  -o, --output-file PATH   Output file (default device_certificate_report.<format>)
  --format FORMAT          Report format: pdf, json or csv (default pdf)
  --config PATH            YAML settings file (default ./settings.yaml if present)
  --schedule MODE          Patch schedule: standard, client-package or auto (default auto).
                           auto applies the stricter GlobalProtect schedule to devices
                           that report a client package; standard never does
  --logo PATH              Image placed at the top of the report
  --metrics-file PATH      Write Prometheus metrics in text format
  --trace                  Print trace spans to stderr
  --debug                  Enable debug logging
  --log-json               Log in JSON format

csv flags:
  -f, --csv-file PATH      Panorama CSV export
  --cleaned-file PATH      Also save the cleaned CSV

panorama/firewall flags:
  -h, --hostname HOST      Appliance hostname or IP address
  -u, --username USER      API username
  -p, --password PASS      API password (prompted when missing)
  --api-key KEY            API key instead of username and password
  --insecure               Skip TLS certificate verification
  --timeout DURATION       HTTP request timeout (default 30s)

Environment variables DEVCERT_<FLAG> (e.g. DEVCERT_HOSTNAME) override the
settings file; flags override both.
`)
}
