package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lcalzada-xor/devcert/internal/adapters/csvsource"
	"github.com/lcalzada-xor/devcert/internal/adapters/panos"
	"github.com/lcalzada-xor/devcert/internal/adapters/reporting"
	"github.com/lcalzada-xor/devcert/internal/config"
	"github.com/lcalzada-xor/devcert/internal/core/domain"
	"github.com/lcalzada-xor/devcert/internal/core/ports"
	"github.com/lcalzada-xor/devcert/internal/core/services/compliance"
	"github.com/lcalzada-xor/devcert/internal/core/services/export"
	"github.com/lcalzada-xor/devcert/internal/telemetry"
)

// ReportTitle is printed at the top of every report.
const ReportTitle = "Device Certificate Report"

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

// Application wires an inventory source, the compliance partitioner and a
// report exporter for one run.
type Application struct {
	Config      *config.Config
	Source      ports.DeviceSource
	Partitioner *compliance.Partitioner
	Hardware    *compliance.HardwareCatalog
	Exporter    ports.ReportExporter

	logger *slog.Logger
	now    func() time.Time
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &Application{
		Config: cfg,
		logger: logger,
		now:    time.Now,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	source, err := app.initSource()
	if err != nil {
		return err
	}
	app.Source = source

	classifier := compliance.NewDefaultClassifier()
	app.Hardware = classifier.Hardware()
	app.Partitioner = compliance.NewPartitioner(classifier, app.logger)
	app.Exporter = app.initExporter()
	return nil
}

func (app *Application) initExporter() ports.ReportExporter {
	switch app.Config.Format {
	case config.FormatJSON:
		return export.NewJSONExporter()
	case config.FormatCSV:
		return export.NewCSVExporter()
	default:
		return reporting.NewPDFExporter(app.Config.LogoPath)
	}
}

func (app *Application) initSource() (ports.DeviceSource, error) {
	cfg := app.Config
	switch cfg.Command {
	case config.CommandCSV:
		return csvsource.NewSource(cfg.CSVFile, cfg.CleanedFile, app.logger), nil
	case config.CommandPanorama, config.CommandFirewall:
		client, err := panos.NewClient(panos.ClientConfig{
			Hostname: cfg.Hostname,
			Username: cfg.Username,
			Password: cfg.Password,
			APIKey:   cfg.APIKey,
			Insecure: cfg.Insecure,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Command == config.CommandPanorama {
			return panos.NewPanoramaSource(client, app.logger), nil
		}
		return panos.NewFirewallSource(client, app.logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCommand, cfg.Command)
	}
}

// Run generates the report and writes it to the configured output file.
// When a metrics file is configured it is written even if the run fails.
func (app *Application) Run(ctx context.Context) (err error) {
	ctx, span := otel.Tracer(telemetry.ServiceName).Start(ctx, "devcert.run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		app.writeMetrics()
	}()

	report, err := app.Generate(ctx)
	if err != nil {
		return err
	}

	data, err := app.export(ctx, report)
	if err != nil {
		return err
	}

	out := app.Config.OutputFile
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	telemetry.ReportsGenerated.Inc()

	stats := report.Stats()
	app.logger.Info("Report generated",
		"path", out,
		"report_id", report.Metadata.ID,
		"devices", stats.TotalDevices,
		"upgrade_required", stats.UpgradeRequired,
	)
	return nil
}

// Generate collects the inventory and classifies it.
func (app *Application) Generate(ctx context.Context) (*domain.Report, error) {
	devices, err := app.collect(ctx)
	if err != nil {
		return nil, err
	}

	_, span := otel.Tracer(telemetry.ServiceName).Start(ctx, "devcert.classify")
	partition := app.Partitioner.Partition(devices, app.Config.Schedule)
	span.SetAttributes(
		attribute.Int("devices.unaffected", len(partition.Unaffected)),
		attribute.Int("devices.no_upgrade_required", len(partition.NoUpgradeRequired)),
		attribute.Int("devices.upgrade_required", len(partition.UpgradeRequired)),
	)
	span.End()

	return &domain.Report{
		Metadata: domain.ReportMetadata{
			ID:           uuid.NewString(),
			Title:        ReportTitle,
			GeneratedAt:  app.now(),
			GeneratedBy:  "devcert " + Version,
			Source:       app.Source.Name(),
			ScheduleMode: string(app.Config.Schedule),
		},
		Partition:        partition,
		HardwareFamilies: app.Hardware.Table(),
	}, nil
}

func (app *Application) collect(ctx context.Context) ([]domain.Device, error) {
	name := app.Source.Name()
	ctx, span := otel.Tracer(telemetry.ServiceName).Start(ctx, "devcert.collect")
	defer span.End()
	span.SetAttributes(attribute.String("source", name))

	app.logger.Info("Collecting inventory", "source", name)
	devices, err := app.Source.Collect(ctx)
	if err != nil {
		telemetry.CollectionErrors.WithLabelValues(name).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("collect from %s: %w", name, err)
	}

	telemetry.DevicesCollected.WithLabelValues(name).Add(float64(len(devices)))
	span.SetAttributes(attribute.Int("devices", len(devices)))
	if len(devices) == 0 {
		app.logger.Warn("Inventory is empty", "source", name)
	}
	return devices, nil
}

func (app *Application) export(ctx context.Context, report *domain.Report) ([]byte, error) {
	_, span := otel.Tracer(telemetry.ServiceName).Start(ctx, "devcert.export")
	defer span.End()

	data, err := app.Exporter.Export(report)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("export report: %w", err)
	}
	span.SetAttributes(attribute.Int("bytes", len(data)))
	return data, nil
}

func (app *Application) writeMetrics() {
	path := app.Config.MetricsFile
	if path == "" {
		return
	}
	if err := telemetry.WriteMetrics(path); err != nil {
		app.logger.Error("Failed to write metrics", "path", path, "error", err)
		return
	}
	app.logger.Debug("Metrics written", "path", path)
}
