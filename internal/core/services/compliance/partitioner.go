package compliance

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
	"github.com/lcalzada-xor/devcert/internal/core/ports"
	"github.com/lcalzada-xor/devcert/internal/telemetry"
)

// ScheduleMode selects when the GlobalProtect patch schedule is used.
type ScheduleMode string

const (
	// ScheduleStandard never uses the GlobalProtect schedule.
	ScheduleStandard ScheduleMode = "standard"
	// ScheduleClientPackage uses the GlobalProtect schedule for every device.
	ScheduleClientPackage ScheduleMode = "client-package"
	// ScheduleAuto uses the GlobalProtect schedule for devices that report
	// an installed client package.
	ScheduleAuto ScheduleMode = "auto"
)

// ParseScheduleMode validates s.
func ParseScheduleMode(s string) (ScheduleMode, error) {
	switch m := ScheduleMode(s); m {
	case ScheduleStandard, ScheduleClientPackage, ScheduleAuto:
		return m, nil
	default:
		return "", fmt.Errorf("unknown schedule mode %q (want standard, client-package or auto)", s)
	}
}

func (m ScheduleMode) useClientPackage(d domain.Device) bool {
	switch m {
	case ScheduleClientPackage:
		return true
	case ScheduleAuto:
		return d.HasClientPackage()
	default:
		return false
	}
}

// Partitioner splits an inventory into the groups a compliance report shows.
// It never modifies its input; annotated copies are returned.
type Partitioner struct {
	classifier ports.Classifier
	logger     *slog.Logger
}

// NewPartitioner creates a partitioner. A nil logger uses slog.Default().
func NewPartitioner(classifier ports.Classifier, logger *slog.Logger) *Partitioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Partitioner{classifier: classifier, logger: logger}
}

// ClassifyByModel splits devices by hardware family. Unrecognized models are
// treated as unaffected and noted.
func (p *Partitioner) ClassifyByModel(devices []domain.Device) (affected, unaffected []domain.Device) {
	for _, d := range devices {
		status := p.classifier.HardwareStatus(d.Model)
		telemetry.HardwareClassified.WithLabelValues(status.String()).Inc()

		switch status {
		case domain.HardwareAffected:
			affected = append(affected, d)
		case domain.HardwareUnaffected:
			unaffected = append(unaffected, d)
		default:
			d.Notes = domain.NoteModelNotRecognized
			unaffected = append(unaffected, d)
			p.logger.Warn("Unrecognized hardware model", "device", d.Name, "model", d.Model)
			continue
		}
		p.logger.Debug("Hardware classified", "device", d.Name, "model", d.Model, "status", status.String())
	}
	return affected, unaffected
}

// ClassifyByVersion splits devices by whether their software needs an
// upgrade. Devices with a missing or unparseable version are routed to
// upgrade with an explanatory note.
func (p *Partitioner) ClassifyByVersion(devices []domain.Device, mode ScheduleMode) (noUpgrade, upgrade []domain.Device) {
	for _, d := range devices {
		if d.SoftwareVersion == "" {
			d.Notes = domain.NoteVersionMissing
			upgrade = append(upgrade, d)
			telemetry.VersionClassified.WithLabelValues("missing").Inc()
			continue
		}

		affected, minVersion, err := p.classifier.IsVersionAffected(d.SoftwareVersion, mode.useClientPackage(d))
		if err != nil {
			reason := err.Error()
			var fe *domain.FormatError
			if errors.As(err, &fe) {
				reason = fe.Error()
			} else {
				p.logger.Error("Unexpected classification error", "device", d.Name, "error", err)
			}
			d.Notes = domain.NoteVersionParsePrefix + reason
			upgrade = append(upgrade, d)
			telemetry.VersionClassified.WithLabelValues("invalid").Inc()
			p.logger.Warn("Unparseable software version", "device", d.Name, "version", d.SoftwareVersion)
			continue
		}

		if affected {
			d.MinimumRequiredVersion = minVersion
			upgrade = append(upgrade, d)
			telemetry.VersionClassified.WithLabelValues("upgrade_required").Inc()
			p.logger.Debug("Upgrade required", "device", d.Name, "version", d.SoftwareVersion, "minimum", minVersion)
			continue
		}

		noUpgrade = append(noUpgrade, d)
		telemetry.VersionClassified.WithLabelValues("no_upgrade_required").Inc()
	}
	return noUpgrade, upgrade
}

// WithClientPackage returns the devices that have a GlobalProtect client
// package installed.
func WithClientPackage(devices []domain.Device) []domain.Device {
	var out []domain.Device
	for _, d := range devices {
		if d.HasClientPackage() {
			out = append(out, d)
		}
	}
	return out
}

// WithCertificateInfo returns the devices that report both certificate
// status and expiry.
func WithCertificateInfo(devices []domain.Device) []domain.Device {
	var out []domain.Device
	for _, d := range devices {
		if d.HasCertificateInfo() {
			out = append(out, d)
		}
	}
	return out
}

// Partition runs model then version classification and builds every report
// grouping.
func (p *Partitioner) Partition(devices []domain.Device, mode ScheduleMode) domain.Partition {
	affected, unaffected := p.ClassifyByModel(devices)
	noUpgrade, upgrade := p.ClassifyByVersion(affected, mode)

	p.logger.Info("Classified inventory",
		"devices", len(devices),
		"affected", len(affected),
		"unaffected", len(unaffected),
		"upgrade_required", len(upgrade),
	)

	return domain.Partition{
		Unaffected:          unaffected,
		NoUpgradeRequired:   noUpgrade,
		UpgradeRequired:     upgrade,
		WithClientPackage:   WithClientPackage(devices),
		WithCertificateInfo: WithCertificateInfo(devices),
		Total:               len(devices),
	}
}
