package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
	"github.com/lcalzada-xor/devcert/internal/core/ports"
)

// Group labels used in exports for the three disjoint report groupings.
const (
	GroupUnaffected        = "unaffected"
	GroupNoUpgradeRequired = "no_upgrade_required"
	GroupUpgradeRequired   = "upgrade_required"
)

// Document is the JSON layout of an exported report.
type Document struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	GeneratedAt  time.Time          `json:"generated_at"`
	GeneratedBy  string             `json:"generated_by,omitempty"`
	Source       string             `json:"source,omitempty"`
	ScheduleMode string             `json:"schedule_mode,omitempty"`
	Summary      domain.ReportStats `json:"summary"`

	Unaffected          []domain.Device `json:"unaffected"`
	NoUpgradeRequired   []domain.Device `json:"no_upgrade_required"`
	UpgradeRequired     []domain.Device `json:"upgrade_required"`
	WithClientPackage   []domain.Device `json:"with_globalprotect_client"`
	WithCertificateInfo []domain.Device `json:"with_certificate_info"`

	HardwareFamilies []domain.HardwareFamily `json:"hardware_families,omitempty"`
}

// NewDocument flattens a report for JSON output. Nil groups become empty
// arrays.
func NewDocument(report *domain.Report) Document {
	md, p := report.Metadata, report.Partition
	return Document{
		ID:                  md.ID,
		Title:               md.Title,
		GeneratedAt:         md.GeneratedAt,
		GeneratedBy:         md.GeneratedBy,
		Source:              md.Source,
		ScheduleMode:        md.ScheduleMode,
		Summary:             report.Stats(),
		Unaffected:          nonNil(p.Unaffected),
		NoUpgradeRequired:   nonNil(p.NoUpgradeRequired),
		UpgradeRequired:     nonNil(p.UpgradeRequired),
		WithClientPackage:   nonNil(p.WithClientPackage),
		WithCertificateInfo: nonNil(p.WithCertificateInfo),
		HardwareFamilies:    report.HardwareFamilies,
	}
}

func nonNil(devices []domain.Device) []domain.Device {
	if devices == nil {
		return []domain.Device{}
	}
	return devices
}

// ExportJSON writes the report as an indented JSON document
func ExportJSON(w io.Writer, report *domain.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(report))
}

// ExportCSV writes one row per device with its group, classification
// output and inventory fields.
func ExportCSV(w io.Writer, report *domain.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Header row
	headers := []string{
		"Group", "Device Name", "Virtual System", "Model", "Serial Number", "IPv4 Address",
		"Device State", "Device Certificate", "Certificate Expiry Date",
		"Software Version", "GlobalProtect Client", "Minimum Version", "Notes", "Source",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	groups := []struct {
		name    string
		devices []domain.Device
	}{
		{GroupUnaffected, report.Partition.Unaffected},
		{GroupNoUpgradeRequired, report.Partition.NoUpgradeRequired},
		{GroupUpgradeRequired, report.Partition.UpgradeRequired},
	}

	// Data rows
	for _, g := range groups {
		for _, d := range g.devices {
			row := []string{
				g.name,
				d.Name,
				d.VirtualSystem,
				d.Model,
				d.SerialNumber,
				d.IPv4Address,
				d.State,
				d.Certificate,
				d.CertificateExpiry,
				d.SoftwareVersion,
				d.ClientPackageVersion,
				d.MinimumRequiredVersion,
				d.Notes,
				d.Source,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// Exporter adapts an export function to ports.ReportExporter.
type Exporter struct {
	write func(io.Writer, *domain.Report) error
}

var _ ports.ReportExporter = (*Exporter)(nil)

// NewJSONExporter returns an exporter producing ExportJSON output.
func NewJSONExporter() *Exporter {
	return &Exporter{write: ExportJSON}
}

// NewCSVExporter returns an exporter producing ExportCSV output.
func NewCSVExporter() *Exporter {
	return &Exporter{write: ExportCSV}
}

func (e *Exporter) Export(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.write(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}
	return buf.Bytes(), nil
}
