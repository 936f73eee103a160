package domain

import "time"

// Partition holds the device groupings a compliance report is built from.
// Unaffected, NoUpgradeRequired and UpgradeRequired are disjoint and together
// cover every device. WithClientPackage and WithCertificateInfo are filters
// over the full inventory and overlap the other groups.
type Partition struct {
	Unaffected          []Device
	NoUpgradeRequired   []Device
	UpgradeRequired     []Device
	WithClientPackage   []Device
	WithCertificateInfo []Device
	Total               int
}

// ReportMetadata describes a generated report.
type ReportMetadata struct {
	ID           string
	Title        string
	GeneratedAt  time.Time
	GeneratedBy  string
	Source       string // inventory origin, e.g. "csv", "panorama"
	ScheduleMode string
}

// Report is the input to a report exporter.
type Report struct {
	Metadata  ReportMetadata
	Partition Partition
	// HardwareFamilies lists the catalog the partition was classified
	// against, affected families first.
	HardwareFamilies []HardwareFamily
}

// ReportStats holds summary counts for the report header.
type ReportStats struct {
	TotalDevices        int `json:"total_devices"`
	Affected            int `json:"affected"`
	Unaffected          int `json:"unaffected"`
	Unrecognized        int `json:"unrecognized"`
	UpgradeRequired     int `json:"upgrade_required"`
	NoUpgradeRequired   int `json:"no_upgrade_required"`
	WithClientPackage   int `json:"with_globalprotect_client"`
	WithCertificateInfo int `json:"with_certificate_info"`
}

// Stats summarizes the partition.
func (r *Report) Stats() ReportStats {
	p := r.Partition
	stats := ReportStats{
		TotalDevices:        p.Total,
		Unaffected:          len(p.Unaffected),
		Affected:            len(p.NoUpgradeRequired) + len(p.UpgradeRequired),
		UpgradeRequired:     len(p.UpgradeRequired),
		NoUpgradeRequired:   len(p.NoUpgradeRequired),
		WithClientPackage:   len(p.WithClientPackage),
		WithCertificateInfo: len(p.WithCertificateInfo),
	}
	for _, d := range p.Unaffected {
		if d.Notes == NoteModelNotRecognized {
			stats.Unrecognized++
		}
	}
	return stats
}

// Classification notes attached to devices.
const (
	NoteModelNotRecognized = "Model not recognized; considered unaffected."
	NoteVersionMissing     = "Software version missing; cannot determine if upgrade is required."
	NoteVersionParsePrefix = "Version parsing error: "
)
