// Package csvsource reads device inventories from a Panorama managed
// devices CSV export.
package csvsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

// Export column headers
const (
	ColDeviceName        = "Device Name"
	ColVirtualSystem     = "Virtual System"
	ColModel             = "Model"
	ColSerialNumber      = "IP Address Serial Number"
	ColIPv4              = "IP Address IPv4"
	ColDeviceState       = "Status Device State"
	ColCertificate       = "Status Device Certificate"
	ColCertificateExpiry = "Status Device Certificate Expiry Date"
	ColSoftwareVersion   = "Software Version"
	ColClientPackage     = "GlobalProtect Client"
)

// deviceSeparator joins the values of co-located devices within one cell.
const deviceSeparator = ";"

// ErrMissingDeviceNameColumn is returned for exports without a Device Name header.
var ErrMissingDeviceNameColumn = errors.New("csv export has no " + ColDeviceName + " column")

// Source implements ports.DeviceSource for a CSV export on disk.
type Source struct {
	// Path is the raw export.
	Path string
	// CleanedPath, when set, receives a copy of the export after cleaning.
	CleanedPath string

	logger *slog.Logger
}

// NewSource creates a CSV source. A nil logger uses slog.Default().
func NewSource(path, cleanedPath string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{Path: path, CleanedPath: cleanedPath, logger: logger}
}

// Name implements ports.DeviceSource.
func (s *Source) Name() string {
	return "csv"
}

// Collect cleans the export and decodes it into devices.
func (s *Source) Collect(ctx context.Context) ([]domain.Device, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv export: %w", err)
	}
	defer f.Close()

	var cleaned bytes.Buffer
	if err := CleanCSV(f, &cleaned); err != nil {
		return nil, fmt.Errorf("clean %s: %w", s.Path, err)
	}

	if s.CleanedPath != "" {
		if err := os.WriteFile(s.CleanedPath, cleaned.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("save cleaned csv: %w", err)
		}
		s.logger.Info("Cleaned CSV file saved", "path", s.CleanedPath)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	devices, err := Decode(&cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	for i := range devices {
		devices[i].Source = s.Name()
	}

	s.logger.Info("Processed CSV export", "path", s.Path, "devices", len(devices))
	return devices, nil
}

// Decode reads a cleaned export. Each row may describe several devices whose
// per-device cells are ";"-separated and zipped by position; Model, Software
// Version and Virtual System apply to every device of the row.
func Decode(r io.Reader) ([]domain.Device, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	if _, ok := index[ColDeviceName]; !ok {
		return nil, ErrMissingDeviceNameColumn
	}

	var devices []domain.Device
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}
		devices = append(devices, decodeRow(rowReader{index: index, row: row})...)
	}

	return devices, nil
}

type rowReader struct {
	index map[string]int
	row   []string
}

func (r rowReader) cell(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r rowReader) split(col string) []string {
	parts := strings.Split(r.cell(col), deviceSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func decodeRow(r rowReader) []domain.Device {
	names := r.split(ColDeviceName)
	serials := r.split(ColSerialNumber)
	addresses := r.split(ColIPv4)
	states := r.split(ColDeviceState)
	certs := r.split(ColCertificate)
	expiries := r.split(ColCertificateExpiry)
	clients := r.split(ColClientPackage)

	vsys := r.cell(ColVirtualSystem)
	model := r.cell(ColModel)
	version := r.cell(ColSoftwareVersion)

	devices := make([]domain.Device, 0, len(names))
	for i, name := range names {
		devices = append(devices, domain.Device{
			Name:                 name,
			VirtualSystem:        vsys,
			Model:                model,
			SerialNumber:         at(serials, i),
			IPv4Address:          at(addresses, i),
			State:                at(states, i),
			Certificate:          at(certs, i),
			CertificateExpiry:    at(expiries, i),
			SoftwareVersion:      version,
			ClientPackageVersion: domain.NormalizeClientPackage(at(clients, i)),
		})
	}
	return devices
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
