package panos

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

const cmdShowDevicesAll = "<show><devices><all/></devices></show>"

type showDevicesResponse struct {
	Entries []managedDevice `xml:"result>devices>entry"`
}

type managedDevice struct {
	Name            string `xml:"name,attr"`
	Hostname        string `xml:"hostname"`
	Model           string `xml:"model"`
	Serial          string `xml:"serial"`
	IPAddress       string `xml:"ip-address"`
	Connected       string `xml:"connected"`
	CertPresent     string `xml:"device-cert-present"`
	CertExpiry      string `xml:"device-cert-expiry-date"`
	SoftwareVersion string `xml:"sw-version"`
	ClientPackage   string `xml:"global-protect-client-package-version"`
}

func (m managedDevice) toDevice() domain.Device {
	state := domain.StateDisconnected
	if strings.EqualFold(strings.TrimSpace(m.Connected), "yes") {
		state = domain.StateConnected
	}

	name := strings.TrimSpace(m.Hostname)
	if name == "" {
		name = strings.TrimSpace(m.Name)
	}

	return domain.Device{
		Name:                 name,
		Model:                strings.TrimSpace(m.Model),
		SerialNumber:         strings.TrimSpace(m.Serial),
		IPv4Address:          strings.TrimSpace(m.IPAddress),
		State:                state,
		Certificate:          strings.TrimSpace(m.CertPresent),
		CertificateExpiry:    strings.TrimSpace(m.CertExpiry),
		SoftwareVersion:      strings.TrimSpace(m.SoftwareVersion),
		ClientPackageVersion: domain.NormalizeClientPackage(m.ClientPackage),
	}
}

// PanoramaSource lists every firewall managed by a Panorama.
type PanoramaSource struct {
	client *Client
	logger *slog.Logger
}

// NewPanoramaSource creates a source. A nil logger uses slog.Default().
func NewPanoramaSource(client *Client, logger *slog.Logger) *PanoramaSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PanoramaSource{client: client, logger: logger}
}

func (s *PanoramaSource) Name() string {
	return "panorama"
}

// Collect implements ports.DeviceSource.
func (s *PanoramaSource) Collect(ctx context.Context) ([]domain.Device, error) {
	var resp showDevicesResponse
	if err := s.client.Op(ctx, cmdShowDevicesAll, &resp); err != nil {
		return nil, err
	}

	devices := make([]domain.Device, 0, len(resp.Entries))
	for _, entry := range resp.Entries {
		d := entry.toDevice()
		d.Source = s.Name()
		devices = append(devices, d)
	}

	s.logger.Info("Collected managed devices", "host", s.client.Host(), "devices", len(devices))
	return devices, nil
}
