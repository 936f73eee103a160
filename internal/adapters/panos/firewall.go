package panos

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

const (
	cmdShowSystemInfo        = "<show><system><info/></system></show>"
	cmdShowDeviceCertificate = "<show><device-certificate><status/></device-certificate></show>"
)

type systemInfoResponse struct {
	System struct {
		Hostname          string `xml:"hostname"`
		Model             string `xml:"model"`
		Serial            string `xml:"serial"`
		IPAddress         string `xml:"ip-address"`
		SoftwareVersion   string `xml:"sw-version"`
		ClientPackage     string `xml:"global-protect-client-package-version"`
		CertificateStatus string `xml:"device-certificate-status"`
	} `xml:"result>system"`
}

type deviceCertificateResponse struct {
	Certificate struct {
		Validity      string `xml:"validity"`
		NotValidAfter string `xml:"not_valid_after"`
	} `xml:"result>device-certificate"`
}

// FirewallSource reports a single firewall queried directly.
type FirewallSource struct {
	client *Client
	logger *slog.Logger
}

// NewFirewallSource creates a source. A nil logger uses slog.Default().
func NewFirewallSource(client *Client, logger *slog.Logger) *FirewallSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FirewallSource{client: client, logger: logger}
}

func (s *FirewallSource) Name() string {
	return "firewall"
}

// Collect implements ports.DeviceSource. The result always holds exactly
// one device.
func (s *FirewallSource) Collect(ctx context.Context) ([]domain.Device, error) {
	var info systemInfoResponse
	if err := s.client.Op(ctx, cmdShowSystemInfo, &info); err != nil {
		return nil, err
	}

	var cert deviceCertificateResponse
	if err := s.client.Op(ctx, cmdShowDeviceCertificate, &cert); err != nil {
		return nil, err
	}

	sys := info.System
	status := strings.TrimSpace(cert.Certificate.Validity)
	if status == "" {
		status = strings.TrimSpace(sys.CertificateStatus)
	}

	d := domain.Device{
		Name:                 strings.TrimSpace(sys.Hostname),
		Model:                strings.TrimSpace(sys.Model),
		SerialNumber:         strings.TrimSpace(sys.Serial),
		IPv4Address:          strings.TrimSpace(sys.IPAddress),
		State:                domain.StateConnected,
		Certificate:          status,
		CertificateExpiry:    strings.TrimSpace(cert.Certificate.NotValidAfter),
		SoftwareVersion:      strings.TrimSpace(sys.SoftwareVersion),
		ClientPackageVersion: domain.NormalizeClientPackage(sys.ClientPackage),
		Source:               s.Name(),
	}

	s.logger.Info("Collected firewall", "host", s.client.Host(), "device", d.Name, "model", d.Model)
	return []domain.Device{d}, nil
}
